package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Dois arquivos: o snapshot completo dos leads (fonte da verdade) e o índice
// cnpj→id (cache derivável). O índice sempre pode ser reconstruído a partir
// do primeiro, então qualquer problema nele é auto-curável.
const (
	leadsFileName = "leads.json"
	indexFileName = "cnpj_index.json"
)

type leadsSnapshot struct {
	NextID  int64       `json:"nextId"`
	Records []leadEntry `json:"records"`
}

// leadEntry serializa como par ["lead-1", {...}], preservando o formato de
// association list do snapshot.
type leadEntry struct {
	ID   string
	Lead *entity.Lead
}

func (e leadEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Lead})
}

func (e *leadEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("record entry: esperado par [id, lead], veio %d elemento(s)", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Lead)
}

func (s *LeadStore) leadsPath() string { return filepath.Join(s.dir, leadsFileName) }
func (s *LeadStore) indexPath() string { return filepath.Join(s.dir, indexFileName) }

// load popula o estado em memória a partir do disco. Snapshot ausente ou
// ilegível NÃO é fatal: o store começa vazio (condição recuperável, logada).
func (s *LeadStore) load() {
	data, err := os.ReadFile(s.leadsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Snapshot de leads ilegível, iniciando vazio: %v", err)
		}
		return
	}

	var snap leadsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("⚠️ Snapshot de leads corrompido, iniciando vazio: %v", err)
		return
	}

	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	for _, entry := range snap.Records {
		if entry.Lead == nil {
			continue
		}
		entry.Lead.ID = entry.ID
		s.leads[entry.ID] = entry.Lead
		// nextId nunca anda para trás, mesmo com snapshot inconsistente
		if seq := leadSeq(entry.ID) + 1; seq > s.nextID {
			s.nextID = seq
		}
	}

	if !s.loadIndex() {
		s.cnpjIndex = rebuildIndex(s.leads)
		log.Printf("🔁 Índice de CNPJ reconstruído a partir de %d lead(s)", len(s.leads))
	}
}

// loadIndex tenta usar o arquivo de índice como cache. Qualquer entrada que
// não bata com a coleção invalida o cache inteiro (aí reconstruímos).
func (s *LeadStore) loadIndex() bool {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return false
	}

	var entries [][2]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return false
	}

	index := make(map[string]string, len(entries))
	for _, pair := range entries {
		cnpj, id := pair[0], pair[1]
		lead, ok := s.leads[id]
		if !ok || lead.CNPJ != cnpj {
			return false
		}
		index[cnpj] = id
	}

	// Lead com CNPJ fora do índice também invalida o cache.
	for id, lead := range s.leads {
		if lead.CNPJ == "" {
			continue
		}
		if index[lead.CNPJ] != id {
			return false
		}
	}

	s.cnpjIndex = index
	return true
}

func rebuildIndex(leads map[string]*entity.Lead) map[string]string {
	index := make(map[string]string, len(leads))
	for id, lead := range leads {
		if lead.CNPJ != "" {
			index[lead.CNPJ] = id
		}
	}
	return index
}

// saveLeads grava o snapshot completo (sem delta). Ordena por sequência de
// criação para o arquivo ficar estável entre gravações.
func (s *LeadStore) saveLeads() error {
	snap := leadsSnapshot{
		NextID:  s.nextID,
		Records: make([]leadEntry, 0, len(s.leads)),
	}
	for id, lead := range s.leads {
		snap.Records = append(snap.Records, leadEntry{ID: id, Lead: lead})
	}
	sort.Slice(snap.Records, func(i, j int) bool {
		return leadSeq(snap.Records[i].ID) < leadSeq(snap.Records[j].ID)
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("falha ao serializar snapshot de leads: %w", err)
	}
	return atomicWrite(s.leadsPath(), data)
}

func (s *LeadStore) saveIndex() error {
	entries := make([][2]string, 0, len(s.cnpjIndex))
	for cnpj, id := range s.cnpjIndex {
		entries = append(entries, [2]string{cnpj, id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i][0] < entries[j][0] })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("falha ao serializar índice de cnpj: %w", err)
	}
	return atomicWrite(s.indexPath(), data)
}

// atomicWrite grava num .tmp e renomeia por cima. Rename no mesmo diretório
// é atômico o suficiente para não deixar snapshot pela metade.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func leadSeq(id string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(id, "lead-"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
