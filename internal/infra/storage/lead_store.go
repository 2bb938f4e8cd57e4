package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadStore é a coleção autoritativa de leads com unicidade de CNPJ.
//
// Dois mapas andam juntos: leads (id→registro, dono dos dados) e cnpjIndex
// (cnpj→id, só lookup). Toda operação de escrita é uma seção crítica única:
// decide + muta + persiste debaixo do mesmo lock, para ninguém enxergar a
// coleção atualizada com índice velho (ou vice-versa).
type LeadStore struct {
	mu        sync.RWMutex
	dir       string
	nextID    int64
	leads     map[string]*entity.Lead
	cnpjIndex map[string]string

	now func() time.Time // trocável nos testes
}

func NewLeadStore(dir string) (*LeadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de dados %s: %w", dir, err)
	}

	s := &LeadStore{
		dir:       dir,
		nextID:    1,
		leads:     make(map[string]*entity.Lead),
		cnpjIndex: make(map[string]string),
		now:       time.Now,
	}
	s.load()
	return s, nil
}

// Create atribui um id novo e grava. CNPJ já indexado derruba a operação com
// DuplicateCNPJError sem tocar na coleção.
func (s *LeadStore) Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.CNPJ != "" {
		if existingID, ok := s.cnpjIndex[lead.CNPJ]; ok {
			return nil, &DuplicateCNPJError{CNPJ: lead.CNPJ, ExistingID: existingID}
		}
	}

	stored := cloneLead(lead)
	stored.ID = fmt.Sprintf("lead-%d", s.nextID)
	if stored.Status == "" {
		stored.Status = entity.StatusPending
	}
	now := s.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.nextID++ // id nunca é reaproveitado, mesmo se a gravação falhar
	s.leads[stored.ID] = stored
	if stored.CNPJ != "" {
		s.cnpjIndex[stored.CNPJ] = stored.ID
	}

	if err := s.persist(stored.CNPJ != ""); err != nil {
		delete(s.leads, stored.ID)
		delete(s.cnpjIndex, stored.CNPJ)
		return nil, err
	}
	return cloneLead(stored), nil
}

func (s *LeadStore) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

func (s *LeadStore) FindByCNPJ(ctx context.Context, cnpj string) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.cnpjIndex[cnpj]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead, ok := s.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// LeadFilter é uma conjunção de filtros opcionais. Campo vazio não restringe.
// City é substring case-insensitive; o resto é igualdade exata.
type LeadFilter struct {
	Status         string
	PotentialLevel string
	City           string
	State          string
	Industry       string
}

func (f LeadFilter) matches(lead *entity.Lead) bool {
	if f.Status != "" && lead.Status != f.Status {
		return false
	}
	if f.PotentialLevel != "" && lead.PotentialLevel != f.PotentialLevel {
		return false
	}
	if f.State != "" && lead.Address.State != f.State {
		return false
	}
	if f.Industry != "" && lead.Industry != f.Industry {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(lead.Address.City), strings.ToLower(f.City)) {
		return false
	}
	return true
}

// FindAll devolve os leads do filtro, mais recentes primeiro.
func (s *LeadStore) FindAll(ctx context.Context, filter LeadFilter) ([]*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entity.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if filter.matches(lead) {
			result = append(result, cloneLead(lead))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return leadSeq(result[i].ID) > leadSeq(result[j].ID)
	})
	return result, nil
}

// LeadUpdate é um merge parcial: ponteiro nil mantém o valor atual.
type LeadUpdate struct {
	CNPJ             *string         `json:"cnpj"`
	CompanyName      *string         `json:"company_name"`
	TradeName        *string         `json:"trade_name"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	Industry         *string         `json:"industry"`
	Status           *string         `json:"status"`
	Address          *entity.Address `json:"address"`
	AddressValidated *bool           `json:"address_validated"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	PotentialScore   *int            `json:"potential_score"`
	PotentialLevel   *string         `json:"potential_level"`
	PotentialFactors []string        `json:"potential_factors"`
	Source           *string         `json:"source"`
	Notes            *string         `json:"notes"`
}

func (u LeadUpdate) applyTo(lead *entity.Lead) {
	if u.CNPJ != nil {
		lead.CNPJ = *u.CNPJ
	}
	if u.CompanyName != nil {
		lead.CompanyName = *u.CompanyName
	}
	if u.TradeName != nil {
		lead.TradeName = *u.TradeName
	}
	if u.Email != nil {
		lead.Email = *u.Email
	}
	if u.Phone != nil {
		lead.Phone = *u.Phone
	}
	if u.Industry != nil {
		lead.Industry = *u.Industry
	}
	if u.Status != nil {
		lead.Status = *u.Status
	}
	if u.Address != nil {
		lead.Address = *u.Address
	}
	if u.AddressValidated != nil {
		lead.AddressValidated = *u.AddressValidated
	}
	if u.Latitude != nil {
		lat := *u.Latitude
		lead.Latitude = &lat
	}
	if u.Longitude != nil {
		lng := *u.Longitude
		lead.Longitude = &lng
	}
	if u.PotentialScore != nil {
		lead.PotentialScore = *u.PotentialScore
	}
	if u.PotentialLevel != nil {
		lead.PotentialLevel = *u.PotentialLevel
	}
	if u.PotentialFactors != nil {
		lead.PotentialFactors = append([]string(nil), u.PotentialFactors...)
	}
	if u.Source != nil {
		lead.Source = *u.Source
	}
	if u.Notes != nil {
		lead.Notes = *u.Notes
	}
}

// Update faz merge parcial e atualiza updatedAt. Troca de CNPJ reindexa na
// mesma seção crítica: solta a chave velha e ocupa a nova. Falha com
// DuplicateCNPJError se a nova já pertence a OUTRO lead.
func (s *LeadStore) Update(ctx context.Context, id string, upd LeadUpdate) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	merged := cloneLead(current)
	merged.ID = id
	merged.CreatedAt = current.CreatedAt // imutável
	upd.applyTo(merged)
	merged.UpdatedAt = s.now()

	oldCNPJ := current.CNPJ
	if merged.CNPJ != oldCNPJ && merged.CNPJ != "" {
		if owner, taken := s.cnpjIndex[merged.CNPJ]; taken && owner != id {
			return nil, &DuplicateCNPJError{CNPJ: merged.CNPJ, ExistingID: owner}
		}
	}

	s.leads[id] = merged
	indexChanged := merged.CNPJ != oldCNPJ
	if indexChanged {
		if oldCNPJ != "" {
			delete(s.cnpjIndex, oldCNPJ)
		}
		if merged.CNPJ != "" {
			s.cnpjIndex[merged.CNPJ] = id
		}
	}

	if err := s.persist(indexChanged); err != nil {
		s.leads[id] = current
		if indexChanged {
			if merged.CNPJ != "" {
				delete(s.cnpjIndex, merged.CNPJ)
			}
			if oldCNPJ != "" {
				s.cnpjIndex[oldCNPJ] = id
			}
		}
		return nil, err
	}
	return cloneLead(merged), nil
}

// Delete é idempotente: id inexistente devolve (false, nil), não erro.
func (s *LeadStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return false, nil
	}

	delete(s.leads, id)
	if lead.CNPJ != "" {
		delete(s.cnpjIndex, lead.CNPJ)
	}

	if err := s.persist(lead.CNPJ != ""); err != nil {
		s.leads[id] = lead
		if lead.CNPJ != "" {
			s.cnpjIndex[lead.CNPJ] = id
		}
		return false, err
	}
	return true, nil
}

type LeadStats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"by_status"`
	ByPotentialLevel map[string]int `json:"by_potential_level"`
	ByRegion         map[string]int `json:"by_region"`
}

// Stats é agregação pura sobre o estado atual; não toca em disco.
func (s *LeadStore) Stats(ctx context.Context) (LeadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := LeadStats{
		Total:            len(s.leads),
		ByStatus:         make(map[string]int),
		ByPotentialLevel: make(map[string]int),
		ByRegion:         make(map[string]int),
	}
	for _, lead := range s.leads {
		stats.ByStatus[lead.Status]++
		if lead.PotentialLevel != "" {
			stats.ByPotentialLevel[lead.PotentialLevel]++
		}
		stats.ByRegion[lead.Region()]++
	}
	return stats, nil
}

// Checkpoint força a gravação dos dois snapshots, independente dos saves por
// operação. Usado pelo pipeline de importação para limitar o replay pós-crash.
func (s *LeadStore) Checkpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(true)
}

func (s *LeadStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// persist assume o lock de escrita já tomado.
func (s *LeadStore) persist(indexChanged bool) error {
	if err := s.saveLeads(); err != nil {
		return err
	}
	if indexChanged {
		return s.saveIndex()
	}
	return nil
}

func cloneLead(lead *entity.Lead) *entity.Lead {
	c := *lead
	if lead.Latitude != nil {
		lat := *lead.Latitude
		c.Latitude = &lat
	}
	if lead.Longitude != nil {
		lng := *lead.Longitude
		c.Longitude = &lng
	}
	if lead.PotentialFactors != nil {
		c.PotentialFactors = append([]string(nil), lead.PotentialFactors...)
	}
	return &c
}
