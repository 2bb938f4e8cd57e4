package storage

import (
	"context"
	"log"
	"sort"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Reconcile varre a coleção atrás de CNPJs em colisão (invariante violada por
// snapshot gravado com bug ou índice corrompido seguido de reinserção cega) e
// resolve de forma determinística: em cada grupo sobrevive o lead com
// updatedAt mais recente, o resto é descartado. Depois o índice é
// reconstruído do zero e os dois snapshots vão pro disco.
//
// Idempotente: rodar duas vezes seguidas não remove nada na segunda.
// Devolve quantos leads foram removidos.
func (s *LeadStore) Reconcile(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string][]*entity.Lead)
	for _, lead := range s.leads {
		if lead.CNPJ != "" {
			groups[lead.CNPJ] = append(groups[lead.CNPJ], lead)
		}
	}

	removed := 0
	for cnpj, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if !members[i].UpdatedAt.Equal(members[j].UpdatedAt) {
				return members[i].UpdatedAt.After(members[j].UpdatedAt)
			}
			// desempate determinístico: criação mais recente vence
			return leadSeq(members[i].ID) > leadSeq(members[j].ID)
		})
		for _, loser := range members[1:] {
			delete(s.leads, loser.ID)
			removed++
		}
		log.Printf("🧹 CNPJ %s tinha %d leads, mantido %s", cnpj, len(members), members[0].ID)
	}

	s.cnpjIndex = rebuildIndex(s.leads)

	if removed == 0 {
		// nada mudou na coleção, mas o índice reconstruído ainda vale gravar
		return 0, s.saveIndex()
	}
	if err := s.persist(true); err != nil {
		return removed, err
	}
	return removed, nil
}
