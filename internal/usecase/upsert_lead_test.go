package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestUpsertCreatesWhenCNPJAbsent(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	uc := NewUpsertLeadUseCase(store, nil)

	lead, created, err := uc.Execute(ctx, LeadCandidate{
		CNPJ:        "11.111.111/0001-11",
		CompanyName: "Empresa A",
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, entity.StatusPending, lead.Status)
}

// Cenário fechado: create + create duplicado + createOrUpdate com status novo.
func TestUpsertOverwritesExistingKeepingIdentity(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)

	a, err := store.Create(ctx, &entity.Lead{
		CNPJ:        "11.111.111/0001-11",
		CompanyName: "Empresa A",
		Status:      entity.StatusPending,
	})
	require.NoError(t, err)

	// create direto com o mesmo cnpj: rejeitado
	_, err = store.Create(ctx, &entity.Lead{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A bis"})
	require.Error(t, err)

	// createOrUpdate com o mesmo cnpj: sobrescreve, mantém id e createdAt
	uc := NewUpsertLeadUseCase(store, nil)
	lead, created, err := uc.Execute(ctx, LeadCandidate{
		CNPJ:        "11.111.111/0001-11",
		CompanyName: "Empresa A",
		Status:      entity.StatusProcessed,
	})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, lead.ID)
	assert.Equal(t, entity.StatusProcessed, lead.Status)
	assert.True(t, a.CreatedAt.Equal(lead.CreatedAt))
	assert.Equal(t, 1, store.Count()) // tamanho da coleção não muda
}

func TestUpsertIsFullReplacement(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)

	_, err := store.Create(ctx, &entity.Lead{
		CNPJ:             "11.111.111/0001-11",
		CompanyName:      "Empresa A",
		Phone:            "(11) 99999-9999",
		Notes:            "anotação antiga",
		PotentialScore:   90,
		PotentialLevel:   "ALTO",
		PotentialFactors: []string{"faturamento"},
	})
	require.NoError(t, err)

	uc := NewUpsertLeadUseCase(store, nil)
	lead, _, err := uc.Execute(ctx, LeadCandidate{
		CNPJ:        "11.111.111/0001-11",
		CompanyName: "Empresa A atualizada",
	})
	require.NoError(t, err)

	// substituição completa: o que o candidato não traz é zerado
	assert.Equal(t, "Empresa A atualizada", lead.CompanyName)
	assert.Empty(t, lead.Phone)
	assert.Empty(t, lead.Notes)
	assert.Zero(t, lead.PotentialScore)
	assert.Empty(t, lead.PotentialLevel)
	assert.Empty(t, lead.PotentialFactors)
}

func TestUpsertRequiresCNPJ(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	uc := NewUpsertLeadUseCase(store, nil)

	_, _, err := uc.Execute(ctx, LeadCandidate{CompanyName: "Sem chave"})

	require.Error(t, err)
	assert.True(t, IsDomainError(err))
	assert.Equal(t, 0, store.Count())
}
