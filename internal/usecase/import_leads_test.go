package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendImportReport(to, jobID string, total, created, updated, skipped, failed int) error {
	args := m.Called(to, jobID, total, created, updated, skipped, failed)
	return args.Error(0)
}

// countingStore conta os checkpoints forçados pelo pipeline.
type countingStore struct {
	*storage.LeadStore
	checkpoints int
}

func (c *countingStore) Checkpoint(ctx context.Context) error {
	c.checkpoints++
	return c.LeadStore.Checkpoint(ctx)
}

func newImportTestStore(t *testing.T) *storage.LeadStore {
	t.Helper()
	store, err := storage.NewLeadStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestImportBatchAccounting(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	uc := NewImportLeadsUseCase(store, nil, nil, "")

	// [A, A, vazio] -> 1 criado, 1 ignorado, 1 erro
	candidates := []LeadCandidate{
		{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A"},
		{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A de novo"},
		{CompanyName: "Linha sem cnpj"},
	}

	report := uc.Execute(ctx, candidates, ImportModeSkip)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Position)
	assert.Contains(t, report.Errors[0].Message, "cnpj ausente")
	assert.NotEmpty(t, report.JobID)

	// insert-only: o lead existente não foi tocado
	got, err := store.FindByCNPJ(ctx, "11.111.111/0001-11")
	require.NoError(t, err)
	assert.Equal(t, "Empresa A", got.CompanyName)
	assert.Equal(t, 1, store.Count())
}

func TestImportEveryRowHitsExactlyOneOutcome(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	uc := NewImportLeadsUseCase(store, nil, nil, "")

	var candidates []LeadCandidate
	for i := 0; i < 20; i++ {
		c := LeadCandidate{CompanyName: "Empresa"}
		switch i % 4 {
		case 0, 1:
			c.CNPJ = "55.555.555/0001-55" // colide a partir da segunda
		case 2:
			c.CNPJ = ""
		case 3:
			c.CNPJ = "66.666.666/0001-66"
		}
		candidates = append(candidates, c)
	}

	report := uc.Execute(ctx, candidates, ImportModeSkip)
	assert.Equal(t, report.Total, report.Created+report.Updated+report.Skipped+len(report.Errors))
}

func TestImportUpsertModeRefreshesExisting(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	existing, err := store.Create(ctx, &entity.Lead{
		CNPJ:        "11.111.111/0001-11",
		CompanyName: "Nome antigo",
		Status:      entity.StatusPending,
	})
	require.NoError(t, err)

	uc := NewImportLeadsUseCase(store, nil, nil, "")
	report := uc.Execute(ctx, []LeadCandidate{
		{CNPJ: "11.111.111/0001-11", CompanyName: "Nome novo", Status: entity.StatusProcessed},
		{CNPJ: "22.222.222/0001-22", CompanyName: "Empresa nova"},
	}, ImportModeUpsert)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Errors)

	refreshed, err := store.FindByCNPJ(ctx, "11.111.111/0001-11")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, refreshed.ID) // mesmo registro, não um novo
	assert.Equal(t, "Nome novo", refreshed.CompanyName)
	assert.Equal(t, entity.StatusProcessed, refreshed.Status)
	assert.Equal(t, 2, store.Count())
}

func TestImportCheckpointsAtInterval(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{LeadStore: newImportTestStore(t)}
	uc := NewImportLeadsUseCase(store, nil, nil, "")
	uc.CheckpointInterval = 2

	var candidates []LeadCandidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, LeadCandidate{
			CNPJ:        string(rune('A'+i)) + "0.000.000/0001-00",
			CompanyName: "Empresa",
		})
	}

	uc.Execute(ctx, candidates, ImportModeSkip)

	// 5 linhas, intervalo 2 -> checkpoints nas linhas 2 e 4
	assert.Equal(t, 2, store.checkpoints)
}

func TestImportPublishesEvents(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)

	producer := new(MockQueueProducer)
	producer.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(nil)

	uc := NewImportLeadsUseCase(store, producer, nil, "")
	uc.Execute(ctx, []LeadCandidate{
		{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A"},
		{CNPJ: "22.222.222/0001-22", CompanyName: "Empresa B"},
	}, ImportModeSkip)

	// um lead.created por linha criada + um import.finished
	producer.AssertNumberOfCalls(t, "PublishLeadEvent", 3)
}

func TestImportQueueFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)

	producer := new(MockQueueProducer)
	producer.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(assert.AnError)

	uc := NewImportLeadsUseCase(store, producer, nil, "")
	report := uc.Execute(ctx, []LeadCandidate{
		{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A"},
	}, ImportModeSkip)

	// broker fora do ar não vira erro de linha
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Errors)
}

func TestImportDefaultsToSkipMode(t *testing.T) {
	ctx := context.Background()
	store := newImportTestStore(t)
	uc := NewImportLeadsUseCase(store, nil, nil, "")

	report := uc.Execute(ctx, []LeadCandidate{
		{CNPJ: "11.111.111/0001-11", CompanyName: "Empresa A"},
	}, "")

	assert.Equal(t, ImportModeSkip, report.Mode)
}
