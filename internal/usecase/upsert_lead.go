package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

// UpsertLeadUseCase: "insere se não existe, senão sobrescreve", chaveado pelo
// CNPJ. É o ponto de entrada avulso (fora do lote) e compartilha as
// primitivas Create/Update do store, então a unicidade continua valendo.
type UpsertLeadUseCase struct {
	Store LeadStoreInterface
	Queue QueueProducerInterface // opcional
}

func NewUpsertLeadUseCase(store LeadStoreInterface, queueProducer QueueProducerInterface) *UpsertLeadUseCase {
	return &UpsertLeadUseCase{Store: store, Queue: queueProducer}
}

// Execute devolve o lead resultante e se ele foi criado (true) ou
// sobrescrito (false).
func (uc *UpsertLeadUseCase) Execute(ctx context.Context, candidate LeadCandidate) (*entity.Lead, bool, error) {
	if candidate.CNPJ == "" {
		// sem chave não há o que casar; criar às cegas viraria linha nova a cada retry
		return nil, false, &DomainError{
			Code:    "CNPJ_REQUIRED",
			Message: "cnpj é obrigatório para createOrUpdate",
		}
	}

	existing, err := uc.Store.FindByCNPJ(ctx, candidate.CNPJ)
	if err != nil {
		if !errors.Is(err, storage.ErrLeadNotFound) {
			return nil, false, &TechnicalError{Code: "STORE_ERROR", Message: err.Error()}
		}

		created, err := uc.Store.Create(ctx, candidate.toLead())
		if err != nil {
			return nil, false, err
		}
		uc.publish(ctx, queue.EventLeadCreated, created)
		return created, true, nil
	}

	// Sobrescrita completa: só id e createdAt ficam do registro antigo.
	updated, err := uc.Store.Update(ctx, existing.ID, candidate.toFullUpdate())
	if err != nil {
		return nil, false, err
	}
	uc.publish(ctx, queue.EventLeadUpdated, updated)
	return updated, false, nil
}

func (uc *UpsertLeadUseCase) publish(ctx context.Context, event string, lead *entity.Lead) {
	if uc.Queue == nil {
		return
	}
	err := uc.Queue.PublishLeadEvent(ctx, queue.LeadEventPayload{
		Event:  event,
		LeadID: lead.ID,
		CNPJ:   lead.CNPJ,
	})
	if err != nil {
		log.Printf("⚠️ Falha ao publicar evento %s do lead %s: %v", event, lead.ID, err)
	}
}
