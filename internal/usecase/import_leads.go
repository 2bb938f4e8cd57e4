package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

// Política de dedup da importação em lote. O caminho padrão é insert-only
// (planilha reimportada não mexe em lead existente); UPSERT refresca os
// campos mutáveis de quem já existe. A escolha é do caller, nunca implícita.
type ImportMode string

const (
	ImportModeSkip   ImportMode = "SKIP"
	ImportModeUpsert ImportMode = "UPSERT"
)

// A cada N linhas processadas forçamos um checkpoint (gravação completa dos
// dois snapshots), além dos saves por operação. Isso limita o replay depois
// de um crash no meio do lote sem precisar de WAL, aceitável porque lote é
// do tamanho de planilha (milhares de linhas, não milhões).
const DefaultCheckpointInterval = 100

type ImportError struct {
	Position int    `json:"position"`
	Message  string `json:"message"`
}

type ImportReport struct {
	JobID   string        `json:"job_id"`
	Mode    ImportMode    `json:"mode"`
	Total   int           `json:"total"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

type ImportLeadsUseCase struct {
	Store              LeadStoreInterface
	Queue              QueueProducerInterface // opcional
	EmailService       EmailService           // opcional
	NotifyEmail        string
	CheckpointInterval int
}

func NewImportLeadsUseCase(
	store LeadStoreInterface,
	queueProducer QueueProducerInterface,
	emailService EmailService,
	notifyEmail string,
) *ImportLeadsUseCase {
	return &ImportLeadsUseCase{
		Store:              store,
		Queue:              queueProducer,
		EmailService:       emailService,
		NotifyEmail:        notifyEmail,
		CheckpointInterval: DefaultCheckpointInterval,
	}
}

// Execute aplica a política de dedup candidato a candidato, na ordem de
// entrada. Cada linha cai em exatamente um dos contadores (created, updated,
// skipped) ou na lista de erros; uma linha ruim nunca derruba as demais. O
// relatório é sempre devolvido, nunca lançado.
func (uc *ImportLeadsUseCase) Execute(ctx context.Context, candidates []LeadCandidate, mode ImportMode) ImportReport {
	if mode == "" {
		mode = ImportModeSkip
	}

	report := ImportReport{
		JobID:  uuid.New().String(),
		Mode:   mode,
		Total:  len(candidates),
		Errors: []ImportError{},
	}

	interval := uc.CheckpointInterval
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}

	log.Printf("📥 Importação %s iniciada: %d candidato(s), modo %s", report.JobID, report.Total, mode)

	for i, candidate := range candidates {
		uc.processCandidate(ctx, candidate, i, &report)

		if (i+1)%interval == 0 {
			if err := uc.Store.Checkpoint(ctx); err != nil {
				log.Printf("⚠️ Checkpoint falhou na linha %d: %v", i+1, err)
			}
		}
	}

	uc.publishFinished(ctx, report)
	uc.notifyByEmail(report)

	log.Printf("✅ Importação %s concluída: created=%d updated=%d skipped=%d errors=%d",
		report.JobID, report.Created, report.Updated, report.Skipped, len(report.Errors))
	return report
}

func (uc *ImportLeadsUseCase) processCandidate(ctx context.Context, candidate LeadCandidate, position int, report *ImportReport) {
	if candidate.CNPJ == "" {
		report.Errors = append(report.Errors, ImportError{
			Position: position,
			Message:  fmt.Sprintf("cnpj ausente na posição %d", position),
		})
		return
	}

	existing, err := uc.Store.FindByCNPJ(ctx, candidate.CNPJ)
	switch {
	case err == nil:
		if report.Mode == ImportModeUpsert {
			updated, err := uc.Store.Update(ctx, existing.ID, candidate.toFullUpdate())
			if err != nil {
				report.Errors = append(report.Errors, ImportError{Position: position, Message: err.Error()})
				return
			}
			report.Updated++
			uc.publishLeadEvent(ctx, queue.EventLeadUpdated, report.JobID, updated.ID, updated.CNPJ)
			return
		}
		report.Skipped++

	case errors.Is(err, storage.ErrLeadNotFound):
		created, err := uc.Store.Create(ctx, candidate.toLead())
		if err != nil {
			report.Errors = append(report.Errors, ImportError{Position: position, Message: err.Error()})
			return
		}
		report.Created++
		uc.publishLeadEvent(ctx, queue.EventLeadCreated, report.JobID, created.ID, created.CNPJ)

	default:
		report.Errors = append(report.Errors, ImportError{Position: position, Message: err.Error()})
	}
}

func (uc *ImportLeadsUseCase) publishLeadEvent(ctx context.Context, event, jobID, leadID, cnpj string) {
	if uc.Queue == nil {
		return
	}
	err := uc.Queue.PublishLeadEvent(ctx, queue.LeadEventPayload{
		Event:  event,
		JobID:  jobID,
		LeadID: leadID,
		CNPJ:   cnpj,
	})
	if err != nil {
		log.Printf("⚠️ Falha ao publicar evento %s do lead %s: %v", event, leadID, err)
	}
}

func (uc *ImportLeadsUseCase) publishFinished(ctx context.Context, report ImportReport) {
	if uc.Queue == nil {
		return
	}
	err := uc.Queue.PublishLeadEvent(ctx, queue.LeadEventPayload{
		Event:   queue.EventImportFinished,
		JobID:   report.JobID,
		Total:   report.Total,
		Created: report.Created,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Failed:  len(report.Errors),
	})
	if err != nil {
		log.Printf("⚠️ Falha ao publicar fim da importação %s: %v", report.JobID, err)
	}
}

func (uc *ImportLeadsUseCase) notifyByEmail(report ImportReport) {
	if uc.EmailService == nil || uc.NotifyEmail == "" {
		return
	}
	go func() {
		err := uc.EmailService.SendImportReport(
			uc.NotifyEmail, report.JobID,
			report.Total, report.Created, report.Updated, report.Skipped, len(report.Errors),
		)
		if err != nil {
			log.Printf("⚠️ Falha ao enviar resumo da importação %s: %v", report.JobID, err)
		}
	}()
}
