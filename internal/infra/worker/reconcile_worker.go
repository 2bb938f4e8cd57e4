package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
)

// ReconcileWorker roda a varredura de reconciliação de duplicados em
// background. Em operação normal ela não remove nada (a varredura é
// idempotente); ela existe para curar a coleção se o snapshot já nasceu
// violado ou o índice se perdeu no meio do caminho.
type ReconcileWorker struct {
	store        *storage.LeadStore
	tickInterval time.Duration
}

func NewReconcileWorker(store *storage.LeadStore, tickInterval time.Duration) *ReconcileWorker {
	if tickInterval <= 0 {
		tickInterval = 60 * time.Minute
	}
	return &ReconcileWorker{
		store:        store,
		tickInterval: tickInterval,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Printf("🕒 Reconcile Worker iniciado (a cada %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Reconcile Worker encerrado")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReconcileWorker) sweep(ctx context.Context) {
	removed, err := w.store.Reconcile(ctx)
	if err != nil {
		log.Printf("❌ Erro na varredura de reconciliação: %v", err)
		return
	}
	if removed > 0 {
		middleware.RecordLeadsReconciled(removed)
		log.Printf("✅ Reconciliação removeu %d lead(s) duplicado(s)", removed)
	}
}
