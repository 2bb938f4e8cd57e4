package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ImportHandler struct {
	ImportUC *usecase.ImportLeadsUseCase
	UpsertUC *usecase.UpsertLeadUseCase
	Store    *storage.LeadStore
}

func NewImportHandler(importUC *usecase.ImportLeadsUseCase, upsertUC *usecase.UpsertLeadUseCase, store *storage.LeadStore) *ImportHandler {
	return &ImportHandler{
		ImportUC: importUC,
		UpsertUC: upsertUC,
		Store:    store,
	}
}

type ImportRequest struct {
	Candidates []usecase.LeadCandidate `json:"candidates"`
	Mode       usecase.ImportMode      `json:"mode,omitempty"`
}

// HandleImport (POST /leads/import) recebe o lote já parseado da planilha.
// A resposta é sempre 200 com o relatório: linha ruim vira entrada em
// errors[], nunca aborta o lote inteiro.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return
	}

	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "lote vazio: candidates é obrigatório")
		return
	}

	mode := req.Mode
	if m := r.URL.Query().Get("mode"); m != "" {
		mode = usecase.ImportMode(m)
	}
	switch mode {
	case "", usecase.ImportModeSkip, usecase.ImportModeUpsert:
	default:
		writeError(w, http.StatusBadRequest, "mode deve ser SKIP ou UPSERT")
		return
	}

	report := h.ImportUC.Execute(r.Context(), req.Candidates, mode)
	middleware.RecordImportRun(string(report.Mode), report.Created, report.Updated, report.Skipped, len(report.Errors))

	writeJSON(w, http.StatusOK, report)
}

// HandleUpsert (POST /leads/upsert) faz o createOrUpdate avulso chaveado por CNPJ.
func (h *ImportHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var candidate usecase.LeadCandidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return
	}

	lead, created, err := h.UpsertUC.Execute(r.Context(), candidate)
	if err != nil {
		switch {
		case usecase.IsDomainError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case storage.IsDuplicateCNPJ(err):
			middleware.RecordDuplicateRejected()
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		middleware.RecordLeadCreated("upsert")
	}
	writeJSON(w, status, lead)
}

// HandleReconcile (POST /leads/reconcile) dispara a varredura manualmente,
// além do worker periódico.
func (h *ImportHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.Reconcile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "falha na reconciliação: "+err.Error())
		return
	}

	if removed > 0 {
		middleware.RecordLeadsReconciled(removed)
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
