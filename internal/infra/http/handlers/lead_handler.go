package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// LeadHandler é a cola CRUD fina em volta do store. Regras de negócio moram
// no store e nos use cases, não aqui.
type LeadHandler struct {
	store       *storage.LeadStore
	queue       usecase.QueueProducerInterface // opcional
	rateLimiter *RateLimiter
}

func NewLeadHandler(store *storage.LeadStore, queueProducer usecase.QueueProducerInterface) *LeadHandler {
	return &LeadHandler{
		store:       store,
		queue:       queueProducer,
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 req/min por IP no capture público
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// Create (POST /leads) é o endpoint público de captura, por isso o rate limit.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var lead entity.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return
	}

	// id e timestamps são do store; o que vier do caller é descartado
	lead.ID = ""
	lead.CreatedAt = time.Time{}
	lead.UpdatedAt = time.Time{}
	if lead.Status == "" {
		lead.Status = entity.StatusPending
	}

	if err := lead.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := h.store.Create(ctx, &lead)
	if err != nil {
		if storage.IsDuplicateCNPJ(err) {
			middleware.RecordDuplicateRejected()
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "falha ao gravar lead: "+err.Error())
		return
	}

	middleware.RecordLeadCreated("api")
	if h.queue != nil {
		h.queue.PublishLeadEvent(ctx, queue.LeadEventPayload{
			Event:  queue.EventLeadCreated,
			LeadID: created.ID,
			CNPJ:   created.CNPJ,
		})
	}

	writeJSON(w, http.StatusCreated, created)
}

// List (GET /leads) aceita filtros por query string, todos opcionais.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.LeadFilter{
		Status:         q.Get("status"),
		PotentialLevel: q.Get("potential_level"),
		City:           q.Get("city"),
		State:          q.Get("state"),
		Industry:       q.Get("industry"),
	}

	leads, err := h.store.FindAll(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(leads),
		"leads": leads,
	})
}

// Get (GET /leads/{id})
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lead, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrLeadNotFound) {
			writeError(w, http.StatusNotFound, "lead não encontrado: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Update (PUT /leads/{id}) faz merge parcial; campo ausente não muda nada.
// É por aqui que o motor de potencial e o validador de endereço gravam
// os campos deles de volta.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd storage.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return
	}

	lead, err := h.store.Update(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrLeadNotFound):
			writeError(w, http.StatusNotFound, "lead não encontrado: "+id)
		case storage.IsDuplicateCNPJ(err):
			middleware.RecordDuplicateRejected()
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Delete (DELETE /leads/{id}) é idempotente, id inexistente não é erro.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// Stats (GET /leads/stats)
func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
