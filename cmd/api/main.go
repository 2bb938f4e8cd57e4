package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func main() {
	godotenv.Load()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	// 1. Store (snapshot em disco + índice de CNPJ)
	store, err := storage.NewLeadStore(dataDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("📦 Store carregado de %s com %d lead(s)", dataDir, store.Count())

	// 2. RabbitMQ (opcional: sem broker o serviço roda sem publicar eventos)
	var producer usecase.QueueProducerInterface
	var rabbitMQ *queue.RabbitMQ
	if host := os.Getenv("RABBITMQ_HOST"); host != "" {
		rabbitMQ, err = queue.NewRabbitMQ(
			os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
			host, os.Getenv("RABBITMQ_PORT"),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitMQ.Conn.Close()
		defer rabbitMQ.Ch.Close()
		producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	} else {
		log.Println("⚠️ RABBITMQ_HOST não configurado, eventos de lead desligados")
	}

	// 3. Email (opcional: resumo de importação para o operador)
	var mailSender usecase.EmailService
	if mailHost := os.Getenv("MAIL_HOST"); mailHost != "" {
		mailSender = mail.NewEmailSender(
			mailHost, 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		)
	}

	// 4. UseCases
	importUC := usecase.NewImportLeadsUseCase(store, producer, mailSender, os.Getenv("IMPORT_NOTIFY_EMAIL"))
	upsertUC := usecase.NewUpsertLeadUseCase(store, producer)

	// 5. Worker de reconciliação (varredura idempotente em background)
	reconcileEvery := 60 * time.Minute
	if mins, err := strconv.Atoi(os.Getenv("RECONCILE_INTERVAL_MIN")); err == nil && mins > 0 {
		reconcileEvery = time.Duration(mins) * time.Minute
	}
	reconcileWorker := worker.NewReconcileWorker(store, reconcileEvery)
	go reconcileWorker.Start(context.Background())

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(store, producer)
	importHandler := handlers.NewImportHandler(importUC, upsertUC, store)

	var healthHandler *handlers.HealthHandler
	if rabbitMQ != nil {
		healthHandler = handlers.NewHealthHandler(store, rabbitMQ.Conn)
	} else {
		healthHandler = handlers.NewHealthHandler(store, nil)
	}

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.Create)
	r.Get("/leads", leadHandler.List)
	r.Get("/leads/stats", leadHandler.Stats)
	r.Get("/leads/{id}", leadHandler.Get)
	r.Put("/leads/{id}", leadHandler.Update)
	r.Delete("/leads/{id}", leadHandler.Delete)

	r.Post("/leads/upsert", importHandler.HandleUpsert)
	r.Post("/leads/import", importHandler.HandleImport)
	r.Post("/leads/reconcile", importHandler.HandleReconcile)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🔥 Server LigueLeads rodando na porta :%s", port)
	http.ListenAndServe(":"+port, r)
}
