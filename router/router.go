// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/handlers"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/migrate"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/quizgen"
	"github.com/studyfair/server/quota"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, medium localstore.Medium) *http.ServeMux {
	mux := http.NewServeMux()

	// Shared services
	gate := moderation.NewGate(cfg.ModerationURL, cfg.ModerationKey)
	var client *quizgen.Client
	if cfg.CompletionURL != "" {
		client = quizgen.NewClient(cfg.CompletionURL, cfg.CompletionKey, cfg.CompletionModel)
	}
	generator := quizgen.NewGenerator(client)
	engine := migrate.NewEngine(db, gate, quota.NewLedger(db))

	// Initialize handlers
	visitorHandler := handlers.NewVisitorHandler(cfg)
	postHandler := handlers.NewPostHandler(db, cfg, gate, medium)
	answerHandler := handlers.NewAnswerHandler(db, cfg, gate, medium)
	listingHandler := handlers.NewListingHandler(db, cfg, gate, medium)
	quizHandler := handlers.NewQuizHandler(db, cfg, generator, medium)
	reportHandler := handlers.NewReportHandler(db, cfg)
	migrateHandler := handlers.NewMigrateHandler(cfg, engine, medium)
	billingHandler := handlers.NewBillingHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Anonymous identity
	mux.HandleFunc("POST /visitors/register", middleware.WithLogging("/visitors/register", visitorHandler.Register))

	// Course Q&A
	mux.HandleFunc("POST /posts", middleware.WithLogging("/posts", postHandler.Create))
	mux.HandleFunc("POST /posts/accept", middleware.WithLogging("/posts/accept", postHandler.Accept))
	mux.HandleFunc("POST /answers", middleware.WithLogging("/answers", answerHandler.Create))

	// Marketplace
	mux.HandleFunc("POST /listings", middleware.WithLogging("/listings", listingHandler.Create))

	// Study quizzes
	mux.HandleFunc("POST /ai/quiz", middleware.WithLogging("/ai/quiz", quizHandler.Generate))

	// Moderation reports
	mux.HandleFunc("POST /reports", middleware.WithLogging("/reports", reportHandler.Create))

	// Draft migration after sign-up
	mux.HandleFunc("POST /migrate", middleware.WithLogging("/migrate", migrateHandler.Run))

	// Billing provider webhooks
	mux.HandleFunc("POST /billing/webhook", middleware.WithLogging("/billing/webhook", billingHandler.Webhook))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("studyfair API v1"))
	})

	return mux
}
