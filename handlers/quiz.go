// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/studyfair/server/billing"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/metrics"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/models"
	"github.com/studyfair/server/quizgen"
	"github.com/studyfair/server/quota"
)

type QuizHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	generator *quizgen.Generator
	ledger    *quota.Ledger
	billing   *billing.Processor
	medium    localstore.Medium
}

func NewQuizHandler(db *sql.DB, cfg cliparse.Config, generator *quizgen.Generator, medium localstore.Medium) *QuizHandler {
	return &QuizHandler{
		db:        db,
		cfg:       cfg,
		generator: generator,
		ledger:    quota.NewLedger(db),
		billing:   billing.NewProcessor(db),
		medium:    medium,
	}
}

// Generate handles POST /ai/quiz
// Authenticated callers consume the server-side daily ledger; visitors use
// the per-token local counter and keep the quiz in their draft store.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	var req models.GenerateQuizRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if userID != "" {
		h.generateAuthoritative(w, r, userID, req)
		return
	}

	store := VisitorStore(h.medium, r)
	if store == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Session or visitor token required")
		return
	}
	h.generateLocal(w, r, store, req)
}

func (h *QuizHandler) generateAuthoritative(w http.ResponseWriter, r *http.Request, userID string, req models.GenerateQuizRequest) {
	pro, err := h.billing.IsPro(r.Context(), userID)
	if err != nil {
		slog.Error("failed to look up subscription tier", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	q, err := h.ledger.CheckQuiz(r.Context(), userID, pro)
	if err != nil {
		slog.Error("failed to check quiz quota", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !q.Allowed {
		metrics.QuotaRejections.WithLabelValues("quiz").Inc()
		middleware.JSONResponse(w, http.StatusTooManyRequests, models.QuotaExceededResponse{
			Error:     "Daily quiz limit reached",
			Remaining: 0,
			Limit:     q.Limit,
			Upgrade:   !pro,
		})
		return
	}

	notes := quizgen.TruncateSource(req.Notes)
	questions, usedFallback := h.generator.Generate(r.Context(), notes)
	if usedFallback {
		metrics.CompletionFallbacks.WithLabelValues("remote_error").Inc()
	}

	quizID := uuid.NewString()
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		slog.Error("failed to encode quiz questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to generate quiz")
		return
	}

	var courseID sql.NullString
	if req.CourseID != "" {
		courseID = sql.NullString{String: req.CourseID, Valid: true}
	}

	_, err = h.db.Exec(`
		INSERT INTO ai_quizzes (id, user_id, course_id, source_text, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, quizID, userID, courseID, notes, questionsJSON, time.Now())

	if err != nil {
		slog.Error("failed to insert quiz", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz")
		return
	}

	// Count usage only after the quiz is persisted. The check above and
	// this increment are not atomic; concurrent requests can briefly
	// overshoot the limit.
	if err := h.ledger.IncrementQuiz(r.Context(), userID); err != nil {
		slog.Error("failed to increment quiz usage", "error", err)
	}

	slog.Info("quiz generated", "quiz_id", quizID, "user_id", userID, "fallback", usedFallback)

	middleware.JSONResponse(w, http.StatusOK, models.GenerateQuizResponse{
		QuizID:    quizID,
		Questions: questions,
		Remaining: q.Remaining - 1,
		Limit:     q.Limit,
		IsPro:     pro,
	})
}

func (h *QuizHandler) generateLocal(w http.ResponseWriter, r *http.Request, store *localstore.Store, req models.GenerateQuizRequest) {
	local := quota.NewLocalLedger(store)

	q := local.CheckQuiz()
	if !q.Allowed {
		metrics.QuotaRejections.WithLabelValues("quiz").Inc()
		middleware.JSONResponse(w, http.StatusTooManyRequests, models.QuotaExceededResponse{
			Error:     "Daily quiz limit reached",
			Remaining: 0,
			Limit:     q.Limit,
			Upgrade:   true,
		})
		return
	}

	notes := quizgen.TruncateSource(req.Notes)
	questions, usedFallback := h.generator.Generate(r.Context(), notes)
	if usedFallback {
		metrics.CompletionFallbacks.WithLabelValues("remote_error").Inc()
	}

	quiz := localstore.Quiz{
		ID:         uuid.NewString(),
		CourseID:   req.CourseID,
		SourceText: notes,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.AddQuiz(quiz); err != nil {
		slog.Error("failed to save local quiz", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save quiz")
		return
	}

	if err := local.IncrementQuiz(); err != nil {
		slog.Error("failed to increment local quiz usage", "error", err)
	}

	slog.Info("quiz generated locally", "quiz_id", quiz.ID, "fallback", usedFallback)

	middleware.JSONResponse(w, http.StatusOK, models.GenerateQuizResponse{
		QuizID:    quiz.ID,
		Questions: questions,
		Remaining: q.Remaining - 1,
		Limit:     q.Limit,
		IsPro:     false,
	})
}
