// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/metrics"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/models"
	"github.com/studyfair/server/moderation"
)

type AnswerHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	gate   *moderation.Gate
	medium localstore.Medium
}

func NewAnswerHandler(db *sql.DB, cfg cliparse.Config, gate *moderation.Gate, medium localstore.Medium) *AnswerHandler {
	return &AnswerHandler{db: db, cfg: cfg, gate: gate, medium: medium}
}

// Create handles POST /answers
func (h *AnswerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	var req models.CreateAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if userID != "" {
		h.createAuthoritative(w, r, userID, req)
		return
	}

	store := VisitorStore(h.medium, r)
	if store == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Session or visitor token required")
		return
	}

	draft := localstore.DraftAnswer{
		ID:        uuid.NewString(),
		PostID:    req.PostID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.AddDraftAnswer(draft); err != nil {
		slog.Error("failed to save draft answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save draft")
		return
	}

	slog.Info("draft answer saved", "draft_id", draft.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateAnswerResponse{Draft: true})
}

func (h *AnswerHandler) createAuthoritative(w http.ResponseWriter, r *http.Request, userID string, req models.CreateAnswerRequest) {
	// The post must exist; answering implies joining its course
	var courseID string
	err := h.db.QueryRow(`SELECT course_id FROM posts WHERE id = $1`, req.PostID).Scan(&courseID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if result := h.gate.Check(r.Context(), req.Body); result.Flagged {
		metrics.ModerationFlags.Inc()
		middleware.ErrorResponse(w, http.StatusBadRequest, result.Reason)
		return
	}

	if err := ensureMembership(h.db, courseID, userID); err != nil {
		slog.Error("failed to upsert course membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	answerID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate answer ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create answer")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO answers (id, post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, answerID, req.PostID, userID, req.Body, now)

	if err != nil {
		slog.Error("failed to insert answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create answer")
		return
	}

	slog.Info("answer created", "answer_id", answerID, "post_id", req.PostID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateAnswerResponse{
		Answer: &models.Answer{
			ID:        answerID,
			PostID:    req.PostID,
			AuthorID:  userID,
			Body:      req.Body,
			CreatedAt: now,
		},
	})
}
