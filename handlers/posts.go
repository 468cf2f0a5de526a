// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/metrics"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/models"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/quota"
)

type PostHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	gate   *moderation.Gate
	ledger *quota.Ledger
	medium localstore.Medium
}

func NewPostHandler(db *sql.DB, cfg cliparse.Config, gate *moderation.Gate, medium localstore.Medium) *PostHandler {
	return &PostHandler{
		db:     db,
		cfg:    cfg,
		gate:   gate,
		ledger: quota.NewLedger(db),
		medium: medium,
	}
}

// Create handles POST /posts
// Authenticated callers write to the database; visitors write a local draft
// that migration replays after sign-up.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	var req models.CreatePostRequest
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

	// Visitor drafts stay local until migration; moderation and the
	// anonymous-post limit are applied when the draft is replayed.
	draft := localstore.DraftPost{
		ID:        uuid.NewString(),
		CourseID:  req.CourseID,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
		IsAnon:    req.IsAnon,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.AddDraftPost(draft); err != nil {
		slog.Error("failed to save draft post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save draft")
		return
	}

	slog.Info("draft post saved", "draft_id", draft.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.CreatePostResponse{Draft: true})
}

func (h *PostHandler) createAuthoritative(w http.ResponseWriter, r *http.Request, userID string, req models.CreatePostRequest) {
	// Course must exist
	var exists bool
	err := h.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, req.CourseID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query course", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Course not found")
		return
	}

	if req.IsAnon {
		q, err := h.ledger.CheckAnonPost(r.Context(), userID)
		if err != nil {
			slog.Error("failed to check anonymous post quota", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !q.Allowed {
			metrics.QuotaRejections.WithLabelValues("anon_post").Inc()
			middleware.JSONResponse(w, http.StatusTooManyRequests, models.QuotaExceededResponse{
				Error:     "Daily anonymous post limit reached",
				Remaining: q.Remaining,
				Limit:     q.Limit,
			})
			return
		}
	}

	for _, text := range []string{req.Title, req.Body} {
		if result := h.gate.Check(r.Context(), text); result.Flagged {
			metrics.ModerationFlags.Inc()
			middleware.ErrorResponse(w, http.StatusBadRequest, result.Reason)
			return
		}
	}

	// Posting into a course implies joining it
	if err := ensureMembership(h.db, req.CourseID, userID); err != nil {
		slog.Error("failed to upsert course membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	postID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate post ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO posts (id, course_id, author_id, title, body, tags, is_anon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, postID, req.CourseID, userID, req.Title, req.Body, pq.Array(req.Tags), req.IsAnon, now)

	if err != nil {
		slog.Error("failed to insert post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	slog.Info("post created", "post_id", postID, "course_id", req.CourseID, "anon", req.IsAnon)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePostResponse{
		Post: &models.Post{
			ID:        postID,
			CourseID:  req.CourseID,
			AuthorID:  userID,
			Title:     req.Title,
			Body:      req.Body,
			Tags:      req.Tags,
			IsAnon:    req.IsAnon,
			CreatedAt: now,
		},
	})
}

// Accept handles POST /posts/accept
// Marks an answer as accepted. Only the post's author may accept, and
// re-accepting replaces the previous choice.
func (h *PostHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil || userID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Session required")
		return
	}

	var req models.AcceptAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var authorID string
	err = h.db.QueryRow(`SELECT author_id FROM posts WHERE id = $1`, req.PostID).Scan(&authorID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if authorID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the post author can accept an answer")
		return
	}

	// The answer must belong to the post
	var answerExists bool
	err = h.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM answers WHERE id = $1 AND post_id = $2)`,
		req.AnswerID, req.PostID).Scan(&answerExists)
	if err != nil {
		slog.Error("failed to query answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !answerExists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Answer not found for this post")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO post_accepts (post_id, accepted_answer_id, accepted_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id) DO UPDATE SET
			accepted_answer_id = EXCLUDED.accepted_answer_id,
			accepted_by = EXCLUDED.accepted_by,
			created_at = EXCLUDED.created_at
	`, req.PostID, req.AnswerID, userID, time.Now())

	if err != nil {
		slog.Error("failed to upsert accepted answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept answer")
		return
	}

	slog.Info("answer accepted", "post_id", req.PostID, "answer_id", req.AnswerID)

	middleware.JSONResponse(w, http.StatusOK, models.AcceptAnswerResponse{Success: true})
}

// ensureMembership joins the user to a course, ignoring an existing row.
func ensureMembership(db *sql.DB, courseID, userID string) error {
	_, err := db.Exec(`
		INSERT INTO course_memberships (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO NOTHING
	`, courseID, userID)
	return err
}
