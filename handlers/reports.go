// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/models"
)

type ReportHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewReportHandler(db *sql.DB, cfg cliparse.Config) *ReportHandler {
	return &ReportHandler{db: db, cfg: cfg}
}

// Create handles POST /reports
// One report per reporter per target; duplicates are rejected.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil || userID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Session required")
		return
	}

	var req models.CreateReportRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var exists bool
	err = h.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM reports
			WHERE reporter_id = $1 AND target_type = $2 AND target_id = $3
		)
	`, userID, req.TargetType, req.TargetID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query reports", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You have already reported this content")
		return
	}

	reportID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate report ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO reports (id, reporter_id, target_type, target_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reportID, userID, req.TargetType, req.TargetID, req.Reason, now)

	if err != nil {
		slog.Error("failed to insert report", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	slog.Info("report created", "report_id", reportID, "target_type", req.TargetType, "target_id", req.TargetID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateReportResponse{
		Report: &models.Report{
			ID:         reportID,
			ReporterID: userID,
			TargetType: req.TargetType,
			TargetID:   req.TargetID,
			Reason:     req.Reason,
			CreatedAt:  now,
		},
		Message: "Report received. Our moderators will review it shortly.",
	})
}
