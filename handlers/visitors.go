// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/models"
)

type VisitorHandler struct {
	cfg cliparse.Config
}

func NewVisitorHandler(cfg cliparse.Config) *VisitorHandler {
	return &VisitorHandler{cfg: cfg}
}

// Register handles POST /visitors/register
// Issues a fresh visitor token that namespaces the caller's draft store.
// The token is not persisted server-side; losing it abandons the drafts.
func (h *VisitorHandler) Register(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateVisitorToken()
	if err != nil {
		slog.Error("failed to generate visitor token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register visitor")
		return
	}

	slog.Info("visitor registered", "remote", middleware.GetClientIP(r))

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVisitorResponse{
		VisitorToken: token,
	})
}
