// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/middleware"
	"github.com/studyfair/server/migrate"
)

type MigrateHandler struct {
	cfg    cliparse.Config
	engine *migrate.Engine
	medium localstore.Medium
}

func NewMigrateHandler(cfg cliparse.Config, engine *migrate.Engine, medium localstore.Medium) *MigrateHandler {
	return &MigrateHandler{cfg: cfg, engine: engine, medium: medium}
}

// Run handles POST /migrate
// Replays the visitor's draft store into the caller's account. Requires
// both a valid session and the visitor token that owns the drafts.
func (h *MigrateHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil || userID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Session required")
		return
	}

	store := VisitorStore(h.medium, r)
	if store == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Visitor-Token header required")
		return
	}

	result := h.engine.Run(r.Context(), store, userID)

	slog.Info("migration requested",
		"user_id", userID,
		"migrated", result.Migrated.Total(),
		"errors", len(result.Errors),
	)

	middleware.JSONResponse(w, http.StatusOK, result)
}
