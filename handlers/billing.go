// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/studyfair/server/billing"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/middleware"
)

// maxWebhookBody caps webhook payload reads at 1 MiB.
const maxWebhookBody = 1 << 20

type BillingHandler struct {
	cfg       cliparse.Config
	processor *billing.Processor
}

func NewBillingHandler(db *sql.DB, cfg cliparse.Config) *BillingHandler {
	return &BillingHandler{cfg: cfg, processor: billing.NewProcessor(db)}
}

// Webhook handles POST /billing/webhook
// The payment provider signs the raw payload; anything unsigned is dropped
// before parsing.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	event, err := billing.ParseEvent(payload, signature, h.cfg.WebhookSecret)
	if errors.Is(err, billing.ErrBadSignature) {
		slog.Warn("webhook signature mismatch", "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid signature")
		return
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Malformed event payload")
		return
	}

	if err := h.processor.Apply(r.Context(), event); err != nil {
		slog.Error("failed to apply billing event", "type", event.Type, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	slog.Info("billing event applied", "type", event.Type, "user_id", event.UserID())

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
