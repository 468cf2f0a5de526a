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

type ListingHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	gate   *moderation.Gate
	medium localstore.Medium
}

func NewListingHandler(db *sql.DB, cfg cliparse.Config, gate *moderation.Gate, medium localstore.Medium) *ListingHandler {
	return &ListingHandler{db: db, cfg: cfg, gate: gate, medium: medium}
}

// Create handles POST /listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := SessionUserID(r, h.cfg)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	var req models.CreateListingRequest
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

	draft := localstore.DraftListing{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Condition:   req.Condition,
		PickupArea:  req.PickupArea,
		ImageURLs:   req.ImageURLs,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.AddDraftListing(draft); err != nil {
		slog.Error("failed to save draft listing", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save draft")
		return
	}

	slog.Info("draft listing saved", "draft_id", draft.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateListingResponse{Draft: true})
}

func (h *ListingHandler) createAuthoritative(w http.ResponseWriter, r *http.Request, userID string, req models.CreateListingRequest) {
	for _, text := range []string{req.Title, req.Description} {
		if result := h.gate.Check(r.Context(), text); result.Flagged {
			metrics.ModerationFlags.Inc()
			middleware.ErrorResponse(w, http.StatusBadRequest, result.Reason)
			return
		}
	}

	listingID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate listing ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create listing")
		return
	}

	now := time.Now()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO listings (id, seller_id, title, description, category, price_cents, condition, pickup_area, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, listingID, userID, req.Title, req.Description, req.Category, req.PriceCents,
		req.Condition, req.PickupArea, models.ListingActive, now)

	if err != nil {
		slog.Error("failed to insert listing", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create listing")
		return
	}

	for _, url := range req.ImageURLs {
		_, err = tx.Exec(`
			INSERT INTO listing_images (listing_id, storage_path)
			VALUES ($1, $2)
			ON CONFLICT (listing_id, storage_path) DO NOTHING
		`, listingID, url)
		if err != nil {
			slog.Error("failed to insert listing image", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create listing")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit listing", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create listing")
		return
	}

	slog.Info("listing created", "listing_id", listingID, "category", req.Category, "price_cents", req.PriceCents)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateListingResponse{
		Listing: &models.Listing{
			ID:           listingID,
			SellerID:     userID,
			Title:        req.Title,
			Description:  req.Description,
			Category:     req.Category,
			PriceCents:   req.PriceCents,
			PriceDisplay: models.FormatPriceCents(req.PriceCents),
			Condition:    req.Condition,
			PickupArea:   req.PickupArea,
			Status:       models.ListingActive,
			ImageURLs:    req.ImageURLs,
			CreatedAt:    now,
		},
	})
}
