// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/cliparse"
	"github.com/studyfair/server/localstore"
)

// SessionUserID extracts the user ID from the Authorization: Bearer header.
// Returns ("", nil) when no header is present; an error means a header was
// sent but the token failed verification.
func SessionUserID(r *http.Request, cfg cliparse.Config) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", auth.ErrInvalidToken
	}

	return auth.VerifySessionToken(token, cfg.SessionSalt)
}

// VisitorStore builds the draft store for the request's X-Visitor-Token.
// Returns nil when the header is absent.
func VisitorStore(medium localstore.Medium, r *http.Request) *localstore.Store {
	token := r.Header.Get("X-Visitor-Token")
	if token == "" {
		return nil
	}
	return localstore.New(medium, token)
}
