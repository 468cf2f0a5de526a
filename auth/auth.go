// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSession = errors.New("invalid session token")
	ErrInvalidToken   = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSessionToken creates a signed session token for a user ID supplied
// by the identity provider. The user ID is treated as an opaque string.
// Format: <userID>.<base64url HMAC-SHA256 signature>
func GenerateSessionToken(userID, salt string) string {
	return userID + "." + sign(userID, salt)
}

// VerifySessionToken validates a session token and returns the embedded user ID.
func VerifySessionToken(token, salt string) (string, error) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return "", ErrInvalidToken
	}

	userID := token[:idx]
	sig := token[idx+1:]

	expected := sign(userID, salt)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrInvalidSession
	}

	return userID, nil
}

// GenerateVisitorToken creates a random secure token for an unauthenticated
// visitor. The token namespaces the visitor's draft store until sign-up.
func GenerateVisitorToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate visitor token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

func sign(payload, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(payload))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyWebhookSignature checks an HMAC-SHA256 hex signature over a raw
// webhook payload against the shared secret.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
