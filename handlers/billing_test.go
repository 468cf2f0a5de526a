// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/studyfair/server/testutil"
)

const subscriptionCreatedPayload = `{
	"type": "customer.subscription.created",
	"data": {"object": {
		"id": "sub_1",
		"customer": "cus_9",
		"status": "active",
		"current_period_end": 1777000000,
		"metadata": {"user_id": "user-1"}
	}}
}`

func signPayload(payload, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func webhookRequest(payload, signature string) *http.Request {
	req := httptest.NewRequest("POST", "/billing/webhook", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	return req
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	db, _ := testutil.SetupMockDB(t)
	h := NewBillingHandler(db, testutil.GetTestConfig())

	req := webhookRequest(subscriptionCreatedPayload, "deadbeef")
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestWebhook_RejectsMalformedPayload(t *testing.T) {
	db, _ := testutil.SetupMockDB(t)
	cfg := testutil.GetTestConfig()
	h := NewBillingHandler(db, cfg)

	payload := `{"type":"customer.subscription.created","data":{"object":{}}}`
	req := webhookRequest(payload, signPayload(payload, cfg.WebhookSecret))
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestWebhook_AppliesSubscription(t *testing.T) {
	db, mock := testutil.SetupMockDB(t)
	cfg := testutil.GetTestConfig()
	h := NewBillingHandler(db, cfg)

	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := webhookRequest(subscriptionCreatedPayload, signPayload(subscriptionCreatedPayload, cfg.WebhookSecret))
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestWebhook_IgnoresUnknownEventTypes(t *testing.T) {
	db, _ := testutil.SetupMockDB(t)
	cfg := testutil.GetTestConfig()
	h := NewBillingHandler(db, cfg)

	payload := `{"type":"invoice.paid","data":{"object":{"metadata":{"user_id":"user-1"}}}}`
	req := webhookRequest(payload, signPayload(payload, cfg.WebhookSecret))
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	// Acknowledged without touching the database
	testutil.AssertStatus(t, w, http.StatusOK)
}
