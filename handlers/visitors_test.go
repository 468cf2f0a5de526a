// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyfair/server/models"
	"github.com/studyfair/server/testutil"
)

func TestRegisterVisitor(t *testing.T) {
	handler := NewVisitorHandler(testutil.GetTestConfig())

	req := testutil.MakeRequest("POST", "/visitors/register", nil, nil)
	w := httptest.NewRecorder()

	handler.Register(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.RegisterVisitorResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.VisitorToken == "" {
		t.Error("Expected a non-empty visitor token")
	}
}

func TestRegisterVisitor_TokensAreUnique(t *testing.T) {
	handler := NewVisitorHandler(testutil.GetTestConfig())

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		req := testutil.MakeRequest("POST", "/visitors/register", nil, nil)
		w := httptest.NewRecorder()
		handler.Register(w, req)

		var resp models.RegisterVisitorResponse
		testutil.AssertJSON(t, w, &resp)

		if seen[resp.VisitorToken] {
			t.Fatalf("Duplicate visitor token issued: %s", resp.VisitorToken)
		}
		seen[resp.VisitorToken] = true
	}
}
