// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/migrate"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/quota"
	"github.com/studyfair/server/testutil"
)

func newMigrateHandler(t *testing.T) (*MigrateHandler, sqlmock.Sqlmock, *localstore.MemoryMedium) {
	t.Helper()
	db, mock := testutil.SetupMockDB(t)
	medium := localstore.NewMemoryMedium()
	engine := migrate.NewEngine(db, moderation.NewGate("", ""), quota.NewLedger(db))
	h := NewMigrateHandler(testutil.GetTestConfig(), engine, medium)
	return h, mock, medium
}

func TestMigrate_RequiresSession(t *testing.T) {
	h, _, _ := newMigrateHandler(t)

	req := testutil.MakeRequest("POST", "/migrate", nil, map[string]string{
		"X-Visitor-Token": "visitor-a",
	})
	w := httptest.NewRecorder()

	h.Run(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestMigrate_RequiresVisitorToken(t *testing.T) {
	h, _, _ := newMigrateHandler(t)
	cfg := testutil.GetTestConfig()

	req := testutil.MakeRequest("POST", "/migrate", nil, map[string]string{
		"Authorization": testutil.SessionHeader("user-1", cfg),
	})
	w := httptest.NewRecorder()

	h.Run(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestMigrate_EmptyStore(t *testing.T) {
	h, _, _ := newMigrateHandler(t)
	cfg := testutil.GetTestConfig()

	req := testutil.MakeRequest("POST", "/migrate", nil, map[string]string{
		"Authorization":   testutil.SessionHeader("user-1", cfg),
		"X-Visitor-Token": "visitor-a",
	})
	w := httptest.NewRecorder()

	h.Run(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var result migrate.Result
	testutil.AssertJSON(t, w, &result)
	if !result.Success {
		t.Error("Expected success for an empty store")
	}
	if result.Migrated.Total() != 0 {
		t.Errorf("Expected zero migrations, got %d", result.Migrated.Total())
	}
}

func TestMigrate_ReplaysDrafts(t *testing.T) {
	h, mock, medium := newMigrateHandler(t)
	cfg := testutil.GetTestConfig()

	store := localstore.New(medium, "visitor-a")
	if err := store.AddDraftAnswer(localstore.DraftAnswer{
		ID: "a1", PostID: "post-9", Body: "Try substituting u = x squared first.",
	}); err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec("INSERT INTO answers").WillReturnResult(sqlmock.NewResult(0, 1))

	req := testutil.MakeRequest("POST", "/migrate", nil, map[string]string{
		"Authorization":   testutil.SessionHeader("user-1", cfg),
		"X-Visitor-Token": "visitor-a",
	})
	w := httptest.NewRecorder()

	h.Run(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var result migrate.Result
	testutil.AssertJSON(t, w, &result)
	if result.Migrated.Answers != 1 {
		t.Errorf("Expected 1 migrated answer, got %d", result.Migrated.Answers)
	}

	// Clean run: the draft store is emptied
	if got := len(store.DraftAnswers()); got != 0 {
		t.Errorf("Expected empty draft store after migration, got %d answers", got)
	}
}
