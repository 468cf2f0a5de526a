// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/quota"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// No classifier endpoint: the gate uses the keyword fallback only.
	gate := moderation.NewGate("", "")
	return NewEngine(db, gate, quota.NewLedger(db)), mock
}

func newVisitorStore() *localstore.Store {
	return localstore.New(localstore.NewMemoryMedium(), "visitor-a")
}

func TestRunEmptyStoreLeavesLocalStateUntouched(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	// A non-draft key that Clear would remove if it ran
	require.NoError(t, store.DismissSignupPrompt())

	result := engine.Run(context.Background(), store, "user-1")

	assert.True(t, result.Success)
	assert.Equal(t, Counts{}, result.Migrated)
	assert.Empty(t, result.Errors)

	// Zero migrated means no clear, even with zero errors
	assert.True(t, store.HasDismissedSignupPrompt())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigratesAllCategoriesAndClears(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.SetSelectedCourseIDs([]string{"course-1", "course-2"}))
	require.NoError(t, store.AddDraftPost(localstore.DraftPost{
		ID: "p1", CourseID: "course-1", Title: "How do integrals work?", Body: "I missed the lecture on integration.",
	}))
	require.NoError(t, store.AddDraftAnswer(localstore.DraftAnswer{
		ID: "a1", PostID: "post-9", Body: "The chain rule applies here.",
	}))
	require.NoError(t, store.AddDraftListing(localstore.DraftListing{
		ID: "l1", Title: "Desk lamp for sale", Description: "Barely used lamp.", Category: "furniture", PriceCents: 1500,
	}))
	require.NoError(t, store.AddQuiz(localstore.Quiz{
		ID: "q1", SourceText: "Energy flows through ecosystems.",
	}))

	mock.ExpectExec("INSERT INTO course_memberships").
		WithArgs("course-1", "user-1", "course-2", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO posts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO answers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO listings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ai_quizzes").WillReturnResult(sqlmock.NewResult(0, 1))

	result := engine.Run(context.Background(), store, "user-1")

	assert.True(t, result.Success)
	assert.Equal(t, Counts{Posts: 1, Answers: 1, Listings: 1, Quizzes: 1, Memberships: 2}, result.Migrated)
	assert.Empty(t, result.Errors)

	// Clean run with items moved: local state is gone
	assert.Empty(t, store.DraftPosts())
	assert.Empty(t, store.SelectedCourseIDs())
	assert.False(t, store.HasMeaningfulAction())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPartialFailureKeepsLocalState(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.AddDraftPost(localstore.DraftPost{
		ID: "p1", CourseID: "course-1", Title: "Valid course question", Body: "This one goes through fine.",
	}))
	require.NoError(t, store.AddDraftPost(localstore.DraftPost{
		ID: "p2", CourseID: "course-missing", Title: "Orphaned question", Body: "This references a deleted course.",
	}))

	mock.ExpectExec("INSERT INTO posts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO posts").
		WillReturnError(errors.New(`insert or update on table "posts" violates foreign key constraint`))

	result := engine.Run(context.Background(), store, "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Migrated.Posts)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `"Orphaned question"`)

	// Errors present: nothing is cleared, the failed item can be retried
	assert.Len(t, store.DraftPosts(), 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMembershipBatchFailureIsOneAggregateError(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.SetSelectedCourseIDs([]string{"c1", "c2", "c3"}))

	mock.ExpectExec("INSERT INTO course_memberships").
		WillReturnError(errors.New("connection refused"))

	result := engine.Run(context.Background(), store, "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Migrated.Memberships)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to migrate memberships")
}

func TestRunModerationRejectsFlaggedItems(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.AddDraftPost(localstore.DraftPost{
		ID: "p1", CourseID: "course-1", Title: "Totally legit offer", Body: "This is not a scam, I promise.",
	}))
	require.NoError(t, store.AddDraftListing(localstore.DraftListing{
		ID: "l1", Title: "Clean listing title", Description: "A perfectly ordinary desk.", Category: "furniture",
	}))

	// Only the listing reaches the database
	mock.ExpectExec("INSERT INTO listings").WillReturnResult(sqlmock.NewResult(0, 1))

	result := engine.Run(context.Background(), store, "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Migrated.Posts)
	assert.Equal(t, 1, result.Migrated.Listings)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `"Totally legit offer"`)

	assert.Len(t, store.DraftPosts(), 1, "flagged draft stays local")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAnonPostQuotaEnforced(t *testing.T) {
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.AddDraftPost(localstore.DraftPost{
		ID: "p1", CourseID: "course-1", Title: "Anonymous question here", Body: "Please keep my name out of this.", IsAnon: true,
	}))

	// Identity already used today's anonymous post
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM posts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	result := engine.Run(context.Background(), store, "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Migrated.Posts)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "daily anonymous post limit reached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSingleCategoryClearRule(t *testing.T) {
	// The clear rule holds when only one of five categories had items.
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.AddDraftAnswer(localstore.DraftAnswer{
		ID: "a1", PostID: "post-9", Body: "Check chapter four for this.",
	}))

	mock.ExpectExec("INSERT INTO answers").WillReturnResult(sqlmock.NewResult(0, 1))

	result := engine.Run(context.Background(), store, "user-1")

	assert.True(t, result.Success)
	assert.Equal(t, Counts{Answers: 1}, result.Migrated)
	assert.Empty(t, store.DraftAnswers())
	assert.False(t, store.HasMeaningfulAction())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRereportsOnSecondInvocation(t *testing.T) {
	// Migration is idempotent in reporting: a second run over the cleared
	// store returns all zeros and no errors.
	engine, mock := newTestEngine(t)
	store := newVisitorStore()

	require.NoError(t, store.AddDraftAnswer(localstore.DraftAnswer{
		ID: "a1", PostID: "post-9", Body: "Check chapter four for this.",
	}))
	mock.ExpectExec("INSERT INTO answers").WillReturnResult(sqlmock.NewResult(0, 1))

	first := engine.Run(context.Background(), store, "user-1")
	require.True(t, first.Success)

	second := engine.Run(context.Background(), store, "user-1")
	assert.True(t, second.Success)
	assert.Equal(t, Counts{}, second.Migrated)
	assert.Empty(t, second.Errors)
}
