// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/studyfair/server/auth"
	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/quota"
)

// Counts holds per-category success counters.
type Counts struct {
	Posts       int `json:"posts"`
	Answers     int `json:"answers"`
	Listings    int `json:"listings"`
	Quizzes     int `json:"quizzes"`
	Memberships int `json:"memberships"`
}

func (c Counts) Total() int {
	return c.Posts + c.Answers + c.Listings + c.Quizzes + c.Memberships
}

// Result is the outcome report of one migration run. It is returned to the
// caller and never persisted.
type Result struct {
	Success  bool     `json:"success"`
	Migrated Counts   `json:"migrated"`
	Errors   []string `json:"errors"`
}

// Engine replays a visitor's draft store into the authoritative database
// once an identity is established. Best-effort: item failures accumulate in
// the result instead of aborting the run.
type Engine struct {
	db     *sql.DB
	gate   *moderation.Gate
	ledger *quota.Ledger
	logger *slog.Logger
}

func NewEngine(db *sql.DB, gate *moderation.Gate, ledger *quota.Ledger) *Engine {
	return &Engine{
		db:     db,
		gate:   gate,
		ledger: ledger,
		logger: slog.Default(),
	}
}

// Run migrates everything in the store to userID. The store snapshot is
// taken once up front; local writes racing with the migration are ignored.
//
// The local store is cleared only when every item migrated cleanly AND at
// least one item moved. A run over an empty store leaves local state
// untouched - "nothing to do" is not treated as success for clearing.
//
// Failed items are not retried. The underlying writes carry no idempotency
// key, so re-running after a partial failure can duplicate rows.
func (e *Engine) Run(ctx context.Context, store *localstore.Store, userID string) Result {
	snap := store.Snapshot()
	result := Result{Errors: []string{}}

	e.migrateMemberships(ctx, snap.SelectedCourseIDs, userID, &result)
	e.migratePosts(ctx, snap.DraftPosts, userID, &result)
	e.migrateAnswers(ctx, snap.DraftAnswers, userID, &result)
	e.migrateListings(ctx, snap.DraftListings, userID, &result)
	e.migrateQuizzes(ctx, snap.Quizzes, userID, &result)

	result.Success = len(result.Errors) == 0

	if result.Success && result.Migrated.Total() > 0 {
		if err := store.Clear(); err != nil {
			e.logger.Warn("failed to clear local store after migration", "user_id", userID, "error", err)
		}
	}

	e.logger.Info("migration finished",
		"user_id", userID,
		"migrated", result.Migrated.Total(),
		"errors", len(result.Errors),
	)

	return result
}

// migrateMemberships runs one batched insert-or-ignore. All-or-nothing for
// this sub-step: a batch failure records a single aggregate error.
func (e *Engine) migrateMemberships(ctx context.Context, courseIDs []string, userID string, result *Result) {
	if len(courseIDs) == 0 {
		return
	}

	placeholders := make([]string, 0, len(courseIDs))
	args := make([]any, 0, 2*len(courseIDs))
	for i, courseID := range courseIDs {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", 2*i+1, 2*i+2))
		args = append(args, courseID, userID)
	}

	query := "INSERT INTO course_memberships (course_id, user_id) VALUES " +
		strings.Join(placeholders, ", ") +
		" ON CONFLICT (course_id, user_id) DO NOTHING"

	if _, err := e.db.ExecContext(ctx, query, args...); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate memberships: %v", err))
		return
	}
	result.Migrated.Memberships = len(courseIDs)
}

func (e *Engine) migratePosts(ctx context.Context, posts []localstore.DraftPost, userID string, result *Result) {
	for _, post := range posts {
		if mod := e.gate.Check(ctx, post.Title); mod.Flagged {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: %s", post.Title, mod.Reason))
			continue
		}
		if mod := e.gate.Check(ctx, post.Body); mod.Flagged {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: %s", post.Title, mod.Reason))
			continue
		}

		if post.IsAnon {
			q, err := e.ledger.CheckAnonPost(ctx, userID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: %v", post.Title, err))
				continue
			}
			if !q.Allowed {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: daily anonymous post limit reached", post.Title))
				continue
			}
		}

		id, err := auth.GenerateID(16)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: %v", post.Title, err))
			continue
		}

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO posts (id, course_id, author_id, title, body, tags, is_anon, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, post.CourseID, userID, post.Title, post.Body, pq.Array(post.Tags), post.IsAnon, time.Now())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate post %q: %v", post.Title, err))
			continue
		}
		result.Migrated.Posts++
	}
}

func (e *Engine) migrateAnswers(ctx context.Context, answers []localstore.DraftAnswer, userID string, result *Result) {
	for _, answer := range answers {
		if mod := e.gate.Check(ctx, answer.Body); mod.Flagged {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate answer: %s", mod.Reason))
			continue
		}

		id, err := auth.GenerateID(16)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate answer: %v", err))
			continue
		}

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO answers (id, post_id, author_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, id, answer.PostID, userID, answer.Body, time.Now())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate answer: %v", err))
			continue
		}
		result.Migrated.Answers++
	}
}

func (e *Engine) migrateListings(ctx context.Context, listings []localstore.DraftListing, userID string, result *Result) {
	for _, listing := range listings {
		if mod := e.gate.Check(ctx, listing.Title); mod.Flagged {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate listing %q: %s", listing.Title, mod.Reason))
			continue
		}
		if mod := e.gate.Check(ctx, listing.Description); mod.Flagged {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate listing %q: %s", listing.Title, mod.Reason))
			continue
		}

		id, err := auth.GenerateID(16)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate listing %q: %v", listing.Title, err))
			continue
		}

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO listings (id, seller_id, title, description, category, price_cents, condition, pickup_area, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active', $9)
		`, id, userID, listing.Title, listing.Description, listing.Category, listing.PriceCents, listing.Condition, listing.PickupArea, time.Now())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate listing %q: %v", listing.Title, err))
			continue
		}
		result.Migrated.Listings++
	}
}

func (e *Engine) migrateQuizzes(ctx context.Context, quizzes []localstore.Quiz, userID string, result *Result) {
	for _, quiz := range quizzes {
		questions, err := json.Marshal(quiz.Questions)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate quiz: %v", err))
			continue
		}

		id, err := auth.GenerateID(16)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate quiz: %v", err))
			continue
		}

		var courseID sql.NullString
		if quiz.CourseID != "" {
			courseID = sql.NullString{String: quiz.CourseID, Valid: true}
		}

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO ai_quizzes (id, user_id, course_id, source_text, questions, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, userID, courseID, quiz.SourceText, questions, time.Now())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to migrate quiz: %v", err))
			continue
		}
		result.Migrated.Quizzes++
	}
}
