// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studyfair/server/localstore"
)

// Daily action budgets.
//
// ProDailyQuizLimit is a soft-unlimited ceiling, not a marketing-accurate
// "unlimited": a pro user who generates 100 quizzes in a day is cut off.
const (
	FreeDailyQuizLimit = 5
	ProDailyQuizLimit  = 100
	AnonPostDailyLimit = 1
)

// Quota is the outcome of a budget check.
type Quota struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// QuizLimit returns the daily generation budget for a tier.
func QuizLimit(pro bool) int {
	if pro {
		return ProDailyQuizLimit
	}
	return FreeDailyQuizLimit
}

// Ledger enforces per-identity daily budgets against the authoritative store.
//
// The check-then-increment sequence is not atomic: two concurrent requests
// from the same identity can race and lose an update. The system promises
// "approximately N per day", not exact enforcement under concurrent abuse.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Today returns the counter day: the UTC date of record, not the identity's
// local timezone.
func (l *Ledger) Today() string {
	return l.now().UTC().Format("2006-01-02")
}

// CheckQuiz reports whether the identity may generate another quiz today.
// An empty userID means an anonymous visitor: the server has no counter for
// them and reports the full limit - real enforcement is the visitor-local
// ledger, which is client-trust-based by design.
func (l *Ledger) CheckQuiz(ctx context.Context, userID string, pro bool) (Quota, error) {
	limit := QuizLimit(pro)

	if userID == "" {
		return Quota{Allowed: true, Remaining: limit, Limit: limit}, nil
	}

	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT count FROM ai_usage_daily WHERE user_id = $1 AND day = $2",
		userID, l.Today(),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		count = 0
	} else if err != nil {
		return Quota{}, fmt.Errorf("failed to read usage counter: %w", err)
	}

	remaining := max(0, limit-count)
	return Quota{Allowed: remaining > 0, Remaining: remaining, Limit: limit}, nil
}

// IncrementQuiz bumps the identity's counter for today, creating the row if
// absent. Stale rows from previous days are left in place.
func (l *Ledger) IncrementQuiz(ctx context.Context, userID string) error {
	today := l.Today()

	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT count FROM ai_usage_daily WHERE user_id = $1 AND day = $2",
		userID, today,
	).Scan(&count)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = l.db.ExecContext(ctx,
			"INSERT INTO ai_usage_daily (user_id, day, count) VALUES ($1, $2, 1)",
			userID, today,
		)
	case err == nil:
		_, err = l.db.ExecContext(ctx,
			"UPDATE ai_usage_daily SET count = $3 WHERE user_id = $1 AND day = $2",
			userID, today, count+1,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

// CheckAnonPost reports whether the identity may create another anonymous
// post today. The limit is flat regardless of tier.
func (l *Ledger) CheckAnonPost(ctx context.Context, userID string) (Quota, error) {
	dayStart := l.now().UTC().Truncate(24 * time.Hour)

	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE author_id = $1 AND is_anon = TRUE AND created_at >= $2",
		userID, dayStart,
	).Scan(&count)
	if err != nil {
		return Quota{}, fmt.Errorf("failed to count anonymous posts: %w", err)
	}

	remaining := max(0, AnonPostDailyLimit-count)
	return Quota{Allowed: remaining > 0, Remaining: remaining, Limit: AnonPostDailyLimit}, nil
}

// LocalLedger mirrors the quiz budget for anonymous visitors over their
// draft store counter. The server trusts this counter; visitors can clear it.
type LocalLedger struct {
	store *localstore.Store
	now   func() time.Time
}

func NewLocalLedger(store *localstore.Store) *LocalLedger {
	return &LocalLedger{store: store, now: time.Now}
}

func (l *LocalLedger) today() string {
	return l.now().UTC().Format("2006-01-02")
}

func (l *LocalLedger) CheckQuiz() Quota {
	limit := FreeDailyQuizLimit
	usage := l.store.Usage(l.today())
	remaining := max(0, limit-usage.Count)
	return Quota{Allowed: remaining > 0, Remaining: remaining, Limit: limit}
}

func (l *LocalLedger) IncrementQuiz() error {
	_, err := l.store.IncrementUsage(l.today())
	return err
}
