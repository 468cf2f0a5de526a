// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/studyfair/server/auth"
)

// Event types the processor reacts to. Anything else is acknowledged and
// ignored so the provider does not retry forever.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

const StatusActive = "active"

var (
	ErrBadSignature = errors.New("webhook signature mismatch")
	ErrBadPayload   = errors.New("malformed webhook payload")
)

// Event is the subset of the provider's webhook envelope we care about.
// The user this subscription belongs to travels in the object's metadata,
// set when the checkout session was created.
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID        string `json:"id"`
			Customer  string `json:"customer"`
			Status    string `json:"status"`
			PeriodEnd int64  `json:"current_period_end"`
			Metadata  struct {
				UserID string `json:"user_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// UserID returns the application user the event's subscription belongs to.
func (e Event) UserID() string {
	return e.Data.Object.Metadata.UserID
}

// ParseEvent verifies the payload signature and decodes the envelope.
func ParseEvent(payload []byte, signature, secret string) (Event, error) {
	var event Event
	if !auth.VerifyWebhookSignature(payload, signature, secret) {
		return event, ErrBadSignature
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if event.Type == "" || event.UserID() == "" {
		return event, fmt.Errorf("%w: missing type or metadata user_id", ErrBadPayload)
	}
	return event, nil
}

// Processor applies subscription events to the database.
type Processor struct {
	db  *sql.DB
	now func() time.Time
}

func NewProcessor(db *sql.DB) *Processor {
	return &Processor{db: db, now: time.Now}
}

// Apply upserts the subscription row for the event's user. Deletion events
// downgrade by marking the row canceled rather than removing it, so billing
// history survives.
func (p *Processor) Apply(ctx context.Context, event Event) error {
	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		obj := event.Data.Object
		periodEnd := time.Unix(obj.PeriodEnd, 0).UTC()
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO subscriptions (user_id, provider_customer_id, provider_subscription_id, status, current_period_end, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				provider_customer_id = EXCLUDED.provider_customer_id,
				provider_subscription_id = EXCLUDED.provider_subscription_id,
				status = EXCLUDED.status,
				current_period_end = EXCLUDED.current_period_end,
				updated_at = NOW()`,
			event.UserID(), obj.Customer, obj.ID, obj.Status, periodEnd)
		if err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}
		return nil
	case EventSubscriptionDeleted:
		_, err := p.db.ExecContext(ctx,
			`UPDATE subscriptions SET status = 'canceled', updated_at = NOW() WHERE user_id = $1`,
			event.UserID())
		if err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		return nil
	default:
		return nil
	}
}

// IsPro reports whether the user has an active subscription whose paid
// period has not lapsed. Unknown users are free tier.
func (p *Processor) IsPro(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var status string
	var periodEnd sql.NullTime
	err := p.db.QueryRowContext(ctx,
		`SELECT status, current_period_end FROM subscriptions WHERE user_id = $1`,
		userID).Scan(&status, &periodEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if status != StatusActive {
		return false, nil
	}
	return periodEnd.Valid && periodEnd.Time.After(p.now()), nil
}
