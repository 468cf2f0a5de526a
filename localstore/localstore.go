// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package localstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyfair/server/models"
)

// Storage keys, namespaced per visitor by the Store prefix.
const (
	KeySelectedCourseIDs = "selectedCourseIds"
	KeyDraftPosts        = "draftPosts"
	KeyDraftAnswers      = "draftAnswers"
	KeyDraftListings     = "draftListings"
	KeyQuizzes           = "aiQuizzes"
	KeyUsage             = "aiUsage"
	KeyMeaningfulAction  = "hasMeaningfulAction"
	KeyDismissedPrompt   = "dismissedSignupPrompt"
)

var allKeys = []string{
	KeySelectedCourseIDs,
	KeyDraftPosts,
	KeyDraftAnswers,
	KeyDraftListings,
	KeyQuizzes,
	KeyUsage,
	KeyMeaningfulAction,
	KeyDismissedPrompt,
}

// Local draft entities. These live in the draft store only until migration
// moves them into the authoritative database.

type DraftPost struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	IsAnon    bool      `json:"is_anon"`
	CreatedAt time.Time `json:"created_at"`
}

type DraftAnswer struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type DraftListing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Condition   string    `json:"condition"`
	PickupArea  string    `json:"pickup_area"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

type Quiz struct {
	ID         string                `json:"id"`
	CourseID   string                `json:"course_id,omitempty"`
	SourceText string                `json:"source_text"`
	Questions  []models.QuizQuestion `json:"questions"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Usage is the per-day action counter. Day is a UTC date string; a stored
// counter from a previous day counts as zero.
type Usage struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Snapshot is a one-shot read of everything migration cares about.
type Snapshot struct {
	SelectedCourseIDs []string
	DraftPosts        []DraftPost
	DraftAnswers      []DraftAnswer
	DraftListings     []DraftListing
	Quizzes           []Quiz
}

// Store is a namespaced JSON view over a Medium. One Store per visitor.
type Store struct {
	medium Medium
	prefix string
	logger *slog.Logger
}

// New creates a Store over medium, namespaced by the visitor token.
func New(medium Medium, visitorToken string) *Store {
	return &Store{
		medium: medium,
		prefix: "sf:" + visitorToken + ":",
		logger: slog.Default(),
	}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get reads and decodes a value. A missing key, corrupt content, or an
// unavailable medium all yield the default - Get never fails.
func Get[T any](s *Store, key string, def T) T {
	raw, ok := s.medium.Get(s.key(key))
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("corrupt local store value, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Set encodes and writes a value. The error is returned so callers can
// surface write failures, and logged for operators either way.
func Set[T any](s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode local store value %q: %w", key, err)
	}
	if err := s.medium.Set(s.key(key), string(raw)); err != nil {
		s.logger.Warn("local store write failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *Store) SelectedCourseIDs() []string {
	return Get(s, KeySelectedCourseIDs, []string{})
}

func (s *Store) SetSelectedCourseIDs(ids []string) error {
	return Set(s, KeySelectedCourseIDs, ids)
}

func (s *Store) DraftPosts() []DraftPost {
	return Get(s, KeyDraftPosts, []DraftPost{})
}

func (s *Store) AddDraftPost(post DraftPost) error {
	posts := append(s.DraftPosts(), post)
	if err := Set(s, KeyDraftPosts, posts); err != nil {
		return err
	}
	s.MarkMeaningfulAction()
	return nil
}

func (s *Store) DraftAnswers() []DraftAnswer {
	return Get(s, KeyDraftAnswers, []DraftAnswer{})
}

func (s *Store) AddDraftAnswer(answer DraftAnswer) error {
	answers := append(s.DraftAnswers(), answer)
	if err := Set(s, KeyDraftAnswers, answers); err != nil {
		return err
	}
	s.MarkMeaningfulAction()
	return nil
}

func (s *Store) DraftListings() []DraftListing {
	return Get(s, KeyDraftListings, []DraftListing{})
}

func (s *Store) AddDraftListing(listing DraftListing) error {
	listings := append(s.DraftListings(), listing)
	if err := Set(s, KeyDraftListings, listings); err != nil {
		return err
	}
	s.MarkMeaningfulAction()
	return nil
}

func (s *Store) Quizzes() []Quiz {
	return Get(s, KeyQuizzes, []Quiz{})
}

func (s *Store) AddQuiz(quiz Quiz) error {
	quizzes := append(s.Quizzes(), quiz)
	if err := Set(s, KeyQuizzes, quizzes); err != nil {
		return err
	}
	s.MarkMeaningfulAction()
	return nil
}

// Usage returns the counter for today, treating a stale day as zero. The
// stale row is not deleted; the next increment overwrites it.
func (s *Store) Usage(today string) Usage {
	u := Get(s, KeyUsage, Usage{Day: today})
	if u.Day != today {
		return Usage{Day: today}
	}
	return u
}

func (s *Store) IncrementUsage(today string) (Usage, error) {
	u := s.Usage(today)
	u.Count++
	if err := Set(s, KeyUsage, u); err != nil {
		return u, err
	}
	return u, nil
}

func (s *Store) HasMeaningfulAction() bool {
	return Get(s, KeyMeaningfulAction, false)
}

// MarkMeaningfulAction flags that the visitor produced an artifact. Idempotent;
// downstream this gates the soft sign-up nudge. Best-effort write.
func (s *Store) MarkMeaningfulAction() {
	_ = Set(s, KeyMeaningfulAction, true)
}

func (s *Store) HasDismissedSignupPrompt() bool {
	return Get(s, KeyDismissedPrompt, false)
}

func (s *Store) DismissSignupPrompt() error {
	return Set(s, KeyDismissedPrompt, true)
}

// Snapshot reads every collection once. Migration operates on this fixed
// view and ignores local writes that race with it.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		SelectedCourseIDs: s.SelectedCourseIDs(),
		DraftPosts:        s.DraftPosts(),
		DraftAnswers:      s.DraftAnswers(),
		DraftListings:     s.DraftListings(),
		Quizzes:           s.Quizzes(),
	}
}

// Clear removes every key in this Store's namespace.
func (s *Store) Clear() error {
	var firstErr error
	for _, k := range allKeys {
		if err := s.medium.Remove(s.key(k)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
