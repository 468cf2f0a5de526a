// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quizgen

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/studyfair/server/models"
)

const placeholderExplanation = "This is a placeholder question. Configure a completion service for better quiz generation."

// Generator produces quizzes, preferring the remote completion service and
// degrading to the local heuristic when the service is unconfigured,
// unreachable, or returns a malformed shape.
type Generator struct {
	client *Client // nil when no completion endpoint is configured
	logger *slog.Logger
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client, logger: slog.Default()}
}

// Generate returns exactly QuestionCount questions. The second return value
// reports whether the local fallback produced them.
func (g *Generator) Generate(ctx context.Context, notes string) ([]models.QuizQuestion, bool) {
	if g.client != nil {
		questions, err := g.client.Generate(ctx, notes)
		if err == nil {
			return Normalize(questions), false
		}
		g.logger.Warn("completion service failed, using fallback generator", "error", err)
	}
	return Fallback(notes), true
}

// Normalize enforces the target shape: more than QuestionCount questions are
// truncated, fewer are padded with placeholders.
func Normalize(questions []models.QuizQuestion) []models.QuizQuestion {
	if len(questions) > QuestionCount {
		questions = questions[:QuestionCount]
	}
	for len(questions) < QuestionCount {
		questions = append(questions, placeholderQuestion(len(questions)+1))
	}
	return questions
}

// Fallback derives placeholder questions by sentence-splitting the notes.
// Always returns exactly QuestionCount questions with ChoiceCount choices
// and a valid answer index, even for inputs with no usable sentences.
func Fallback(notes string) []models.QuizQuestion {
	sentences := splitSentences(notes)

	var questions []models.QuizQuestion
	for _, sentence := range sentences {
		if len(questions) == QuestionCount {
			break
		}

		words := usableWords(sentence)
		if len(words) < 3 {
			continue
		}

		keyword := words[rand.IntN(len(words))]
		choices := []string{
			keyword,
			"None of the above",
			"All of the above",
			"This is incorrect",
		}
		answer := shuffleChoices(choices)

		questions = append(questions, models.QuizQuestion{
			Question:    fmt.Sprintf("Based on the notes, which concept relates to: %q?", truncate(sentence, 60)),
			Choices:     choices,
			Answer:      answer,
			Explanation: placeholderExplanation,
		})
	}

	return Normalize(questions)
}

func placeholderQuestion(n int) models.QuizQuestion {
	return models.QuizQuestion{
		Question:    fmt.Sprintf("Review question %d: What is an important concept from these notes?", n),
		Choices:     []string{"Concept A", "Concept B", "Concept C", "Concept D"},
		Answer:      0,
		Explanation: placeholderExplanation,
	}
}

func splitSentences(notes string) []string {
	parts := strings.FieldsFunc(notes, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var sentences []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); len(s) > 10 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func usableWords(sentence string) []string {
	var words []string
	for _, w := range strings.Fields(sentence) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// shuffleChoices shuffles in place and returns the new index of the choice
// that was first (the correct one).
func shuffleChoices(choices []string) int {
	correct := choices[0]
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	for i, c := range choices {
		if c == correct {
			return i
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TruncateSource bounds the notes text stored alongside a quiz.
func TruncateSource(notes string) string {
	if len(notes) <= MaxSourceTextLen {
		return notes
	}
	return notes[:MaxSourceTextLen]
}
