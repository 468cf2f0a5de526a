// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quizgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studyfair/server/models"
)

// Target quiz shape. Responses are normalized to exactly QuestionCount
// questions with ChoiceCount choices each.
const (
	QuestionCount = 5
	ChoiceCount   = 4
)

// maxResponseSize limits the completion response body.
const maxResponseSize = 1 << 20 // 1MB

// MaxSourceTextLen bounds the stored copy of the notes.
const MaxSourceTextLen = 5000

const systemPrompt = "You are an educational quiz generator. Always respond with valid JSON only."

const instructionTemplate = `You are an educational quiz generator. Given the following study notes, create a quiz with exactly 5 multiple-choice questions.

Each question should:
1. Test understanding of key concepts from the notes
2. Have 4 answer choices labeled A, B, C, D
3. Have exactly one correct answer
4. Include a brief explanation of why the answer is correct

Respond in the following JSON format ONLY (no markdown, no extra text):
{
  "questions": [
    {
      "question": "The question text",
      "choices": ["Choice A", "Choice B", "Choice C", "Choice D"],
      "answer": 0,
      "explanation": "Brief explanation of the correct answer"
    }
  ]
}

Notes to create quiz from:
`

// Client talks to a chat-completion service. The response structure is never
// trusted: anything that fails strict shape validation is an error, and the
// caller degrades to the local fallback.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // allow time for completion responses
		},
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
	}
}

// WithHTTPClient replaces the HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type quizPayload struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// Generate asks the completion service for a quiz over the given notes.
func (c *Client) Generate(ctx context.Context, notes string) ([]models.QuizQuestion, error) {
	payload, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: instructionTemplate + notes},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("malformed completion response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("completion response has no content")
	}

	return parseQuiz(decoded.Choices[0].Message.Content)
}

// parseQuiz decodes and strictly validates the model's JSON output.
func parseQuiz(content string) ([]models.QuizQuestion, error) {
	clean := stripFences(content)

	var quiz quizPayload
	if err := json.Unmarshal([]byte(clean), &quiz); err != nil {
		return nil, fmt.Errorf("completion content is not valid quiz JSON: %w", err)
	}

	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("completion quiz has no questions")
	}
	for i, q := range quiz.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d has empty text", i+1)
		}
		if len(q.Choices) != ChoiceCount {
			return nil, fmt.Errorf("question %d has %d choices, want %d", i+1, len(q.Choices), ChoiceCount)
		}
		if q.Answer < 0 || q.Answer >= ChoiceCount {
			return nil, fmt.Errorf("question %d has answer index %d out of range", i+1, q.Answer)
		}
	}

	return quiz.Questions, nil
}

// stripFences removes markdown code fences the model sometimes wraps its
// JSON in.
func stripFences(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
