// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/studyfair/server/localstore"
	"github.com/studyfair/server/models"
	"github.com/studyfair/server/moderation"
	"github.com/studyfair/server/testutil"
)

func newPostHandler(t *testing.T) (*PostHandler, sqlmock.Sqlmock, *localstore.MemoryMedium) {
	t.Helper()
	db, mock := testutil.SetupMockDB(t)
	medium := localstore.NewMemoryMedium()
	// Keyword-only gate: no classifier endpoint configured
	h := NewPostHandler(db, testutil.GetTestConfig(), moderation.NewGate("", ""), medium)
	return h, mock, medium
}

func validPostBody() models.CreatePostRequest {
	return models.CreatePostRequest{
		CourseID: "course-1",
		Title:    "How does induction work?",
		Body:     "I cannot follow the base case in the lecture notes.",
		Tags:     []string{"proofs"},
	}
}

func TestCreatePost_RequiresIdentity(t *testing.T) {
	h, _, _ := newPostHandler(t)

	req := testutil.MakeRequest("POST", "/posts", validPostBody(), nil)
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestCreatePost_RejectsBadSessionToken(t *testing.T) {
	h, _, _ := newPostHandler(t)

	req := testutil.MakeRequest("POST", "/posts", validPostBody(), map[string]string{
		"Authorization": "Bearer not-a-real-token",
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestCreatePost_Validation(t *testing.T) {
	h, _, _ := newPostHandler(t)

	testCases := []struct {
		name string
		body models.CreatePostRequest
	}{
		{"missing course", models.CreatePostRequest{Title: "Valid title", Body: "Long enough body here"}},
		{"short title", models.CreatePostRequest{CourseID: "c1", Title: "Hi", Body: "Long enough body here"}},
		{"short body", models.CreatePostRequest{CourseID: "c1", Title: "Valid title", Body: "short"}},
		{"too many tags", models.CreatePostRequest{
			CourseID: "c1", Title: "Valid title", Body: "Long enough body here",
			Tags: []string{"a", "b", "c", "d", "e", "f"},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/posts", tc.body, map[string]string{
				"X-Visitor-Token": "visitor-a",
			})
			w := httptest.NewRecorder()

			h.Create(w, req)

			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestCreatePost_VisitorDraft(t *testing.T) {
	h, _, medium := newPostHandler(t)

	req := testutil.MakeRequest("POST", "/posts", validPostBody(), map[string]string{
		"X-Visitor-Token": "visitor-a",
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreatePostResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Draft {
		t.Error("Expected draft:true for a visitor write")
	}
	if resp.Post != nil {
		t.Error("Expected no post payload for a draft")
	}

	store := localstore.New(medium, "visitor-a")
	drafts := store.DraftPosts()
	if len(drafts) != 1 {
		t.Fatalf("Expected 1 draft post, got %d", len(drafts))
	}
	if drafts[0].Title != "How does induction work?" {
		t.Errorf("Draft title mismatch: %s", drafts[0].Title)
	}
	if drafts[0].ID == "" {
		t.Error("Expected draft to carry a generated ID")
	}
}

func TestCreatePost_Authenticated(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	mock.ExpectQuery("FROM courses").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO course_memberships").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO posts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := testutil.MakeRequest("POST", "/posts", validPostBody(), map[string]string{
		"Authorization": testutil.SessionHeader("user-1", cfg),
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreatePostResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Draft {
		t.Error("Expected an authoritative write, not a draft")
	}
	if resp.Post == nil {
		t.Fatal("Expected post payload")
	}
	if resp.Post.AuthorID != "user-1" {
		t.Errorf("Expected author user-1, got %s", resp.Post.AuthorID)
	}
}

func TestCreatePost_CourseNotFound(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	mock.ExpectQuery("FROM courses").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	req := testutil.MakeRequest("POST", "/posts", validPostBody(), map[string]string{
		"Authorization": testutil.SessionHeader("user-1", cfg),
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestCreatePost_AnonQuotaExhausted(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	body := validPostBody()
	body.IsAnon = true

	mock.ExpectQuery("FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	// One anonymous post already made today
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	req := testutil.MakeRequest("POST", "/posts", body, map[string]string{
		"Authorization": testutil.SessionHeader("user-1", cfg),
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusTooManyRequests)

	var resp models.QuotaExceededResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Limit != 1 {
		t.Errorf("Expected limit 1, got %d", resp.Limit)
	}
}

func TestCreatePost_ModerationBlocks(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	body := validPostBody()
	body.Body = "Buy my notes, definitely not a scam I promise you."

	mock.ExpectQuery("FROM courses").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := testutil.MakeRequest("POST", "/posts", body, map[string]string{
		"Authorization": testutil.SessionHeader("user-1", cfg),
	})
	w := httptest.NewRecorder()

	h.Create(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message == "" {
		t.Error("Expected a moderation reason in the message")
	}
}

func TestAcceptAnswer_RequiresSession(t *testing.T) {
	h, _, _ := newPostHandler(t)

	req := testutil.MakeRequest("POST", "/posts/accept", models.AcceptAnswerRequest{
		PostID: "post-1", AnswerID: "answer-1",
	}, nil)
	w := httptest.NewRecorder()

	h.Accept(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAcceptAnswer_PostNotFound(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	mock.ExpectQuery("SELECT author_id FROM posts").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}))

	req := testutil.MakeRequest("POST", "/posts/accept", models.AcceptAnswerRequest{
		PostID: "post-1", AnswerID: "answer-1",
	}, map[string]string{"Authorization": testutil.SessionHeader("user-1", cfg)})
	w := httptest.NewRecorder()

	h.Accept(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestAcceptAnswer_OnlyAuthor(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	mock.ExpectQuery("SELECT author_id FROM posts").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("someone-else"))

	req := testutil.MakeRequest("POST", "/posts/accept", models.AcceptAnswerRequest{
		PostID: "post-1", AnswerID: "answer-1",
	}, map[string]string{"Authorization": testutil.SessionHeader("user-1", cfg)})
	w := httptest.NewRecorder()

	h.Accept(w, req)

	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestAcceptAnswer_Success(t *testing.T) {
	h, mock, _ := newPostHandler(t)
	cfg := testutil.GetTestConfig()

	mock.ExpectQuery("SELECT author_id FROM posts").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("user-1"))
	mock.ExpectQuery("FROM answers").
		WithArgs("answer-1", "post-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO post_accepts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := testutil.MakeRequest("POST", "/posts/accept", models.AcceptAnswerRequest{
		PostID: "post-1", AnswerID: "answer-1",
	}, map[string]string{"Authorization": testutil.SessionHeader("user-1", cfg)})
	w := httptest.NewRecorder()

	h.Accept(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.AcceptAnswerResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Success {
		t.Error("Expected success:true")
	}
}
