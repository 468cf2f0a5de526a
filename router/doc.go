// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the StudyFair API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, medium)

# Endpoints

Health and observability:

	GET /health
	GET /metrics

Anonymous identity:

	POST /visitors/register - Issue a visitor token

Course Q&A:

	POST /posts        - Create post (or visitor draft)
	POST /posts/accept - Accept an answer (author only)
	POST /answers      - Create answer (or visitor draft)

Marketplace:

	POST /listings - Create listing (or visitor draft)

Study quizzes:

	POST /ai/quiz - Generate a quiz (daily limit applies)

Moderation and migration:

	POST /reports - Report content
	POST /migrate - Replay visitor drafts into an account

Billing:

	POST /billing/webhook - Signed payment provider events

# Handler Initialization

The router wires shared services (moderation gate, quiz generator,
migration engine) and injects them into the handlers. The localstore
medium backs the per-visitor draft namespaces.
*/
package router
