// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the StudyFair API server.

StudyFair is a campus web app backend: course Q&A, AI-generated study
quizzes, a student marketplace and subscription billing. Visitors can try
everything before signing up; their work lives in a per-visitor draft store
and migrates into their account on sign-up.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... SESSION_SALT=... go run .

Or with flags:

	go run . -p 3324 -d "postgres://..." -session-salt "..."

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - SESSION_SALT (-session-salt): Secret for session token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3324)
  - LOCAL_STORE_PATH (-local-store): SQLite file for visitor drafts
  - BILLING_WEBHOOK_SECRET (-webhook-secret): Payment webhook HMAC secret
  - COMPLETION_API_URL/KEY, COMPLETION_MODEL: Quiz completion service
  - MODERATION_API_URL/KEY: Remote moderation classifier

Without a completion endpoint, quizzes come from the local fallback
generator; without a moderation endpoint, the keyword filter applies.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (posts, answers, listings, quizzes,
    reports, migration, billing)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, JSON helpers
  - models: Request/response types and validation
  - auth: Token generation and validation
  - localstore: Per-visitor draft store (SQLite key-value)
  - quota: Daily usage ledgers
  - migrate: Draft-to-account migration engine
  - moderation: Content moderation gate
  - quizgen: Quiz generation client and fallback
  - billing: Subscription webhook processing
  - metrics: Prometheus instruments
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
