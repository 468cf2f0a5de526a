// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the StudyFair API.

# Handler Types

Each handler is a struct with its dependencies injected via constructor:

  - VisitorHandler: visitor token issuance
  - PostHandler: course Q&A posts and answer acceptance
  - AnswerHandler: answers to posts
  - ListingHandler: marketplace listings
  - QuizHandler: AI study quiz generation
  - ReportHandler: content reports
  - MigrateHandler: draft-store migration after sign-up
  - BillingHandler: payment provider webhooks

Constructors take *sql.DB, Config and whatever else the handler touches:

	postHandler := handlers.NewPostHandler(db, cfg, gate, medium)

# Identity

Two identities can accompany a request:

  - Authorization: Bearer <session token> - an authenticated user. Writes
    go to the database after moderation and quota checks.
  - X-Visitor-Token - an anonymous visitor. Writes become drafts in the
    visitor's local store and replay via POST /migrate after sign-up.

A request with neither identity is rejected with 401.

# Error Mapping

Validation failures return 400, missing/bad identity 401, ownership
violations 403, missing resources 404, exhausted daily limits 429 with an
upgrade hint. Moderation blocks return 400 carrying the flag reason.
*/
package handlers
