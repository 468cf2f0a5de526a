// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema

CreateSchema creates all tables with IF NOT EXISTS (idempotent):

	err := db.CreateSchema(dbConn)

# Tables

  - courses: course catalog
  - course_memberships: (course_id, user_id) unique pairs
  - posts: course Q&A posts with tags and is_anon flag
  - answers: answers to posts
  - post_accepts: one accepted answer per post
  - listings, listing_images: marketplace
  - reports: one report per reporter per target
  - ai_quizzes: generated quizzes (questions stored as JSONB)
  - ai_usage_daily: per-user per-day generation counters, unique (user_id, day)
  - subscriptions: billing tier state synced from webhooks

User IDs are opaque strings from the external identity provider, so user-side
columns are plain TEXT without foreign keys.
*/
package db
