// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package localstore is the draft store for unauthenticated visitors.

Before sign-up, everything a visitor produces (draft posts, answers, listings,
generated quizzes) and their daily usage counter live here, namespaced by
visitor token. Sign-up hands the whole namespace to the migration engine,
which replays it into the authoritative database.

# Medium

The Store reads and writes through the Medium interface so tests can
substitute an in-memory fake:

	medium, err := localstore.OpenSQLite(cfg.LocalStorePath)
	store := localstore.New(medium, visitorToken)

Two implementations ship with the package:

  - SQLiteMedium: durable single-file storage (modernc.org/sqlite)
  - MemoryMedium: map-backed, for tests

# Semantics

This is a best-effort cache, not a durable commit log:

  - Get never fails. Missing keys, corrupt values, and an unavailable medium
    all return the caller's default.
  - Set returns the write error so callers can warn the user, and logs it.
  - Append accessors read the whole collection, append one item, and write
    the collection back. Single-writer assumption; no concurrency control.
  - Every artifact-producing accessor sets the hasMeaningfulAction flag
    (idempotent), which gates the soft sign-up nudge.

# Usage Counter

Usage holds (day, count) with an implicit reset: a stored counter whose day
differs from today reads as zero. The stale row is overwritten on the next
increment, never proactively deleted.

# Snapshot and Clear

Snapshot reads every collection once; migration works off that fixed view.
Clear removes the namespace atomically enough for the single-writer model -
key by key, first error wins.
*/
package localstore
