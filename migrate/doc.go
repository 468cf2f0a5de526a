// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package migrate replays a visitor's local drafts into the database after
// sign-in. Categories run in a fixed order and every item is attempted
// best-effort; the local store is cleared only after a fully clean run that
// moved at least one item.
package migrate
