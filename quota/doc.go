// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package quota enforces per-identity daily action budgets.

# Budgets

Two counters with different budgets and different identity scoping:

  - Quiz generation: 5/day standard, 100/day pro. The pro limit is a
    soft-unlimited ceiling, not actual "unlimited".
  - Anonymous posts: flat 1/day regardless of tier.

# Day Boundary

A counter day is the UTC date of record (YYYY-MM-DD), not the identity's
local timezone. A counter from a previous day reads as zero; the stale row is
overwritten on the next increment, never proactively deleted.

# Ledgers

Ledger checks and increments counters in the authoritative database for
authenticated identities. For anonymous visitors the server ledger is a
conservative pass-through (always reports the full limit); real anonymous
enforcement is LocalLedger over the visitor's draft store, which a visitor
can bypass by clearing local state. That is an accepted product tradeoff.

# Accepted Race

Check-then-increment is not atomic. Two concurrent requests from the same
identity within the same day can lose an update. The system promises
"approximately N per day", not exact enforcement under concurrent abuse.
*/
package quota
