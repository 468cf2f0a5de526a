// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package moderation is the accept/reject gate for user-authored text.

Every piece of text headed for the authoritative store passes through
Gate.Check, which returns a binary verdict plus a human-readable reason.
Any flag blocks the write entirely - rejected, not queued for review.

# Remote Classifier

With an endpoint configured the gate submits the text and interprets the
response (flagged boolean plus category map); flagged category names are
joined into the reason string. Network errors, timeouts, non-200 statuses,
and malformed bodies never propagate: they degrade to the local fallback
and are logged for operators.

# Local Fallback

KeywordCheck does a case-insensitive substring match against a fixed list
of disallowed terms. The first match flags with a generic reason. No
scoring, no partial matches, no context awareness - intentionally crude,
a floor not a ceiling.
*/
package moderation
