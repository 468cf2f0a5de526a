// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package billing ingests payment-provider webhook events and answers the
// one question the rest of the app cares about: is this user on Pro.
package billing
