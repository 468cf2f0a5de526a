// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and validation utilities.

# Session Tokens

Session tokens bind an opaque user ID (issued by the external identity
provider) to an HMAC-SHA256 signature:

	token := auth.GenerateSessionToken(userID, salt)
	userID, err := auth.VerifySessionToken(token, salt)

The server never interprets the user ID; it only checks the signature. Since
the token is deterministic, validation requires no database lookup.

# Visitor Tokens

Visitor tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateVisitorToken()

A visitor token namespaces an unauthenticated visitor's draft store. It is
issued once per device via POST /visitors/register and sent back on later
requests in the X-Visitor-Token header.

# Row IDs

GenerateID produces random hex identifiers for database rows:

	id, err := auth.GenerateID(16) // 32 hex chars

# Webhook Signatures

Billing webhook payloads carry an HMAC-SHA256 hex signature:

	ok := auth.VerifyWebhookSignature(body, signature, secret)

All comparisons use constant-time equality.
*/
package auth
