// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request/response types for the StudyFair API.

# Request Validation

Request structs carry validate tags and are checked with Validate, which
returns a human-readable message for the first failing field:

	var req models.CreatePostRequest
	if err := models.Validate(req); err != nil {
		// err.Error() is safe to return to the client
	}

# Price Display

Marketplace prices are stored as integer cents and rendered with
FormatPriceCents, e.g. 123456 -> "$1,234.56" and 0 -> "Free".
*/
package models
