// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3324)
  - DatabaseURL: PostgreSQL connection string (required)
  - LocalStorePath: SQLite file backing the visitor draft store
  - SessionSalt: Secret for session token HMAC (required)
  - WebhookSecret: Secret for billing webhook signatures (optional)
  - CompletionURL/CompletionKey/CompletionModel: quiz completion service
  - ModerationURL/ModerationKey: content classifier service

# Environment Variables

Flags fall back to environment variables:

	PORT                   → -p
	DATABASE_URL           → -d
	LOCAL_STORE_PATH       → -local-store
	SESSION_SALT           → -session-salt
	BILLING_WEBHOOK_SECRET → -webhook-secret
	COMPLETION_API_URL     → -completion-url
	COMPLETION_API_KEY     → -completion-key
	COMPLETION_MODEL       → -completion-model
	MODERATION_API_URL     → -moderation-url
	MODERATION_API_KEY     → -moderation-key

CLI flags take precedence over environment variables. main loads a .env file
via godotenv before parsing, so a local .env works for development.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - SESSION_SALT must be provided

The upstream service settings are optional: without a completion URL quiz
generation always uses the local fallback, and without a moderation URL the
gate uses the keyword list only.
*/
package cliparse
