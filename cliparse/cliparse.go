package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port        int
	DatabaseURL string

	// LocalStorePath is the SQLite file backing the visitor draft store.
	LocalStorePath string

	// SessionSalt signs session tokens; WebhookSecret verifies billing webhooks.
	SessionSalt   string
	WebhookSecret string

	// Completion service (quiz generation). Empty URL disables the remote
	// path and every generation uses the local fallback.
	CompletionURL   string
	CompletionKey   string
	CompletionModel string

	// Moderation classifier. Empty URL means keyword fallback only.
	ModerationURL string
	ModerationKey string
}

// ParseFlags validates flags and applies environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("studyfair", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.LocalStorePath, "local-store", "", "Path to the visitor draft store file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSalt, "session-salt", "", "Session token salt (prefer env)")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", "", "Billing webhook secret (prefer env)")

	// Upstream services; optional, fallbacks apply when unset
	fs.StringVar(&cfg.CompletionURL, "completion-url", "", "Completion API base URL")
	fs.StringVar(&cfg.CompletionKey, "completion-key", "", "Completion API key (prefer env)")
	fs.StringVar(&cfg.CompletionModel, "completion-model", "", "Completion model name")
	fs.StringVar(&cfg.ModerationURL, "moderation-url", "", "Moderation API URL")
	fs.StringVar(&cfg.ModerationKey, "moderation-key", "", "Moderation API key (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3324 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.LocalStorePath == "" {
		cfg.LocalStorePath = os.Getenv("LOCAL_STORE_PATH")
		if cfg.LocalStorePath == "" {
			cfg.LocalStorePath = "studyfair-local.db"
		}
	}

	// Secrets - session salt MUST be provided
	if cfg.SessionSalt == "" {
		cfg.SessionSalt = os.Getenv("SESSION_SALT")
	}
	if cfg.SessionSalt == "" {
		return Config{}, errors.New("SESSION_SALT required")
	}

	// Webhook secret is optional; without it the webhook endpoint rejects
	// all events rather than accepting unsigned ones.
	if cfg.WebhookSecret == "" {
		cfg.WebhookSecret = os.Getenv("BILLING_WEBHOOK_SECRET")
	}

	if cfg.CompletionURL == "" {
		cfg.CompletionURL = os.Getenv("COMPLETION_API_URL")
	}
	if cfg.CompletionKey == "" {
		cfg.CompletionKey = os.Getenv("COMPLETION_API_KEY")
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = os.Getenv("COMPLETION_MODEL")
		if cfg.CompletionModel == "" {
			cfg.CompletionModel = "gpt-4o-mini"
		}
	}

	if cfg.ModerationURL == "" {
		cfg.ModerationURL = os.Getenv("MODERATION_API_URL")
	}
	if cfg.ModerationKey == "" {
		cfg.ModerationKey = os.Getenv("MODERATION_API_KEY")
	}

	return cfg, nil
}
