// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled HTTP requests by route pattern.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyfair_requests_total",
		Help: "HTTP requests handled, by route, method and status code.",
	}, []string{"path", "method", "status"})

	// QuotaRejections counts writes turned away by a usage limit.
	QuotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyfair_quota_rejections_total",
		Help: "Requests rejected by a daily usage limit, by kind.",
	}, []string{"kind"})

	// ModerationFlags counts content blocked by the moderation gate.
	ModerationFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyfair_moderation_flags_total",
		Help: "Submissions blocked by the moderation gate.",
	})

	// CompletionFallbacks counts quiz generations served by the local
	// generator instead of the completion API.
	CompletionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyfair_completion_fallbacks_total",
		Help: "Quiz generations that fell back to the local generator, by reason.",
	}, []string{"reason"})
)
