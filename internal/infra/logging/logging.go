// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"discord-membership-payments/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Keep first 100, then 1 every 100 thereafter.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxEventID ctxKey = "event_id"
	ctxSubject ctxKey = "subject_id"
	ctxOrg     ctxKey = "organization_id"
	ctxSubRef  ctxKey = "subscription_ref"
)

// With attaches webhook correlation fields carried in the context.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxEventID); v != nil {
		l = l.Str("event_id", v.(string))
	}
	if v := ctx.Value(ctxSubject); v != nil {
		l = l.Str("subject_id", v.(string))
	}
	if v := ctx.Value(ctxOrg); v != nil {
		l = l.Str("organization_id", v.(string))
	}
	if v := ctx.Value(ctxSubRef); v != nil {
		l = l.Str("subscription_ref", v.(string))
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "Reconciler.Apply")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Helpers to put correlation ids into context.
func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxEventID, id)
}
func WithSubjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSubject, id)
}
func WithOrganizationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOrg, id)
}
func WithSubscriptionRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, ctxSubRef, ref)
}
