// File: internal/usecase/dispatcher.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/infra/metrics"
	"discord-membership-payments/internal/infra/worker"
)

// Compile-time check
var _ EffectDispatcher = (*effectDispatcher)(nil)

// EffectDispatcher executes the side effects ordered by a state transition.
// Effects run after the store write committed: each failure is isolated,
// logged, and never rolls the transition back or blocks a sibling effect.
type EffectDispatcher interface {
	Dispatch(effects []model.Effect)
}

const (
	effectTimeout  = 10 * time.Second
	effectAttempts = 3
	retryBackoff   = 250 * time.Millisecond
)

type effectDispatcher struct {
	chat       adapter.ChatPlatform
	dashboards DashboardUseCase
	cfg        *config.Config
	pool       *worker.Pool
	log        *zerolog.Logger
}

func NewEffectDispatcher(
	chat adapter.ChatPlatform,
	dashboards DashboardUseCase,
	cfg *config.Config,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *effectDispatcher {
	return &effectDispatcher{chat: chat, dashboards: dashboards, cfg: cfg, pool: pool, log: logger}
}

// Dispatch hands each effect to the pool so the webhook response is not held
// hostage by chat-platform latency. A saturated queue degrades to inline
// execution rather than dropping the effect.
func (d *effectDispatcher) Dispatch(effects []model.Effect) {
	for _, e := range effects {
		eff := e
		task := func(ctx context.Context) error {
			d.run(ctx, eff)
			return nil
		}
		if err := d.pool.Submit(task); err != nil {
			d.log.Warn().Str("kind", string(eff.Kind)).Msg("effect queue saturated, running inline")
			d.run(context.Background(), eff)
		}
	}
}

func (d *effectDispatcher) run(parent context.Context, eff model.Effect) {
	ctx, cancel := context.WithTimeout(parent, effectTimeout)
	defer cancel()

	err := d.withRetry(ctx, eff, func(ctx context.Context) error {
		switch eff.Kind {
		case model.EffectGrantAccess:
			return d.chat.GrantRole(ctx, eff.OrganizationID, eff.SubjectID, d.roleRef(eff.Tier))
		case model.EffectRevokeAccess:
			return d.chat.RevokeRole(ctx, eff.OrganizationID, eff.SubjectID, d.roleRef(eff.Tier))
		case model.EffectNotifySubject:
			return d.chat.SendDirectMessage(ctx, eff.SubjectID, d.noticeText(eff))
		case model.EffectPostReceipt:
			return d.postReceipt(ctx, eff)
		case model.EffectRefreshDashboard:
			return d.dashboards.Refresh(ctx, eff.OrganizationID)
		default:
			return fmt.Errorf("unknown effect kind %q", eff.Kind)
		}
	})
	if err != nil {
		// Logged and abandoned; the committed transition stands either way.
		d.log.Error().Err(err).
			Str("kind", string(eff.Kind)).
			Str("subject_id", eff.SubjectID).
			Str("organization_id", eff.OrganizationID).
			Msg("side effect failed")
		metrics.IncEffect(string(eff.Kind), "failed")
		return
	}
	metrics.IncEffect(string(eff.Kind), "ok")
}

// withRetry retries transient failures with backoff and abandons permanent
// ones (unknown member, missing permission) immediately.
func (d *effectDispatcher) withRetry(ctx context.Context, eff model.Effect, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < effectAttempts; attempt++ {
		if attempt > 0 {
			metrics.IncEffectRetry(string(eff.Kind))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff << (attempt - 1)):
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPermissionDenied) {
			metrics.IncEffect(string(eff.Kind), "abandoned")
			d.log.Warn().Err(err).Str("kind", string(eff.Kind)).Msg("permanent failure, not retrying")
			return err
		}
	}
	return err
}

func (d *effectDispatcher) roleRef(tierKey string) string {
	return d.cfg.Tiers[tierKey].RoleRef
}

func (d *effectDispatcher) tierName(tierKey string) string {
	if t, ok := d.cfg.Tiers[tierKey]; ok && t.Name != "" {
		return t.Name
	}
	return tierKey
}

func (d *effectDispatcher) noticeText(eff model.Effect) string {
	var tmpl string
	switch eff.Notice {
	case model.NoticePaymentSuccess:
		tmpl = d.cfg.Discord.PaymentSuccessMessage
	case model.NoticeSubscriptionCancelled:
		tmpl = d.cfg.Discord.SubscriptionCancelledMessage
	case model.NoticePaymentWarning:
		tmpl = d.cfg.Discord.PaymentWarningMessage
	}
	return strings.ReplaceAll(tmpl, "{tier}", d.tierName(eff.Tier))
}

func (d *effectDispatcher) postReceipt(ctx context.Context, eff model.Effect) error {
	channel := d.cfg.Discord.PaymentLogChannel
	if channel == "" {
		d.log.Debug().Msg("payment log channel not configured, skipping receipt")
		return nil
	}
	rec := eff.Record
	if rec == nil {
		return fmt.Errorf("receipt effect without record")
	}
	paymentType := "One-time Payment"
	if rec.PaymentMode == model.PaymentModeRecurring {
		paymentType = "Monthly Subscription"
	}
	content := adapter.ChannelContent{
		Title: "New Payment Received",
		Fields: []adapter.ReceiptField{
			{Name: "Member", Value: "<@" + rec.SubjectID + ">", Inline: true},
			{Name: "Tier", Value: d.tierName(rec.Tier), Inline: true},
			{Name: "Amount", Value: formatCents(rec.GrossAmount), Inline: true},
			{Name: "Type", Value: paymentType, Inline: true},
			{Name: "Date", Value: rec.CreatedAt.UTC().Format(time.RFC1123), Inline: true},
			{Name: "Status", Value: "Completed", Inline: true},
		},
		Footer: "User ID: " + rec.SubjectID,
	}
	_, err := d.chat.PostToChannel(ctx, channel, content)
	return err
}

// formatCents renders minor units as a decimal amount only at this display
// boundary; everything upstream stays integer.
func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
