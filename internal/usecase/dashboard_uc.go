// File: internal/usecase/dashboard_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ DashboardUseCase = (*dashboardUC)(nil)

// DashboardUseCase maintains the live member-overview message for an
// organization. Every refresh re-derives the content from the store; there is
// no cross-request cache to fall out of sync.
type DashboardUseCase interface {
	Refresh(ctx context.Context, organizationID string) error
}

type dashboardUC struct {
	members  repository.MembershipRepository
	accounts repository.ConnectedAccountRepository
	chat     adapter.ChatPlatform
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewDashboardUseCase(
	members repository.MembershipRepository,
	accounts repository.ConnectedAccountRepository,
	chat adapter.ChatPlatform,
	cfg *config.Config,
	logger *zerolog.Logger,
) *dashboardUC {
	return &dashboardUC{members: members, accounts: accounts, chat: chat, cfg: cfg, log: logger}
}

func (u *dashboardUC) Refresh(ctx context.Context, organizationID string) error {
	channel := u.cfg.Discord.DashboardChannel
	if channel == "" {
		u.log.Debug().Msg("dashboard channel not configured, skipping refresh")
		return nil
	}

	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("organization_id", organizationID).Msg("dashboard refresh for unknown organization")
			return nil
		}
		return err
	}

	records, err := u.members.ListActiveByOrganization(ctx, organizationID)
	if err != nil {
		return err
	}
	content := BuildDashboard(records, u.cfg.Tiers)

	// Edit in place when the persisted binding still resolves; otherwise post
	// a fresh message and persist the new reference.
	if acc.Dashboard != nil && acc.Dashboard.MessageRef != "" {
		err := u.chat.EditChannelMessage(ctx, acc.Dashboard.ChannelRef, acc.Dashboard.MessageRef, content)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		u.log.Info().Str("organization_id", organizationID).Msg("dashboard message gone, recreating")
	}

	msgRef, err := u.chat.PostToChannel(ctx, channel, content)
	if err != nil {
		return err
	}
	next := *acc
	next.Dashboard = &model.DashboardRef{ChannelRef: channel, MessageRef: msgRef}
	next.UpdatedAt = time.Now()
	return u.accounts.Upsert(ctx, &next)
}

// BuildDashboard renders the member overview from active records. Pure, so
// the grouping and totals are testable without a chat platform.
func BuildDashboard(records []*model.MembershipRecord, tiers map[string]config.TierConfig) adapter.ChannelContent {
	content := adapter.ChannelContent{
		Title:       "Active Members Dashboard",
		Description: "Live overview of all active paid members",
		Footer:      "Updates automatically when members join or leave",
	}
	if len(records) == 0 {
		content.Description = "No active paid members yet. The dashboard will update automatically when someone subscribes!"
		return content
	}

	type group struct {
		oneTime      []*model.MembershipRecord
		subscription []*model.MembershipRecord
	}
	byTier := make(map[string]*group)
	tierKeys := make([]string, 0, len(tiers))
	for key := range tiers {
		byTier[key] = &group{}
		tierKeys = append(tierKeys, key)
	}
	sort.Strings(tierKeys)

	var grossTotal, mrrTotal int64
	var recurringCount int
	for _, rec := range records {
		g, ok := byTier[rec.Tier]
		if !ok {
			g = &group{}
			byTier[rec.Tier] = g
			tierKeys = append(tierKeys, rec.Tier)
			sort.Strings(tierKeys)
		}
		grossTotal += rec.GrossAmount
		if rec.PaymentMode == model.PaymentModeRecurring {
			g.subscription = append(g.subscription, rec)
			mrrTotal += rec.GrossAmount
			recurringCount++
		} else {
			g.oneTime = append(g.oneTime, rec)
		}
	}

	tierName := func(key string) string {
		if t, ok := tiers[key]; ok && t.Name != "" {
			return t.Name
		}
		return key
	}
	for _, key := range tierKeys {
		g := byTier[key]
		if len(g.oneTime) > 0 {
			content.Fields = append(content.Fields, adapter.ReceiptField{
				Name:  fmt.Sprintf("%s - One-time (%d)", tierName(key), len(g.oneTime)),
				Value: memberLines(g.oneTime, " (Lifetime)"),
			})
		}
		if len(g.subscription) > 0 {
			content.Fields = append(content.Fields, adapter.ReceiptField{
				Name:  fmt.Sprintf("%s - Subscription (%d)", tierName(key), len(g.subscription)),
				Value: memberLines(g.subscription, "/mo"),
			})
		}
	}

	content.Fields = append(content.Fields, adapter.ReceiptField{
		Name: "Statistics",
		Value: strings.Join([]string{
			fmt.Sprintf("**Total Active Members:** %d", len(records)),
			fmt.Sprintf("**Subscription Members:** %d", recurringCount),
			fmt.Sprintf("**Total Revenue:** %s", formatCents(grossTotal)),
			fmt.Sprintf("**MRR (Monthly Recurring):** %s", formatCents(mrrTotal)),
		}, "\n"),
	})
	return content
}

// fieldValueLimit matches the chat platform's embed field cap.
const fieldValueLimit = 1024

func memberLines(records []*model.MembershipRecord, suffix string) string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("- <@%s> - %s%s", rec.SubjectID, formatCents(rec.GrossAmount), suffix))
	}
	out := strings.Join(lines, "\n")
	if len(out) > fieldValueLimit {
		out = out[:fieldValueLimit]
	}
	return out
}
