// File: internal/infra/sched/membership_auditor.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/domain/ports/repository"
	"discord-membership-payments/internal/usecase"
)

// MembershipAuditor periodically compares the membership store against the
// roles actually held on the chat platform. Drift happens when an admin edits
// roles by hand or an effect was abandoned; the auditor logs it and refreshes
// the dashboards so the divergence is at least visible.
type MembershipAuditor struct {
	members    repository.MembershipRepository
	accounts   repository.ConnectedAccountRepository
	chat       adapter.ChatPlatform
	dashboards usecase.DashboardUseCase
	tiers      map[string]config.TierConfig
	interval   time.Duration
	log        *zerolog.Logger
}

func NewMembershipAuditor(
	members repository.MembershipRepository,
	accounts repository.ConnectedAccountRepository,
	chat adapter.ChatPlatform,
	dashboards usecase.DashboardUseCase,
	tiers map[string]config.TierConfig,
	interval time.Duration,
	logger *zerolog.Logger,
) *MembershipAuditor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &MembershipAuditor{
		members:    members,
		accounts:   accounts,
		chat:       chat,
		dashboards: dashboards,
		tiers:      tiers,
		interval:   interval,
		log:        logger,
	}
}

func (w *MembershipAuditor) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *MembershipAuditor) tick(ctx context.Context) {
	accounts, err := w.accounts.List(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("auditor: list accounts")
		return
	}
	for _, acc := range accounts {
		w.auditOrganization(ctx, acc.OrganizationID)
	}
}

func (w *MembershipAuditor) auditOrganization(ctx context.Context, organizationID string) {
	records, err := w.members.ListActiveByOrganization(ctx, organizationID)
	if err != nil {
		w.log.Error().Err(err).Str("organization_id", organizationID).Msg("auditor: list active records")
		return
	}
	active := make(map[string]map[string]bool) // tier -> subject -> true
	for _, rec := range records {
		if active[rec.Tier] == nil {
			active[rec.Tier] = make(map[string]bool)
		}
		active[rec.Tier][rec.SubjectID] = true
	}

	for tierKey, tier := range w.tiers {
		holders, err := w.chat.ListMembersWithRole(ctx, organizationID, tier.RoleRef)
		if err != nil {
			w.log.Warn().Err(err).Str("organization_id", organizationID).Str("tier", tierKey).Msg("auditor: list role holders")
			continue
		}
		held := make(map[string]bool, len(holders))
		for _, m := range holders {
			held[m.SubjectID] = true
			if !active[tierKey][m.SubjectID] {
				w.log.Warn().
					Str("organization_id", organizationID).
					Str("subject_id", m.SubjectID).
					Str("tier", tierKey).
					Msg("auditor: role held without active record")
			}
		}
		for subjectID := range active[tierKey] {
			if !held[subjectID] {
				w.log.Warn().
					Str("organization_id", organizationID).
					Str("subject_id", subjectID).
					Str("tier", tierKey).
					Msg("auditor: active record without role")
			}
		}
	}

	if err := w.dashboards.Refresh(ctx, organizationID); err != nil {
		w.log.Warn().Err(err).Str("organization_id", organizationID).Msg("auditor: dashboard refresh")
	}
}
