// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the admin-facing aggregate over active memberships.
type Stats struct {
	ActiveMembers     int            `json:"active_members"`
	RecurringMembers  int            `json:"recurring_members"`
	GrossRevenueCents int64          `json:"gross_revenue_cents"`
	PlatformFeeCents  int64          `json:"platform_fee_cents"`
	MRRCents          int64          `json:"mrr_cents"`
	ByTier            map[string]int `json:"by_tier"`
	Organizations     map[string]int `json:"organizations"`
}

type StatsUseCase interface {
	Collect(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	members repository.MembershipRepository
}

func NewStatsUseCase(members repository.MembershipRepository) *statsUC {
	return &statsUC{members: members}
}

func (u *statsUC) Collect(ctx context.Context) (*Stats, error) {
	records, err := u.members.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s := &Stats{
		ByTier:        make(map[string]int),
		Organizations: make(map[string]int),
	}
	for _, rec := range records {
		s.ActiveMembers++
		s.GrossRevenueCents += rec.GrossAmount
		s.PlatformFeeCents += rec.PlatformFee
		s.ByTier[rec.Tier]++
		s.Organizations[rec.OrganizationID]++
		if rec.PaymentMode == model.PaymentModeRecurring {
			s.RecurringMembers++
			s.MRRCents += rec.GrossAmount
		}
	}
	return s, nil
}
