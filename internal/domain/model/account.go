package model

import (
	"time"

	"discord-membership-payments/internal/domain"
)

// DashboardRef binds the live member-dashboard message so that restarts and
// concurrent refreshes do not race on an in-memory message id.
type DashboardRef struct {
	ChannelRef string
	MessageRef string
}

// ConnectedAccount is one per organization that onboarded to accept payments.
type ConnectedAccount struct {
	OrganizationID     string // Discord guild ID, unique
	ExternalAccountRef string // processor-assigned merchant id
	OnboardingComplete bool
	ChargesEnabled     bool
	PayoutsEnabled     bool
	// FeeBpsOverride replaces the platform-wide recurring fee for this
	// organization when non-nil. Basis points.
	FeeBpsOverride *int64
	Dashboard      *DashboardRef
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewConnectedAccount(organizationID, externalAccountRef string) (*ConnectedAccount, error) {
	if organizationID == "" || externalAccountRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &ConnectedAccount{
		OrganizationID:     organizationID,
		ExternalAccountRef: externalAccountRef,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// WithCapabilities returns a copy carrying the processor-reported flags.
func (a *ConnectedAccount) WithCapabilities(onboardingComplete, chargesEnabled, payoutsEnabled bool, now time.Time) *ConnectedAccount {
	next := *a
	next.OnboardingComplete = onboardingComplete
	next.ChargesEnabled = chargesEnabled
	next.PayoutsEnabled = payoutsEnabled
	next.UpdatedAt = now
	return &next
}
