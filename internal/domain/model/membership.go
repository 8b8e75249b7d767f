package model

import (
	"time"

	"discord-membership-payments/internal/domain"
)

type PaymentMode string

const (
	PaymentModeOneTime   PaymentMode = "one_time"
	PaymentModeRecurring PaymentMode = "recurring"
)

type MembershipStatus string

const (
	MembershipStatusActive        MembershipStatus = "active"
	MembershipStatusCancelled     MembershipStatus = "cancelled"
	MembershipStatusPaymentFailed MembershipStatus = "payment_failed"
)

// MembershipRecord is one paid (subject, tier) pairing. At most one active
// record may exist per (SubjectID, Tier); SubscriptionRef is unique across all
// records when non-nil and is the only correlation key for renewal,
// cancellation and payment-failure events.
type MembershipRecord struct {
	ID              string // UUID
	SubjectID       string // Discord user ID
	OrganizationID  string // Discord guild ID
	Tier            string
	PaymentMode     PaymentMode
	PaymentRef      string  // checkout session id at the processor
	SubscriptionRef *string // processor subscription id; nil for one-time purchases
	Status          MembershipStatus
	// Monetary values are integer minor-currency units (cents).
	GrossAmount  int64
	PlatformFee  int64
	PayoutAmount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMembershipRecord creates an active record for a completed checkout.
func NewMembershipRecord(id, subjectID, organizationID, tier string, mode PaymentMode, paymentRef string, subscriptionRef *string, gross int64, split FeeSplit) (*MembershipRecord, error) {
	if id == "" || subjectID == "" || organizationID == "" || tier == "" || paymentRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	if mode != PaymentModeOneTime && mode != PaymentModeRecurring {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &MembershipRecord{
		ID:              id,
		SubjectID:       subjectID,
		OrganizationID:  organizationID,
		Tier:            tier,
		PaymentMode:     mode,
		PaymentRef:      paymentRef,
		SubscriptionRef: subscriptionRef,
		Status:          MembershipStatusActive,
		GrossAmount:     gross,
		PlatformFee:     split.PlatformFee,
		PayoutAmount:    split.PayoutAmount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// WithStatus returns a copy with the status advanced. The store replaces whole
// records on write, so transitions always go through a copy.
func (r *MembershipRecord) WithStatus(s MembershipStatus, now time.Time) *MembershipRecord {
	next := *r
	next.Status = s
	next.UpdatedAt = now
	return &next
}
