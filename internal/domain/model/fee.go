package model

import "discord-membership-payments/internal/domain"

// FeeSplit is the platform's cut of a gross payment and the remainder owed to
// the organization. PlatformFee + PayoutAmount == gross, always.
type FeeSplit struct {
	PlatformFee  int64
	PayoutAmount int64
}

// maxFeeBps caps configured fees; anything above is a config mistake.
const maxFeeBps = 10000

// SplitFee computes the platform fee for a one-time payment. Amounts are
// integer minor-currency units and feeBps is the fee in basis points
// (300 = 3%). The fee is floored: 999 cents at 300 bps yields fee 29,
// payout 970. Flooring favors the organization and never invents cents.
func SplitFee(gross int64, feeBps int64) (FeeSplit, error) {
	if gross < 0 || feeBps < 0 || feeBps > maxFeeBps {
		return FeeSplit{}, domain.ErrInvalidArgument
	}
	fee := gross * feeBps / 10000
	return FeeSplit{PlatformFee: fee, PayoutAmount: gross - fee}, nil
}

// RecurringFeeBps resolves the percentage attached to a subscription at
// creation time. Recurring invoices are fee-split by the processor, so the
// calculator's job here is only to validate the configured value, including an
// organization-level override when present.
func RecurringFeeBps(defaultBps int64, override *int64) (int64, error) {
	bps := defaultBps
	if override != nil {
		bps = *override
	}
	if bps < 0 || bps > maxFeeBps {
		return 0, domain.ErrInvalidArgument
	}
	return bps, nil
}
