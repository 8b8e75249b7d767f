// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase builds hosted payment sessions for a subject buying a tier.
type CheckoutUseCase interface {
	CreateSession(ctx context.Context, subjectID, organizationID, tierKey string, mode model.PaymentMode) (string, error)
}

type checkoutUC struct {
	gateway  adapter.PaymentGateway
	accounts repository.ConnectedAccountRepository
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	gateway adapter.PaymentGateway,
	accounts repository.ConnectedAccountRepository,
	cfg *config.Config,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{gateway: gateway, accounts: accounts, cfg: cfg, log: logger}
}

// CreateSession validates the purchase against local state before touching the
// processor: an unknown tier or an organization that cannot take charges is
// rejected without a gateway call.
func (u *checkoutUC) CreateSession(ctx context.Context, subjectID, organizationID, tierKey string, mode model.PaymentMode) (string, error) {
	if subjectID == "" || organizationID == "" {
		return "", domain.ErrInvalidArgument
	}
	tier, ok := u.cfg.Tiers[tierKey]
	if !ok {
		return "", fmt.Errorf("unknown tier %q: %w", tierKey, domain.ErrInvalidArgument)
	}

	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrOrganizationNotOnboarded
		}
		return "", err
	}
	if !acc.ChargesEnabled {
		return "", domain.ErrOrganizationNotOnboarded
	}

	params := adapter.CheckoutParams{
		SubjectID:             subjectID,
		OrganizationID:        organizationID,
		Tier:                  tierKey,
		Mode:                  mode,
		DestinationAccountRef: acc.ExternalAccountRef,
		SuccessURL:            u.cfg.Server.PublicURL + "/success",
		CancelURL:             u.cfg.Server.PublicURL + "/cancel",
	}
	switch mode {
	case model.PaymentModeOneTime:
		if tier.OneTime.PriceRef == "" {
			return "", fmt.Errorf("tier %q has no one-time price: %w", tierKey, domain.ErrInvalidArgument)
		}
		split, err := model.SplitFee(tier.OneTime.AmountCents, u.cfg.Fees.PlatformBps)
		if err != nil {
			return "", err
		}
		params.PriceRef = tier.OneTime.PriceRef
		params.ApplicationFeeCents = split.PlatformFee
	case model.PaymentModeRecurring:
		if tier.Monthly.PriceRef == "" {
			return "", fmt.Errorf("tier %q has no monthly price: %w", tierKey, domain.ErrInvalidArgument)
		}
		bps, err := model.RecurringFeeBps(u.cfg.Fees.PlatformBps, acc.FeeBpsOverride)
		if err != nil {
			return "", err
		}
		params.PriceRef = tier.Monthly.PriceRef
		params.ApplicationFeeBps = bps
	default:
		return "", fmt.Errorf("unknown payment mode %q: %w", mode, domain.ErrInvalidArgument)
	}

	url, err := u.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	u.log.Info().
		Str("subject_id", subjectID).
		Str("organization_id", organizationID).
		Str("tier", tierKey).
		Str("mode", string(mode)).
		Msg("checkout session created")
	return url, nil
}
