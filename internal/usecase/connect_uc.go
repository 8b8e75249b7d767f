// File: internal/usecase/connect_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/adapter"
	"discord-membership-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ ConnectUseCase = (*connectUC)(nil)

// OnboardingStatus is the externally visible state of an organization's
// merchant account.
type OnboardingStatus struct {
	Onboarded      bool   `json:"onboarded"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	AccountRef     string `json:"account_ref,omitempty"`
}

// ConnectUseCase drives merchant-account onboarding for organizations.
type ConnectUseCase interface {
	// BeginOnboarding returns a URL the organization owner should visit: the
	// onboarding flow for new or incomplete accounts, the merchant dashboard
	// for accounts that already take charges.
	BeginOnboarding(ctx context.Context, organizationID string) (string, error)
	// RefreshOnboarding regenerates an expired onboarding link.
	RefreshOnboarding(ctx context.Context, organizationID string) (string, error)
	// CompleteOnboarding pulls the account state from the processor and
	// persists it. Called from the onboarding return URL.
	CompleteOnboarding(ctx context.Context, organizationID string) (OnboardingStatus, error)
	Status(ctx context.Context, organizationID string) (OnboardingStatus, error)
	Disconnect(ctx context.Context, organizationID string) error
}

type connectUC struct {
	gateway  adapter.PaymentGateway
	accounts repository.ConnectedAccountRepository
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewConnectUseCase(
	gateway adapter.PaymentGateway,
	accounts repository.ConnectedAccountRepository,
	cfg *config.Config,
	logger *zerolog.Logger,
) *connectUC {
	return &connectUC{gateway: gateway, accounts: accounts, cfg: cfg, log: logger}
}

func (u *connectUC) BeginOnboarding(ctx context.Context, organizationID string) (string, error) {
	if organizationID == "" {
		return "", domain.ErrInvalidArgument
	}

	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if acc == nil {
		ref, err := u.gateway.CreateMerchantAccount(ctx)
		if err != nil {
			return "", fmt.Errorf("create merchant account: %w", err)
		}
		acc, err = model.NewConnectedAccount(organizationID, ref)
		if err != nil {
			return "", err
		}
		if err := u.accounts.Upsert(ctx, acc); err != nil {
			return "", err
		}
		u.log.Info().
			Str("organization_id", organizationID).
			Str("account_ref", ref).
			Msg("merchant account created")
	}

	// Repeated calls after onboarding finished land in the merchant
	// dashboard instead of restarting the flow.
	if acc.OnboardingComplete && acc.ChargesEnabled {
		url, err := u.gateway.CreateManagementLink(ctx, acc.ExternalAccountRef)
		if err != nil {
			return "", fmt.Errorf("create management link: %w", err)
		}
		return url, nil
	}
	return u.onboardingLink(ctx, acc.ExternalAccountRef, organizationID)
}

func (u *connectUC) RefreshOnboarding(ctx context.Context, organizationID string) (string, error) {
	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrOrganizationNotOnboarded
		}
		return "", err
	}
	return u.onboardingLink(ctx, acc.ExternalAccountRef, organizationID)
}

func (u *connectUC) onboardingLink(ctx context.Context, accountRef, organizationID string) (string, error) {
	base := u.cfg.Server.PublicURL
	refreshURL := fmt.Sprintf("%s/connect/refresh?org=%s", base, organizationID)
	returnURL := fmt.Sprintf("%s/connect/complete?org=%s", base, organizationID)
	url, err := u.gateway.CreateOnboardingLink(ctx, accountRef, refreshURL, returnURL)
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return url, nil
}

func (u *connectUC) CompleteOnboarding(ctx context.Context, organizationID string) (OnboardingStatus, error) {
	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OnboardingStatus{}, domain.ErrOrganizationNotOnboarded
		}
		return OnboardingStatus{}, err
	}

	state, err := u.gateway.RetrieveAccount(ctx, acc.ExternalAccountRef)
	if err != nil {
		return OnboardingStatus{}, fmt.Errorf("retrieve account: %w", err)
	}
	next := acc.WithCapabilities(state.DetailsSubmitted, state.ChargesEnabled, state.PayoutsEnabled, time.Now())
	if err := u.accounts.Upsert(ctx, next); err != nil {
		return OnboardingStatus{}, err
	}
	u.log.Info().
		Str("organization_id", organizationID).
		Bool("charges_enabled", state.ChargesEnabled).
		Bool("payouts_enabled", state.PayoutsEnabled).
		Msg("onboarding state synced")
	return statusOf(next), nil
}

func (u *connectUC) Status(ctx context.Context, organizationID string) (OnboardingStatus, error) {
	acc, err := u.accounts.GetByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OnboardingStatus{}, nil
		}
		return OnboardingStatus{}, err
	}
	return statusOf(acc), nil
}

func (u *connectUC) Disconnect(ctx context.Context, organizationID string) error {
	if err := u.accounts.Delete(ctx, organizationID); err != nil {
		return err
	}
	u.log.Info().Str("organization_id", organizationID).Msg("connected account removed")
	return nil
}

func statusOf(acc *model.ConnectedAccount) OnboardingStatus {
	return OnboardingStatus{
		Onboarded:      acc.OnboardingComplete,
		ChargesEnabled: acc.ChargesEnabled,
		PayoutsEnabled: acc.PayoutsEnabled,
		AccountRef:     acc.ExternalAccountRef,
	}
}
