package repository

import (
	"context"

	"discord-membership-payments/internal/domain/model"
)

// ConnectedAccountRepository persists merchant onboarding state per
// organization. Records are never hard-deleted except by explicit
// administrative disconnect.
type ConnectedAccountRepository interface {
	GetByOrganization(ctx context.Context, organizationID string) (*model.ConnectedAccount, error)
	GetByAccountRef(ctx context.Context, externalAccountRef string) (*model.ConnectedAccount, error)
	Upsert(ctx context.Context, acc *model.ConnectedAccount) error
	List(ctx context.Context) ([]*model.ConnectedAccount, error)
	Delete(ctx context.Context, organizationID string) error
}
