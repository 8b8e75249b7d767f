package repository

import (
	"context"

	"discord-membership-payments/internal/domain/model"
)

// MembershipRepository is the port for the membership record store. Upsert is
// last-writer-wins on full record replacement; there is no field-level merge.
// Implementations must serialize concurrent writes to the same key.
type MembershipRepository interface {
	// Get returns the current record for (subjectID, tier) or domain.ErrNotFound.
	Get(ctx context.Context, subjectID, tier string) (*model.MembershipRecord, error)
	// GetBySubscriptionRef correlates renewal/cancel/failure events.
	GetBySubscriptionRef(ctx context.Context, ref string) (*model.MembershipRecord, error)
	// Upsert replaces the whole record keyed by (subjectID, tier).
	Upsert(ctx context.Context, rec *model.MembershipRecord) error
	// ListActive returns every record with status active.
	ListActive(ctx context.Context) ([]*model.MembershipRecord, error)
	// ListActiveByOrganization scopes ListActive to one guild.
	ListActiveByOrganization(ctx context.Context, organizationID string) ([]*model.MembershipRecord, error)
}
