package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/repository"
)

// PostgresAccountRepo implements repository.ConnectedAccountRepository.
type PostgresAccountRepo struct {
	pool *pgxpool.Pool
}

var _ repository.ConnectedAccountRepository = (*PostgresAccountRepo)(nil)

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool}
}

const accountColumns = `organization_id, external_account_ref, onboarding_complete, charges_enabled, payouts_enabled, fee_bps_override, dashboard_channel_ref, dashboard_message_ref, created_at, updated_at`

func (r *PostgresAccountRepo) Upsert(ctx context.Context, acc *model.ConnectedAccount) error {
	const sql = `
INSERT INTO connected_accounts (` + accountColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (organization_id) DO UPDATE SET
  external_account_ref = EXCLUDED.external_account_ref,
  onboarding_complete = EXCLUDED.onboarding_complete,
  charges_enabled = EXCLUDED.charges_enabled,
  payouts_enabled = EXCLUDED.payouts_enabled,
  fee_bps_override = EXCLUDED.fee_bps_override,
  dashboard_channel_ref = EXCLUDED.dashboard_channel_ref,
  dashboard_message_ref = EXCLUDED.dashboard_message_ref,
  created_at = EXCLUDED.created_at,
  updated_at = EXCLUDED.updated_at;
`
	var channelRef, messageRef *string
	if acc.Dashboard != nil {
		channelRef = &acc.Dashboard.ChannelRef
		messageRef = &acc.Dashboard.MessageRef
	}
	_, err := r.pool.Exec(ctx, sql,
		acc.OrganizationID,
		acc.ExternalAccountRef,
		acc.OnboardingComplete,
		acc.ChargesEnabled,
		acc.PayoutsEnabled,
		acc.FeeBpsOverride,
		channelRef,
		messageRef,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres Upsert account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) GetByOrganization(ctx context.Context, organizationID string) (*model.ConnectedAccount, error) {
	const sql = `
SELECT ` + accountColumns + `
FROM connected_accounts
WHERE organization_id = $1;
`
	return r.scanOne(r.pool.QueryRow(ctx, sql, organizationID))
}

func (r *PostgresAccountRepo) GetByAccountRef(ctx context.Context, externalAccountRef string) (*model.ConnectedAccount, error) {
	const sql = `
SELECT ` + accountColumns + `
FROM connected_accounts
WHERE external_account_ref = $1;
`
	return r.scanOne(r.pool.QueryRow(ctx, sql, externalAccountRef))
}

func (r *PostgresAccountRepo) List(ctx context.Context) ([]*model.ConnectedAccount, error) {
	const sql = `
SELECT ` + accountColumns + `
FROM connected_accounts
ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres List accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.ConnectedAccount
	for rows.Next() {
		acc, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, organizationID string) error {
	const sql = `DELETE FROM connected_accounts WHERE organization_id = $1;`
	tag, err := r.pool.Exec(ctx, sql, organizationID)
	if err != nil {
		return fmt.Errorf("postgres Delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepo) scanOne(row pgx.Row) (*model.ConnectedAccount, error) {
	var (
		acc        model.ConnectedAccount
		channelRef *string
		messageRef *string
	)
	err := row.Scan(
		&acc.OrganizationID,
		&acc.ExternalAccountRef,
		&acc.OnboardingComplete,
		&acc.ChargesEnabled,
		&acc.PayoutsEnabled,
		&acc.FeeBpsOverride,
		&channelRef,
		&messageRef,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres account scan: %w", err)
	}
	if channelRef != nil && messageRef != nil {
		acc.Dashboard = &model.DashboardRef{ChannelRef: *channelRef, MessageRef: *messageRef}
	}
	return &acc, nil
}
