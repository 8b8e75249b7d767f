package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/domain/ports/repository"
)

// PostgresMembershipRepo implements repository.MembershipRepository.
//
// The upsert key is (subject_id, tier); the whole row is replaced on conflict
// so concurrent deliveries can never interleave a field-level merge. A unique
// index on subscription_ref backs the correlation invariant.
type PostgresMembershipRepo struct {
	pool *pgxpool.Pool
}

var _ repository.MembershipRepository = (*PostgresMembershipRepo)(nil)

func NewPostgresMembershipRepo(pool *pgxpool.Pool) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{pool: pool}
}

const membershipColumns = `id, subject_id, organization_id, tier, payment_mode, payment_ref, subscription_ref, status, gross_amount, platform_fee, payout_amount, created_at, updated_at`

func (r *PostgresMembershipRepo) Upsert(ctx context.Context, rec *model.MembershipRecord) error {
	const sql = `
INSERT INTO membership_records (` + membershipColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (subject_id, tier) DO UPDATE SET
  id = EXCLUDED.id,
  organization_id = EXCLUDED.organization_id,
  payment_mode = EXCLUDED.payment_mode,
  payment_ref = EXCLUDED.payment_ref,
  subscription_ref = EXCLUDED.subscription_ref,
  status = EXCLUDED.status,
  gross_amount = EXCLUDED.gross_amount,
  platform_fee = EXCLUDED.platform_fee,
  payout_amount = EXCLUDED.payout_amount,
  created_at = EXCLUDED.created_at,
  updated_at = EXCLUDED.updated_at;
`
	_, err := r.pool.Exec(ctx, sql,
		rec.ID,
		rec.SubjectID,
		rec.OrganizationID,
		rec.Tier,
		string(rec.PaymentMode),
		rec.PaymentRef,
		rec.SubscriptionRef,
		string(rec.Status),
		rec.GrossAmount,
		rec.PlatformFee,
		rec.PayoutAmount,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Unique violation on subscription_ref. Should not happen while
			// per-key locking is correct; surface it as a conflict, not a crash.
			return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("postgres Upsert membership: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepo) Get(ctx context.Context, subjectID, tier string) (*model.MembershipRecord, error) {
	const sql = `
SELECT ` + membershipColumns + `
FROM membership_records
WHERE subject_id = $1 AND tier = $2;
`
	return r.scanOne(r.pool.QueryRow(ctx, sql, subjectID, tier))
}

func (r *PostgresMembershipRepo) GetBySubscriptionRef(ctx context.Context, ref string) (*model.MembershipRecord, error) {
	const sql = `
SELECT ` + membershipColumns + `
FROM membership_records
WHERE subscription_ref = $1;
`
	return r.scanOne(r.pool.QueryRow(ctx, sql, ref))
}

func (r *PostgresMembershipRepo) ListActive(ctx context.Context) ([]*model.MembershipRecord, error) {
	const sql = `
SELECT ` + membershipColumns + `
FROM membership_records
WHERE status = 'active'
ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres ListActive: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *PostgresMembershipRepo) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*model.MembershipRecord, error) {
	const sql = `
SELECT ` + membershipColumns + `
FROM membership_records
WHERE status = 'active' AND organization_id = $1
ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, sql, organizationID)
	if err != nil {
		return nil, fmt.Errorf("postgres ListActiveByOrganization: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *PostgresMembershipRepo) scanOne(row pgx.Row) (*model.MembershipRecord, error) {
	var (
		rec    model.MembershipRecord
		mode   string
		status string
	)
	err := row.Scan(
		&rec.ID,
		&rec.SubjectID,
		&rec.OrganizationID,
		&rec.Tier,
		&mode,
		&rec.PaymentRef,
		&rec.SubscriptionRef,
		&status,
		&rec.GrossAmount,
		&rec.PlatformFee,
		&rec.PayoutAmount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres membership scan: %w", err)
	}
	rec.PaymentMode = model.PaymentMode(mode)
	rec.Status = model.MembershipStatus(status)
	return &rec, nil
}

func (r *PostgresMembershipRepo) scanAll(rows pgx.Rows) ([]*model.MembershipRecord, error) {
	var out []*model.MembershipRecord
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
