package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	"github.com/SscSPs/campus_escrow/internal/models"
	"github.com/SscSPs/campus_escrow/internal/utils/mapping"
	"github.com/SscSPs/campus_escrow/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const escrowColumns = `
	order_id, vendor_id, payment_reference, gross_amount, commission_rate,
	commission_amount, seller_amount, currency_code, status, verified, verified_at,
	deposited_at, released_at, released_by,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxEscrowRepository struct {
	BaseRepository
}

// newPgxEscrowRepository creates a new repository for escrow records.
func newPgxEscrowRepository(pool PgxPool) portsrepo.EscrowRepositoryFacade {
	return &PgxEscrowRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EscrowRepositoryFacade = (*PgxEscrowRepository)(nil)

func scanEscrow(row pgx.Row) (models.EscrowRecord, error) {
	var m models.EscrowRecord
	err := row.Scan(
		&m.OrderID,
		&m.VendorID,
		&m.PaymentReference,
		&m.GrossAmount,
		&m.CommissionRate,
		&m.CommissionAmount,
		&m.SellerAmount,
		&m.CurrencyCode,
		&m.Status,
		&m.Verified,
		&m.VerifiedAt,
		&m.DepositedAt,
		&m.ReleasedAt,
		&m.ReleasedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectEscrows(rows pgx.Rows) ([]models.EscrowRecord, error) {
	defer rows.Close()
	result := make([]models.EscrowRecord, 0)
	for rows.Next() {
		m, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// CreateEscrow inserts a held record. Both order_id and payment_reference are unique.
func (r *PgxEscrowRepository) CreateEscrow(ctx context.Context, record domain.EscrowRecord) error {
	m := mapping.ToModelEscrow(record)
	query := `
		INSERT INTO escrow_records (` + escrowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.DB(ctx).Exec(ctx, query,
		m.OrderID,
		m.VendorID,
		m.PaymentReference,
		m.GrossAmount,
		m.CommissionRate,
		m.CommissionAmount,
		m.SellerAmount,
		m.CurrencyCode,
		m.Status,
		m.Verified,
		m.VerifiedAt,
		m.DepositedAt,
		m.ReleasedAt,
		m.ReleasedBy,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", apperrors.ErrDuplicateOrder, m.OrderID)
		}
		return apperrors.NewAppError(500, "failed to insert escrow for order "+m.OrderID, err)
	}
	return nil
}

func (r *PgxEscrowRepository) findOne(ctx context.Context, where string, arg string) (*domain.EscrowRecord, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_records WHERE ` + where + ` = $1;`
	m, err := scanEscrow(r.DB(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", apperrors.ErrEscrowNotFound, where, arg)
		}
		return nil, apperrors.NewAppError(500, "failed to find escrow by "+where+" "+arg, err)
	}
	record := mapping.ToDomainEscrow(m)
	return &record, nil
}

func (r *PgxEscrowRepository) FindEscrowByOrderID(ctx context.Context, orderID string) (*domain.EscrowRecord, error) {
	return r.findOne(ctx, "order_id", orderID)
}

func (r *PgxEscrowRepository) FindEscrowByReference(ctx context.Context, paymentReference string) (*domain.EscrowRecord, error) {
	return r.findOne(ctx, "payment_reference", paymentReference)
}

// ListHeldDepositedBefore pages the due set oldest first using a (deposited_at, order_id) keyset.
func (r *PgxEscrowRepository) ListHeldDepositedBefore(ctx context.Context, cutoff time.Time, after *domain.SweepCursor, limit int) ([]domain.EscrowRecord, error) {
	args := []any{cutoff}
	query := `SELECT ` + escrowColumns + ` FROM escrow_records WHERE status = 'HELD' AND deposited_at <= $1`
	if after != nil {
		args = append(args, after.DepositedAt, after.OrderID)
		query += " AND (deposited_at, order_id) > ($2, $3)"
	}
	args = append(args, limit)
	query += " ORDER BY deposited_at ASC, order_id ASC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query escrows due for release", err)
	}
	ms, err := collectEscrows(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan escrows due for release", err)
	}
	return mapping.ToDomainEscrowSlice(ms), nil
}

// ListEscrows pages newest deposit first using a (deposited_at, order_id) keyset.
func (r *PgxEscrowRepository) ListEscrows(ctx context.Context, filter domain.EscrowFilter, limit int, nextToken *string) ([]domain.EscrowRecord, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	conditions := []string{}
	args := []any{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.VendorID != nil {
		args = append(args, *filter.VendorID)
		conditions = append(conditions, "vendor_id = $"+strconv.Itoa(len(args)))
	}
	if nextToken != nil && *nextToken != "" {
		lastDepositedAt, lastOrderID, decodeErr := pagination.DecodeEscrowToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, decodeErr)
		}
		args = append(args, lastDepositedAt, lastOrderID)
		conditions = append(conditions, fmt.Sprintf("(deposited_at, order_id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + escrowColumns + ` FROM escrow_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += " ORDER BY deposited_at DESC, order_id DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query escrows", err)
	}
	ms, err := collectEscrows(rows)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to scan escrow rows", err)
	}

	var nextTokenVal *string
	if len(ms) > limit {
		last := ms[limit-1]
		token := pagination.EncodeEscrowToken(last.DepositedAt, last.OrderID)
		nextTokenVal = &token
		ms = ms[:limit]
	}
	return mapping.ToDomainEscrowSlice(ms), nextTokenVal, nil
}

func (r *PgxEscrowRepository) SumHeld(ctx context.Context) (domain.EscrowBalance, error) {
	query := `
		SELECT COALESCE(SUM(gross_amount), 0)::BIGINT,
		       COALESCE(SUM(commission_amount), 0)::BIGINT,
		       COUNT(*)
		FROM escrow_records
		WHERE status = 'HELD';
	`
	var balance domain.EscrowBalance
	var count int64
	if err := r.DB(ctx).QueryRow(ctx, query).Scan(&balance.TotalHeld, &balance.TotalCommission, &count); err != nil {
		return domain.EscrowBalance{}, apperrors.NewAppError(500, "failed to sum held escrows", err)
	}
	balance.HeldCount = int(count)
	return balance, nil
}

func (r *PgxEscrowRepository) VendorStatement(ctx context.Context, vendorID string) (domain.VendorStatement, error) {
	query := `
		SELECT COALESCE(SUM(gross_amount) FILTER (WHERE status = 'RELEASED'), 0)::BIGINT,
		       COALESCE(SUM(commission_amount) FILTER (WHERE status = 'RELEASED'), 0)::BIGINT,
		       COALESCE(SUM(seller_amount) FILTER (WHERE status = 'RELEASED'), 0)::BIGINT,
		       COUNT(*) FILTER (WHERE status = 'RELEASED'),
		       COALESCE(SUM(seller_amount) FILTER (WHERE status = 'HELD'), 0)::BIGINT,
		       COUNT(*) FILTER (WHERE status = 'HELD')
		FROM escrow_records
		WHERE vendor_id = $1;
	`
	statement := domain.VendorStatement{VendorID: vendorID}
	var releasedCount, heldCount int64
	err := r.DB(ctx).QueryRow(ctx, query, vendorID).Scan(
		&statement.TotalRevenue,
		&statement.PlatformFees,
		&statement.NetEarnings,
		&releasedCount,
		&statement.HeldAmount,
		&heldCount,
	)
	if err != nil {
		return domain.VendorStatement{}, apperrors.NewAppError(500, "failed to build statement for vendor "+vendorID, err)
	}
	statement.ReleasedCount = int(releasedCount)
	statement.HeldCount = int(heldCount)
	return statement, nil
}

// ReleaseEscrow locks the row, runs settle inside the same transaction, then flips the status.
// Stores reached through settle join the transaction via the context.
func (r *PgxEscrowRepository) ReleaseEscrow(ctx context.Context, orderID string, releasedAt time.Time, actorID string, settle portsrepo.SettleFunc) (*domain.EscrowRecord, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	lockQuery := `SELECT ` + escrowColumns + ` FROM escrow_records WHERE order_id = $1 FOR UPDATE;`
	m, err := scanEscrow(tx.QueryRow(ctx, lockQuery, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", apperrors.ErrEscrowNotFound, orderID)
		}
		return nil, apperrors.NewAppError(500, "failed to lock escrow for order "+orderID, err)
	}

	record := mapping.ToDomainEscrow(m)
	if !record.IsHeld() {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrAlreadyReleased, orderID)
	}

	if settle != nil {
		if err := settle(withTx(ctx, tx), record); err != nil {
			return nil, err
		}
	}

	record.MarkReleased(releasedAt, actorID)
	updateQuery := `
		UPDATE escrow_records
		SET status = $2, released_at = $3, released_by = $4, last_updated_at = $5, last_updated_by = $6
		WHERE order_id = $1 AND status = 'HELD';
	`
	tag, err := tx.Exec(ctx, updateQuery, orderID, string(record.Status), record.ReleasedAt, record.ReleasedBy, record.LastUpdatedAt, record.LastUpdatedBy)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to mark escrow released for order "+orderID, err)
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrAlreadyReleased, orderID)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *PgxEscrowRepository) MarkEscrowVerified(ctx context.Context, orderID string, verifiedAt time.Time) (*domain.EscrowRecord, error) {
	query := `
		UPDATE escrow_records
		SET verified = TRUE, verified_at = COALESCE(verified_at, $2), last_updated_at = $2
		WHERE order_id = $1
		RETURNING ` + escrowColumns + `;
	`
	m, err := scanEscrow(r.DB(ctx).QueryRow(ctx, query, orderID, verifiedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", apperrors.ErrEscrowNotFound, orderID)
		}
		return nil, apperrors.NewAppError(500, "failed to mark escrow verified for order "+orderID, err)
	}
	record := mapping.ToDomainEscrow(m)
	return &record, nil
}
