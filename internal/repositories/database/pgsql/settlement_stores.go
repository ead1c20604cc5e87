package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
)

// PgxVendorEarningsStore keeps running vendor totals. Increments are single upserts so
// concurrent releases for one vendor never lose an update.
type PgxVendorEarningsStore struct {
	BaseRepository
}

func newPgxVendorEarningsStore(pool PgxPool) portsrepo.VendorEarningsStore {
	return &PgxVendorEarningsStore{BaseRepository: BaseRepository{Pool: pool}}
}

func (s *PgxVendorEarningsStore) IncrementEarnings(ctx context.Context, vendorID string, amount int64) error {
	query := `
		INSERT INTO vendor_earnings (vendor_id, total_earnings, total_orders, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (vendor_id) DO UPDATE
		SET total_earnings = vendor_earnings.total_earnings + EXCLUDED.total_earnings,
		    updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB(ctx).Exec(ctx, query, vendorID, amount, time.Now().UTC()); err != nil {
		return apperrors.NewAppError(500, "failed to increment earnings for vendor "+vendorID, err)
	}
	return nil
}

func (s *PgxVendorEarningsStore) IncrementOrderCount(ctx context.Context, vendorID string) error {
	query := `
		INSERT INTO vendor_earnings (vendor_id, total_earnings, total_orders, updated_at)
		VALUES ($1, 0, 1, $2)
		ON CONFLICT (vendor_id) DO UPDATE
		SET total_orders = vendor_earnings.total_orders + 1,
		    updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB(ctx).Exec(ctx, query, vendorID, time.Now().UTC()); err != nil {
		return apperrors.NewAppError(500, "failed to increment order count for vendor "+vendorID, err)
	}
	return nil
}

// PgxOrderStatusStore writes the payment status the order views read.
type PgxOrderStatusStore struct {
	BaseRepository
}

func newPgxOrderStatusStore(pool PgxPool) portsrepo.OrderStatusStore {
	return &PgxOrderStatusStore{BaseRepository: BaseRepository{Pool: pool}}
}

func (s *PgxOrderStatusStore) SetPaymentStatus(ctx context.Context, orderID string, status string) error {
	query := `
		INSERT INTO order_payment_status (order_id, payment_status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO UPDATE
		SET payment_status = EXCLUDED.payment_status,
		    updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB(ctx).Exec(ctx, query, orderID, status, time.Now().UTC()); err != nil {
		return apperrors.NewAppError(500, "failed to set payment status for order "+orderID, err)
	}
	return nil
}
