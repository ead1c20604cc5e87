package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
)

// SettleFunc applies the side effects of a release (vendor credit, order status).
// It runs while the record is locked; a returned error aborts the release.
type SettleFunc func(ctx context.Context, record domain.EscrowRecord) error

// EscrowReader defines read operations for escrow data
type EscrowReader interface {
	// FindEscrowByOrderID returns apperrors.ErrEscrowNotFound if no record exists.
	FindEscrowByOrderID(ctx context.Context, orderID string) (*domain.EscrowRecord, error)

	// FindEscrowByReference looks a record up by its payment provider reference.
	FindEscrowByReference(ctx context.Context, paymentReference string) (*domain.EscrowRecord, error)

	// ListHeldDepositedBefore returns held records deposited at or before cutoff, oldest first,
	// starting strictly after the cursor when one is given.
	ListHeldDepositedBefore(ctx context.Context, cutoff time.Time, after *domain.SweepCursor, limit int) ([]domain.EscrowRecord, error)

	// ListEscrows returns a page of records, newest deposit first, and a token for the next page.
	ListEscrows(ctx context.Context, filter domain.EscrowFilter, limit int, nextToken *string) ([]domain.EscrowRecord, *string, error)

	// SumHeld aggregates gross and commission over held records.
	SumHeld(ctx context.Context) (domain.EscrowBalance, error)

	// VendorStatement aggregates one vendor's held and released records.
	VendorStatement(ctx context.Context, vendorID string) (domain.VendorStatement, error)
}

// EscrowWriter defines write operations for escrow data
type EscrowWriter interface {
	// CreateEscrow inserts a new record. It returns apperrors.ErrDuplicateOrder if the
	// order or payment reference already has a record; the existing record is untouched.
	CreateEscrow(ctx context.Context, record domain.EscrowRecord) error

	// ReleaseEscrow atomically checks that the record is held, runs settle, and marks it
	// released. If settle fails nothing is written and the record stays held.
	ReleaseEscrow(ctx context.Context, orderID string, releasedAt time.Time, actorID string, settle SettleFunc) (*domain.EscrowRecord, error)

	// MarkEscrowVerified sets the advisory verified marker.
	MarkEscrowVerified(ctx context.Context, orderID string, verifiedAt time.Time) (*domain.EscrowRecord, error)
}

// EscrowRepositoryFacade combines all escrow repository interfaces
type EscrowRepositoryFacade interface {
	EscrowReader
	EscrowWriter
}

// VendorEarningsStore performs atomic increments on the external vendor directory.
type VendorEarningsStore interface {
	IncrementEarnings(ctx context.Context, vendorID string, amount int64) error
	IncrementOrderCount(ctx context.Context, vendorID string) error
}

// OrderStatusStore updates the externally visible order payment status.
type OrderStatusStore interface {
	SetPaymentStatus(ctx context.Context, orderID string, status string) error
}
