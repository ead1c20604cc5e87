package services

import (
	"context"
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
	"github.com/SscSPs/campus_escrow/internal/dto"
)

// EscrowReaderSvc defines read operations over the escrow ledger
type EscrowReaderSvc interface {
	// GetEscrow retrieves the record for an order.
	GetEscrow(ctx context.Context, orderID string) (*domain.EscrowRecord, error)

	// ListEscrows retrieves a paginated, optionally filtered list of records.
	ListEscrows(ctx context.Context, params dto.ListEscrowsParams) (*dto.ListEscrowsResponse, error)

	// GetEscrowBalance aggregates all held escrows.
	GetEscrowBalance(ctx context.Context) (*domain.EscrowBalance, error)

	// GetVendorStatement aggregates one vendor's escrows.
	GetVendorStatement(ctx context.Context, vendorID string) (*domain.VendorStatement, error)
}

// EscrowWriterSvc defines the mutating ledger operations
type EscrowWriterSvc interface {
	// Deposit records a captured payment as held escrow.
	Deposit(ctx context.Context, req dto.DepositRequest, actorID string) (*domain.EscrowRecord, error)

	// VerifyDeposit checks the payment with the provider and marks the record verified.
	VerifyDeposit(ctx context.Context, paymentReference string) (*domain.VerificationResult, error)

	// Release credits the vendor and marks the escrow released, exactly once.
	Release(ctx context.Context, orderID string, actorID string) (*domain.ReleaseResult, error)

	// SweepAutoRelease releases every held escrow older than threshold.
	SweepAutoRelease(ctx context.Context, threshold time.Duration) (*domain.SweepResult, error)
}

// EscrowSvcFacade combines all escrow service interfaces
type EscrowSvcFacade interface {
	EscrowReaderSvc
	EscrowWriterSvc
}

// CheckoutSvc opens provider checkouts for the order checkout flow.
type CheckoutSvc interface {
	InitializeCheckout(ctx context.Context, req dto.InitializeCheckoutRequest) (*domain.CaptureSession, error)
}
