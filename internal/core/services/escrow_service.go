package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/dto"
	"github.com/SscSPs/campus_escrow/internal/utils"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrencyCode   = "NGN"
	defaultVerifyTimeout  = 10 * time.Second
	defaultSweepBatchSize = 500
	defaultListLimit      = 20
)

// escrowService is the escrow ledger. It owns the order -> escrow record mapping and
// enforces the commission split and the single-release invariant.
type escrowService struct {
	BaseService
	escrowRepo      portsrepo.EscrowRepositoryFacade
	vendorEarnings  portsrepo.VendorEarningsStore
	orderStatus     portsrepo.OrderStatusStore
	verifier        portssvc.PaymentVerifier
	events          portssvc.EventPublisher
	commissionRate  decimal.Decimal
	currencyCode    string
	verifyTimeout   time.Duration
	requireVerified bool
	sweepBatchSize  int
	nowFn           func() time.Time
}

// EscrowOption is a functional option for configuring the escrow ledger
type EscrowOption func(*escrowService)

// WithPaymentVerifier sets the provider used by VerifyDeposit
func WithPaymentVerifier(v portssvc.PaymentVerifier) EscrowOption {
	return func(s *escrowService) {
		s.verifier = v
	}
}

// WithEventPublisher sets the analytics sink for lifecycle events
func WithEventPublisher(p portssvc.EventPublisher) EscrowOption {
	return func(s *escrowService) {
		s.events = p
	}
}

// WithCommissionRate sets the rate applied when a deposit does not carry one
func WithCommissionRate(rate decimal.Decimal) EscrowOption {
	return func(s *escrowService) {
		s.commissionRate = rate
	}
}

// WithCurrency sets the single currency recorded on deposits
func WithCurrency(code string) EscrowOption {
	return func(s *escrowService) {
		if code != "" {
			s.currencyCode = code
		}
	}
}

// WithVerifyTimeout bounds verification calls whose context has no deadline
func WithVerifyTimeout(d time.Duration) EscrowOption {
	return func(s *escrowService) {
		s.verifyTimeout = d
	}
}

// WithRequireVerifiedRelease makes Release refuse escrows that were never verified
func WithRequireVerifiedRelease(required bool) EscrowOption {
	return func(s *escrowService) {
		s.requireVerified = required
	}
}

// WithSweepBatchSize caps how many records one sweep pass considers
func WithSweepBatchSize(n int) EscrowOption {
	return func(s *escrowService) {
		if n > 0 {
			s.sweepBatchSize = n
		}
	}
}

// WithClock overrides time.Now, for tests
func WithClock(nowFn func() time.Time) EscrowOption {
	return func(s *escrowService) {
		s.nowFn = nowFn
	}
}

// NewEscrowService creates the escrow ledger with the provided collaborators and options
func NewEscrowService(
	escrowRepo portsrepo.EscrowRepositoryFacade,
	vendorEarnings portsrepo.VendorEarningsStore,
	orderStatus portsrepo.OrderStatusStore,
	options ...EscrowOption,
) portssvc.EscrowSvcFacade {
	svc := &escrowService{
		escrowRepo:     escrowRepo,
		vendorEarnings: vendorEarnings,
		orderStatus:    orderStatus,
		commissionRate: domain.DefaultCommissionRate,
		currencyCode:   defaultCurrencyCode,
		verifyTimeout:  defaultVerifyTimeout,
		sweepBatchSize: defaultSweepBatchSize,
		nowFn:          time.Now,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure escrowService implements the EscrowSvcFacade interface
var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

// Deposit places a captured payment in escrow. The deposit is not cancellable once it
// reaches the store.
func (s *escrowService) Deposit(ctx context.Context, req dto.DepositRequest, actorID string) (*domain.EscrowRecord, error) {
	orderID := strings.TrimSpace(req.OrderID)
	vendorID := strings.TrimSpace(req.VendorID)
	reference := strings.TrimSpace(req.PaymentReference)
	if orderID == "" || vendorID == "" || reference == "" {
		return nil, fmt.Errorf("%w: orderID, vendorID and paymentReference are required", apperrors.ErrValidation)
	}
	if req.GrossAmount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	rate := s.commissionRate
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}
	if !domain.ValidCommissionRate(rate) {
		return nil, apperrors.ErrInvalidCommissionRate
	}

	split := domain.ComputeSplit(req.GrossAmount, rate)
	now := s.nowFn().UTC()
	record := domain.EscrowRecord{
		OrderID:          orderID,
		VendorID:         vendorID,
		PaymentReference: reference,
		GrossAmount:      split.Gross,
		CommissionRate:   rate,
		CommissionAmount: split.Commission,
		SellerAmount:     split.Seller,
		CurrencyCode:     s.currencyCode,
		Status:           domain.EscrowHeld,
		DepositedAt:      now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.escrowRepo.CreateEscrow(context.WithoutCancel(ctx), record); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateOrder) {
			s.LogWarn(ctx, err, "Rejected duplicate escrow deposit", slog.String("order_id", orderID), slog.String("payment_reference", reference))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to persist escrow deposit", slog.String("order_id", orderID))
		return nil, fmt.Errorf("failed to create escrow for order %s: %w", orderID, err)
	}

	s.LogInfo(ctx, "Payment held in escrow",
		slog.String("order_id", orderID),
		slog.String("payment_reference", reference),
		slog.String("gross", utils.FormatMinorUnits(record.GrossAmount, record.CurrencyCode)),
		slog.String("commission", utils.FormatMinorUnits(record.CommissionAmount, record.CurrencyCode)))
	s.publish(actorID, utils.EventEscrowDeposited, record)

	return &record, nil
}

// VerifyDeposit confirms the payment with the provider. Failures leave the ledger untouched.
func (s *escrowService) VerifyDeposit(ctx context.Context, paymentReference string) (*domain.VerificationResult, error) {
	reference := strings.TrimSpace(paymentReference)
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", apperrors.ErrValidation)
	}
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: no payment verifier configured", apperrors.ErrVerificationFailed)
	}

	record, err := s.escrowRepo.FindEscrowByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	verifyCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.verifyTimeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, s.verifyTimeout)
		defer cancel()
	}

	result, err := s.verifier.VerifyPayment(verifyCtx, reference)
	if err != nil {
		if errors.Is(verifyCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrVerificationTimeout) {
			err = fmt.Errorf("%w: %v", apperrors.ErrVerificationTimeout, err)
		}
		s.LogWarn(ctx, err, "Payment verification did not complete", slog.String("payment_reference", reference))
		return nil, err
	}

	if !result.Success || result.Status != domain.ProviderStatusSuccess {
		err := fmt.Errorf("%w: provider reported status %q", apperrors.ErrVerificationFailed, result.Status)
		s.LogWarn(ctx, err, "Payment verification rejected", slog.String("payment_reference", reference))
		return nil, err
	}
	if result.Amount != record.GrossAmount {
		err := fmt.Errorf("%w: provider amount %d does not match escrow amount %d", apperrors.ErrVerificationFailed, result.Amount, record.GrossAmount)
		s.LogWarn(ctx, err, "Payment verification amount mismatch", slog.String("payment_reference", reference))
		return nil, err
	}

	if !record.Verified {
		if _, err := s.escrowRepo.MarkEscrowVerified(ctx, record.OrderID, s.nowFn().UTC()); err != nil {
			s.LogError(ctx, err, "Failed to mark escrow verified", slog.String("order_id", record.OrderID))
			return nil, fmt.Errorf("failed to mark escrow %s verified: %w", record.OrderID, err)
		}
		s.publish(record.VendorID, utils.EventEscrowVerified, *record)
	}

	return result, nil
}

// Release credits the vendor once and marks the escrow released. The check and the
// transition happen inside one repository critical section.
func (s *escrowService) Release(ctx context.Context, orderID string, actorID string) (*domain.ReleaseResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order ID is required", apperrors.ErrValidation)
	}
	return s.release(context.WithoutCancel(ctx), orderID, actorID)
}

func (s *escrowService) release(ctx context.Context, orderID string, actorID string) (*domain.ReleaseResult, error) {
	now := s.nowFn().UTC()

	record, err := s.escrowRepo.ReleaseEscrow(ctx, orderID, now, actorID, s.settle)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Payment released to vendor",
		slog.String("order_id", record.OrderID),
		slog.String("vendor_id", record.VendorID),
		slog.String("released_by", actorID),
		slog.String("seller_amount", utils.FormatMinorUnits(record.SellerAmount, record.CurrencyCode)),
		slog.String("commission", utils.FormatMinorUnits(record.CommissionAmount, record.CurrencyCode)))
	s.publish(actorID, utils.EventEscrowReleased, *record)

	return &domain.ReleaseResult{
		OrderID:          record.OrderID,
		VendorID:         record.VendorID,
		SellerAmount:     record.SellerAmount,
		CommissionAmount: record.CommissionAmount,
		ReleasedAt:       now,
	}, nil
}

// settle runs while the record is locked as held.
func (s *escrowService) settle(ctx context.Context, record domain.EscrowRecord) error {
	if s.requireVerified && !record.Verified {
		return apperrors.ErrNotVerified
	}
	if err := s.vendorEarnings.IncrementEarnings(ctx, record.VendorID, record.SellerAmount); err != nil {
		return fmt.Errorf("failed to credit vendor %s: %w", record.VendorID, err)
	}
	if err := s.vendorEarnings.IncrementOrderCount(ctx, record.VendorID); err != nil {
		return fmt.Errorf("failed to increment order count for vendor %s: %w", record.VendorID, err)
	}
	if err := s.orderStatus.SetPaymentStatus(ctx, record.OrderID, domain.PaymentStatusReleased); err != nil {
		return fmt.Errorf("failed to update payment status for order %s: %w", record.OrderID, err)
	}
	return nil
}

// SweepAutoRelease releases every held escrow deposited at least threshold ago. A failed
// record is logged and counted; the pass continues. Cancellation is honoured between records.
func (s *escrowService) SweepAutoRelease(ctx context.Context, threshold time.Duration) (*domain.SweepResult, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: held duration threshold must not be negative", apperrors.ErrValidation)
	}

	now := s.nowFn().UTC()
	cutoff := now.Add(-threshold)
	result := &domain.SweepResult{}

	// Page through the whole due set so records that keep failing cannot hide newer ones.
	var cursor *domain.SweepCursor
	for {
		due, err := s.escrowRepo.ListHeldDepositedBefore(ctx, cutoff, cursor, s.sweepBatchSize)
		if err != nil {
			s.LogError(ctx, err, "Failed to list escrows due for auto-release")
			return result, fmt.Errorf("failed to list escrows due for release: %w", err)
		}

		for _, record := range due {
			if err := ctx.Err(); err != nil {
				s.LogWarn(ctx, err, "Auto-release sweep cancelled", slog.Int("released", result.Released))
				return result, err
			}
			s.sweepOne(ctx, record, now, threshold, result)
		}

		if len(due) < s.sweepBatchSize {
			break
		}
		cursor = due[len(due)-1].CursorFor()
	}

	if result.Released > 0 || result.Failed > 0 {
		s.LogInfo(ctx, "Auto-release sweep completed",
			slog.Int("released", result.Released),
			slog.Int("failed", result.Failed),
			slog.Int("skipped", result.Skipped),
			slog.Duration("threshold", threshold))
	}
	return result, nil
}

func (s *escrowService) sweepOne(ctx context.Context, record domain.EscrowRecord, now time.Time, threshold time.Duration, result *domain.SweepResult) {
	if !record.DueForRelease(now, threshold) {
		result.Skipped++
		return
	}

	_, err := s.release(context.WithoutCancel(ctx), record.OrderID, domain.SystemActorAutoRelease)
	switch {
	case err == nil:
		result.Released++
	case errors.Is(err, apperrors.ErrAlreadyReleased):
		// Released by a manual call since the listing was taken.
		result.Skipped++
	default:
		result.Failed++
		s.LogError(ctx, err, "Auto-release failed, escrow stays held", slog.String("order_id", record.OrderID))
	}
}

// GetEscrow retrieves the record for an order.
func (s *escrowService) GetEscrow(ctx context.Context, orderID string) (*domain.EscrowRecord, error) {
	return s.escrowRepo.FindEscrowByOrderID(ctx, strings.TrimSpace(orderID))
}

// ListEscrows retrieves a page of records, newest deposit first.
func (s *escrowService) ListEscrows(ctx context.Context, params dto.ListEscrowsParams) (*dto.ListEscrowsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := domain.EscrowFilter{}
	if params.Status != "" {
		status := domain.EscrowStatus(params.Status)
		if status != domain.EscrowHeld && status != domain.EscrowReleased {
			return nil, fmt.Errorf("%w: unknown escrow status %q", apperrors.ErrValidation, params.Status)
		}
		filter.Status = &status
	}
	if params.VendorID != "" {
		vendorID := params.VendorID
		filter.VendorID = &vendorID
	}

	records, nextToken, err := s.escrowRepo.ListEscrows(ctx, filter, limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list escrows")
		}
		return nil, err
	}

	return &dto.ListEscrowsResponse{
		Escrows:   dto.ToEscrowResponses(records),
		NextToken: nextToken,
	}, nil
}

// GetEscrowBalance aggregates held escrows for reporting.
func (s *escrowService) GetEscrowBalance(ctx context.Context) (*domain.EscrowBalance, error) {
	balance, err := s.escrowRepo.SumHeld(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate escrow balance")
		return nil, fmt.Errorf("failed to aggregate escrow balance: %w", err)
	}
	balance.AvailableForRelease = balance.TotalHeld - balance.TotalCommission
	return &balance, nil
}

// GetVendorStatement aggregates one vendor's escrows.
func (s *escrowService) GetVendorStatement(ctx context.Context, vendorID string) (*domain.VendorStatement, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor ID is required", apperrors.ErrValidation)
	}
	statement, err := s.escrowRepo.VendorStatement(ctx, vendorID)
	if err != nil {
		s.LogError(ctx, err, "Failed to build vendor statement", slog.String("vendor_id", vendorID))
		return nil, fmt.Errorf("failed to build statement for vendor %s: %w", vendorID, err)
	}
	return &statement, nil
}

func (s *escrowService) publish(distinctID string, event string, record domain.EscrowRecord) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(distinctID, event, map[string]any{
		"order_id":          record.OrderID,
		"vendor_id":         record.VendorID,
		"gross_amount":      record.GrossAmount,
		"commission_amount": record.CommissionAmount,
		"seller_amount":     record.SellerAmount,
		"currency":          record.CurrencyCode,
	})
}
