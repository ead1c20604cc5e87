package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/dto"
	"github.com/SscSPs/campus_escrow/internal/utils"
	"github.com/shopspring/decimal"
)

// checkoutService opens provider checkouts. It never touches the ledger: the checkout
// flow deposits only after the buyer completes payment.
type checkoutService struct {
	BaseService
	initializer    portssvc.PaymentInitializer
	commissionRate decimal.Decimal
	currencyCode   string
	nowFn          func() time.Time
}

// NewCheckoutService creates a CheckoutSvc backed by the given provider.
func NewCheckoutService(initializer portssvc.PaymentInitializer, commissionRate decimal.Decimal, currencyCode string) portssvc.CheckoutSvc {
	if currencyCode == "" {
		currencyCode = defaultCurrencyCode
	}
	return &checkoutService{
		initializer:    initializer,
		commissionRate: commissionRate,
		currencyCode:   currencyCode,
		nowFn:          time.Now,
	}
}

var _ portssvc.CheckoutSvc = (*checkoutService)(nil)

func (s *checkoutService) InitializeCheckout(ctx context.Context, req dto.InitializeCheckoutRequest) (*domain.CaptureSession, error) {
	if req.Amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if s.initializer == nil {
		return nil, fmt.Errorf("%w: no payment provider configured", apperrors.ErrUpstream)
	}

	reference, err := utils.GeneratePaymentReference(s.nowFn())
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	session, err := s.initializer.InitializePayment(ctx, domain.CaptureRequest{
		Email:          req.Email,
		Amount:         req.Amount,
		CurrencyCode:   s.currencyCode,
		Reference:      reference,
		OrderID:        req.OrderID,
		BuyerID:        req.BuyerID,
		VendorID:       req.VendorID,
		CommissionRate: s.commissionRate.String(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to initialize checkout", slog.String("order_id", req.OrderID), slog.String("payment_reference", reference))
		if errors.Is(err, apperrors.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	s.LogInfo(ctx, "Checkout initialized", slog.String("order_id", req.OrderID), slog.String("payment_reference", session.Reference))
	return session, nil
}
