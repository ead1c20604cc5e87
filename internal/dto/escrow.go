package dto

import (
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DepositRequest defines the data needed to place a captured payment in escrow.
// GrossAmount is checked by the ledger itself so a non-positive amount surfaces as InvalidAmount.
type DepositRequest struct {
	OrderID          string           `json:"orderID" binding:"required,max=128"`
	VendorID         string           `json:"vendorID" binding:"required,max=128"`
	GrossAmount      int64            `json:"grossAmount"` // Minor units (kobo)
	PaymentReference string           `json:"paymentReference" binding:"required,max=128"`
	CommissionRate   *decimal.Decimal `json:"commissionRate" binding:"omitempty,commissionrate"` // Optional, defaults to the configured rate
}

// EscrowResponse defines the data returned for an escrow record.
type EscrowResponse struct {
	OrderID          string              `json:"orderID"`
	VendorID         string              `json:"vendorID"`
	PaymentReference string              `json:"paymentReference"`
	GrossAmount      int64               `json:"grossAmount"`
	CommissionRate   string              `json:"commissionRate"`
	CommissionAmount int64               `json:"commissionAmount"`
	SellerAmount     int64               `json:"sellerAmount"`
	CurrencyCode     string              `json:"currencyCode"`
	Status           domain.EscrowStatus `json:"status"`
	Verified         bool                `json:"verified"`
	VerifiedAt       *time.Time          `json:"verifiedAt,omitempty"`
	Released         bool                `json:"released"`
	DepositedAt      time.Time           `json:"depositedAt"`
	ReleasedAt       *time.Time          `json:"releasedAt,omitempty"`
	ReleasedBy       *string             `json:"releasedBy,omitempty"`
	CreatedBy        string              `json:"createdBy"`
}

// ToEscrowResponse converts a domain.EscrowRecord to EscrowResponse DTO
func ToEscrowResponse(e *domain.EscrowRecord) EscrowResponse {
	return EscrowResponse{
		OrderID:          e.OrderID,
		VendorID:         e.VendorID,
		PaymentReference: e.PaymentReference,
		GrossAmount:      e.GrossAmount,
		CommissionRate:   e.CommissionRate.String(),
		CommissionAmount: e.CommissionAmount,
		SellerAmount:     e.SellerAmount,
		CurrencyCode:     e.CurrencyCode,
		Status:           e.Status,
		Verified:         e.Verified,
		VerifiedAt:       e.VerifiedAt,
		Released:         e.Released,
		DepositedAt:      e.DepositedAt,
		ReleasedAt:       e.ReleasedAt,
		ReleasedBy:       e.ReleasedBy,
		CreatedBy:        e.CreatedBy,
	}
}

// ToEscrowResponses converts a slice of domain.EscrowRecord to []EscrowResponse.
func ToEscrowResponses(records []domain.EscrowRecord) []EscrowResponse {
	responses := make([]EscrowResponse, len(records))
	for i := range records {
		responses[i] = ToEscrowResponse(&records[i])
	}
	return responses
}

// ListEscrowsParams defines query parameters for listing escrows.
type ListEscrowsParams struct {
	Status    string  `form:"status" binding:"omitempty,oneof=HELD RELEASED"`
	VendorID  string  `form:"vendorID" binding:"omitempty,max=128"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListEscrowsResponse wraps a page of escrows.
type ListEscrowsResponse struct {
	Escrows   []EscrowResponse `json:"escrows"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// SweepRequest lets an operator trigger an auto-release pass. Zero or missing uses the configured threshold.
type SweepRequest struct {
	ThresholdHours float64 `json:"thresholdHours" binding:"omitempty,gte=0"`
}

// InitializeCheckoutRequest defines what the checkout flow sends to open a provider checkout.
type InitializeCheckoutRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Amount   int64  `json:"amount" binding:"required,gt=0"` // Minor units (kobo)
	OrderID  string `json:"orderID" binding:"required,max=128"`
	BuyerID  string `json:"buyerID" binding:"max=128"`
	VendorID string `json:"vendorID" binding:"required,max=128"`
}
