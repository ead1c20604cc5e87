package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the stored lifecycle state of an escrow row.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "HELD"
	EscrowReleased EscrowStatus = "RELEASED"
)

// EscrowRecord is the escrow_records row.
type EscrowRecord struct {
	OrderID          string          `db:"order_id"` // Primary Key
	VendorID         string          `db:"vendor_id"`
	PaymentReference string          `db:"payment_reference"` // Unique
	GrossAmount      int64           `db:"gross_amount"`
	CommissionRate   decimal.Decimal `db:"commission_rate"` // NUMERIC(5,4)
	CommissionAmount int64           `db:"commission_amount"`
	SellerAmount     int64           `db:"seller_amount"`
	CurrencyCode     string          `db:"currency_code"`
	Status           EscrowStatus    `db:"status"`
	Verified         bool            `db:"verified"`
	VerifiedAt       *time.Time      `db:"verified_at"`
	DepositedAt      time.Time       `db:"deposited_at"`
	ReleasedAt       *time.Time      `db:"released_at"`
	ReleasedBy       *string         `db:"released_by"`
	AuditFields
}

// VendorEarnings is the vendor_earnings row credited on release.
type VendorEarnings struct {
	VendorID      string    `db:"vendor_id"`
	TotalEarnings int64     `db:"total_earnings"`
	TotalOrders   int64     `db:"total_orders"`
	UpdatedAt     time.Time `db:"updated_at"`
}
