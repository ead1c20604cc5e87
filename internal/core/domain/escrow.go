package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus indicates where an escrow record is in its lifecycle.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "HELD"
	EscrowReleased EscrowStatus = "RELEASED"
)

// PaymentStatusReleased is the order payment status written after release.
const PaymentStatusReleased = "released"

// SystemActorAutoRelease is recorded as releasedBy for sweep releases.
const SystemActorAutoRelease = "system:auto-release"

// EscrowRecord holds a buyer's captured payment for one order until it is released to the vendor.
type EscrowRecord struct {
	OrderID          string          `json:"orderID"`          // Primary Key, never reused
	VendorID         string          `json:"vendorID"`         // Seller credited on release
	PaymentReference string          `json:"paymentReference"` // Provider reference, immutable
	GrossAmount      int64           `json:"grossAmount"`      // Minor units (kobo)
	CommissionRate   decimal.Decimal `json:"commissionRate"`   // Fixed at deposit time
	CommissionAmount int64           `json:"commissionAmount"`
	SellerAmount     int64           `json:"sellerAmount"`
	CurrencyCode     string          `json:"currencyCode"`
	Status           EscrowStatus    `json:"status"`
	Verified         bool            `json:"verified"`
	VerifiedAt       *time.Time      `json:"verifiedAt,omitempty"`
	Released         bool            `json:"released"`
	DepositedAt      time.Time       `json:"depositedAt"`
	ReleasedAt       *time.Time      `json:"releasedAt,omitempty"`
	ReleasedBy       *string         `json:"releasedBy,omitempty"`
	AuditFields
}

// IsHeld reports whether the record can still be released.
func (e EscrowRecord) IsHeld() bool {
	return e.Status == EscrowHeld && !e.Released
}

// DueForRelease reports whether a held record has been held for at least threshold at now.
func (e EscrowRecord) DueForRelease(now time.Time, threshold time.Duration) bool {
	return e.IsHeld() && now.Sub(e.DepositedAt) >= threshold
}

// MarkReleased applies the Held -> Released transition. Callers must have checked IsHeld
// under the same lock or transaction.
func (e *EscrowRecord) MarkReleased(at time.Time, actorID string) {
	e.Status = EscrowReleased
	e.Released = true
	e.ReleasedAt = &at
	e.ReleasedBy = &actorID
	e.LastUpdatedAt = at
	e.LastUpdatedBy = actorID
}

// ReleaseResult is the split reported back to the caller of a release.
type ReleaseResult struct {
	OrderID          string    `json:"orderID"`
	VendorID         string    `json:"vendorID"`
	SellerAmount     int64     `json:"sellerAmount"`
	CommissionAmount int64     `json:"commissionAmount"`
	ReleasedAt       time.Time `json:"releasedAt"`
}

// EscrowBalance aggregates all currently held escrows.
type EscrowBalance struct {
	TotalHeld           int64 `json:"totalHeld"`
	TotalCommission     int64 `json:"totalCommission"`
	AvailableForRelease int64 `json:"availableForRelease"`
	HeldCount           int   `json:"heldCount"`
}

// VendorStatement summarises one vendor's escrows.
type VendorStatement struct {
	VendorID      string `json:"vendorID"`
	TotalRevenue  int64  `json:"totalRevenue"`  // Gross of released escrows
	PlatformFees  int64  `json:"platformFees"`  // Commission of released escrows
	NetEarnings   int64  `json:"netEarnings"`   // Seller amount of released escrows
	ReleasedCount int    `json:"releasedCount"` // Number of released escrows
	HeldAmount    int64  `json:"heldAmount"`    // Seller amount still in escrow
	HeldCount     int    `json:"heldCount"`
}

// SweepResult reports the outcome of one auto-release pass.
type SweepResult struct {
	Released int `json:"released"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// SweepCursor is the (depositedAt, orderID) key of the last record a sweep page returned.
type SweepCursor struct {
	DepositedAt time.Time
	OrderID     string
}

// CursorFor returns the key that resumes a listing after e.
func (e EscrowRecord) CursorFor() *SweepCursor {
	return &SweepCursor{DepositedAt: e.DepositedAt, OrderID: e.OrderID}
}

// EscrowFilter narrows a listing of escrow records.
type EscrowFilter struct {
	Status   *EscrowStatus
	VendorID *string
}
