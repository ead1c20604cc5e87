package memory

import (
	"context"
	"sync"

	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
)

// VendorEarningsStore keeps per-vendor running totals.
type VendorEarningsStore struct {
	mu       sync.Mutex
	earnings map[string]int64
	orders   map[string]int64
}

func NewVendorEarningsStore() *VendorEarningsStore {
	return &VendorEarningsStore{
		earnings: make(map[string]int64),
		orders:   make(map[string]int64),
	}
}

var _ portsrepo.VendorEarningsStore = (*VendorEarningsStore)(nil)

func (s *VendorEarningsStore) IncrementEarnings(ctx context.Context, vendorID string, amount int64) error {
	applyOrStage(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.earnings[vendorID] += amount
	})
	return nil
}

func (s *VendorEarningsStore) IncrementOrderCount(ctx context.Context, vendorID string) error {
	applyOrStage(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.orders[vendorID]++
	})
	return nil
}

// Totals returns the credited earnings and completed order count for a vendor.
func (s *VendorEarningsStore) Totals(vendorID string) (earnings int64, orders int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earnings[vendorID], s.orders[vendorID]
}

// OrderStatusStore records the payment status shown on each order.
type OrderStatusStore struct {
	mu       sync.Mutex
	statuses map[string]string
}

func NewOrderStatusStore() *OrderStatusStore {
	return &OrderStatusStore{statuses: make(map[string]string)}
}

var _ portsrepo.OrderStatusStore = (*OrderStatusStore)(nil)

func (s *OrderStatusStore) SetPaymentStatus(ctx context.Context, orderID string, status string) error {
	applyOrStage(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.statuses[orderID] = status
	})
	return nil
}

// PaymentStatus returns the last status written for an order, or "" if none.
func (s *OrderStatusStore) PaymentStatus(orderID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[orderID]
}
