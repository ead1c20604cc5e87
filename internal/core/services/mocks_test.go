package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// MockPaymentVerifier is a mock type for the PaymentVerifier interface
type MockPaymentVerifier struct {
	mock.Mock
}

func (m *MockPaymentVerifier) VerifyPayment(ctx context.Context, reference string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

var _ portssvc.PaymentVerifier = (*MockPaymentVerifier)(nil)

// MockPaymentInitializer is a mock type for the PaymentInitializer interface
type MockPaymentInitializer struct {
	mock.Mock
}

func (m *MockPaymentInitializer) InitializePayment(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaptureSession), args.Error(1)
}

var _ portssvc.PaymentInitializer = (*MockPaymentInitializer)(nil)

// MockVendorEarningsStore is a mock type for the VendorEarningsStore interface
type MockVendorEarningsStore struct {
	mock.Mock
}

func (m *MockVendorEarningsStore) IncrementEarnings(ctx context.Context, vendorID string, amount int64) error {
	args := m.Called(ctx, vendorID, amount)
	return args.Error(0)
}

func (m *MockVendorEarningsStore) IncrementOrderCount(ctx context.Context, vendorID string) error {
	args := m.Called(ctx, vendorID)
	return args.Error(0)
}

var _ portsrepo.VendorEarningsStore = (*MockVendorEarningsStore)(nil)

// MockEventPublisher is a mock type for the EventPublisher interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Enqueue(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

// MockSweepLocker is a mock type for the SweepLocker interface
type MockSweepLocker struct {
	mock.Mock
}

func (m *MockSweepLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, name, ttl)
	unlock, _ := args.Get(0).(func(context.Context) error)
	return unlock, args.Bool(1), args.Error(2)
}

var _ portssvc.SweepLocker = (*MockSweepLocker)(nil)

// testClock is a settable clock shared by the ledger under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
