package services

import (
	"context"
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
)

// PaymentVerifier looks a payment reference up at the provider.
// Network failures must surface as apperrors.ErrVerificationTimeout or ErrVerificationFailed.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, reference string) (*domain.VerificationResult, error)
}

// PaymentInitializer opens a hosted checkout at the provider.
type PaymentInitializer interface {
	InitializePayment(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureSession, error)
}

// EventPublisher sends escrow lifecycle events to analytics.
type EventPublisher interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// SweepLocker provides cross-instance mutual exclusion for sweep passes.
type SweepLocker interface {
	// TryLock returns ok=false without error if another holder owns name.
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}
