package services

import (
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/platform/config"
)

// Collaborators groups the external services the ledger and checkout talk to.
type Collaborators struct {
	Verifier    portssvc.PaymentVerifier
	Initializer portssvc.PaymentInitializer
	Events      portssvc.EventPublisher
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, collab Collaborators) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Escrow = NewEscrowService(
		repos.EscrowRepo,
		repos.VendorEarnings,
		repos.OrderStatus,
		WithPaymentVerifier(collab.Verifier),
		WithEventPublisher(collab.Events),
		WithCommissionRate(cfg.CommissionRate),
		WithCurrency(cfg.CurrencyCode),
		WithVerifyTimeout(cfg.PaymentVerifyTimeout),
		WithRequireVerifiedRelease(cfg.RequireVerifiedRelease),
		WithSweepBatchSize(cfg.SweepBatchSize),
	)

	container.Checkout = NewCheckoutService(collab.Initializer, cfg.CommissionRate, cfg.CurrencyCode)

	return container
}
