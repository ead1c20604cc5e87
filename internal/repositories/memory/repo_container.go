package memory

import (
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
)

// NewRepositoryProvider wires fresh in-memory stores.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		EscrowRepo:     NewEscrowRepository(),
		VendorEarnings: NewVendorEarningsStore(),
		OrderStatus:    NewOrderStatusStore(),
	}
}
