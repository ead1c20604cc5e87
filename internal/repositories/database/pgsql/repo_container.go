package pgsql

import (
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool PgxPool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		EscrowRepo:     newPgxEscrowRepository(dbPool),
		VendorEarnings: newPgxVendorEarningsStore(dbPool),
		OrderStatus:    newPgxOrderStatusStore(dbPool),
	}
}
