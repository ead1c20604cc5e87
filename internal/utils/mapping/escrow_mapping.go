package mapping

import (
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	"github.com/SscSPs/campus_escrow/internal/models"
)

// ToModelEscrow converts a domain EscrowRecord to a model EscrowRecord
func ToModelEscrow(d domain.EscrowRecord) models.EscrowRecord {
	return models.EscrowRecord{
		OrderID:          d.OrderID,
		VendorID:         d.VendorID,
		PaymentReference: d.PaymentReference,
		GrossAmount:      d.GrossAmount,
		CommissionRate:   d.CommissionRate,
		CommissionAmount: d.CommissionAmount,
		SellerAmount:     d.SellerAmount,
		CurrencyCode:     d.CurrencyCode,
		Status:           models.EscrowStatus(d.Status),
		Verified:         d.Verified,
		VerifiedAt:       d.VerifiedAt,
		DepositedAt:      d.DepositedAt,
		ReleasedAt:       d.ReleasedAt,
		ReleasedBy:       d.ReleasedBy,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEscrow converts a model EscrowRecord to a domain EscrowRecord.
// Released is derived from the stored status.
func ToDomainEscrow(m models.EscrowRecord) domain.EscrowRecord {
	return domain.EscrowRecord{
		OrderID:          m.OrderID,
		VendorID:         m.VendorID,
		PaymentReference: m.PaymentReference,
		GrossAmount:      m.GrossAmount,
		CommissionRate:   m.CommissionRate,
		CommissionAmount: m.CommissionAmount,
		SellerAmount:     m.SellerAmount,
		CurrencyCode:     m.CurrencyCode,
		Status:           domain.EscrowStatus(m.Status),
		Verified:         m.Verified,
		VerifiedAt:       m.VerifiedAt,
		Released:         m.Status == models.EscrowReleased,
		DepositedAt:      m.DepositedAt,
		ReleasedAt:       m.ReleasedAt,
		ReleasedBy:       m.ReleasedBy,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainEscrowSlice converts a slice of model EscrowRecord to domain EscrowRecord
func ToDomainEscrowSlice(ms []models.EscrowRecord) []domain.EscrowRecord {
	if ms == nil {
		return nil
	}
	ds := make([]domain.EscrowRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEscrow(m)
	}
	return ds
}
