// Package memory holds process-local implementations of the repository ports. They back
// the ledger when STORE_DRIVER=memory and in tests; records do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portsrepo "github.com/SscSPs/campus_escrow/internal/core/ports/repositories"
	"github.com/SscSPs/campus_escrow/internal/utils/pagination"
)

type escrowEntry struct {
	mu     sync.Mutex
	record domain.EscrowRecord
}

func (e *escrowEntry) snapshot() domain.EscrowRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record
}

// EscrowRepository stores escrow records in maps. Each record has its own lock so a
// release of one order never waits on another.
type EscrowRepository struct {
	mu          sync.RWMutex
	records     map[string]*escrowEntry
	byReference map[string]string
}

// NewEscrowRepository creates an empty in-memory escrow store.
func NewEscrowRepository() *EscrowRepository {
	return &EscrowRepository{
		records:     make(map[string]*escrowEntry),
		byReference: make(map[string]string),
	}
}

var _ portsrepo.EscrowRepositoryFacade = (*EscrowRepository)(nil)

func (r *EscrowRepository) CreateEscrow(_ context.Context, record domain.EscrowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.OrderID]; exists {
		return fmt.Errorf("%w: order %s", apperrors.ErrDuplicateOrder, record.OrderID)
	}
	if orderID, exists := r.byReference[record.PaymentReference]; exists {
		return fmt.Errorf("%w: payment reference %s already used by order %s", apperrors.ErrDuplicateOrder, record.PaymentReference, orderID)
	}

	r.records[record.OrderID] = &escrowEntry{record: record}
	r.byReference[record.PaymentReference] = record.OrderID
	return nil
}

func (r *EscrowRepository) entry(orderID string) (*escrowEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.records[orderID]
	return e, ok
}

func (r *EscrowRepository) entries() []*escrowEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*escrowEntry, 0, len(r.records))
	for _, e := range r.records {
		all = append(all, e)
	}
	return all
}

func (r *EscrowRepository) FindEscrowByOrderID(_ context.Context, orderID string) (*domain.EscrowRecord, error) {
	e, ok := r.entry(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrEscrowNotFound, orderID)
	}
	record := e.snapshot()
	return &record, nil
}

func (r *EscrowRepository) FindEscrowByReference(ctx context.Context, paymentReference string) (*domain.EscrowRecord, error) {
	r.mu.RLock()
	orderID, ok := r.byReference[paymentReference]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: payment reference %s", apperrors.ErrEscrowNotFound, paymentReference)
	}
	return r.FindEscrowByOrderID(ctx, orderID)
}

func (r *EscrowRepository) ListHeldDepositedBefore(_ context.Context, cutoff time.Time, after *domain.SweepCursor, limit int) ([]domain.EscrowRecord, error) {
	due := make([]domain.EscrowRecord, 0)
	for _, e := range r.entries() {
		record := e.snapshot()
		if !record.IsHeld() || record.DepositedAt.After(cutoff) {
			continue
		}
		if after != nil && !olderThanCursor(*after, record) {
			continue
		}
		due = append(due, record)
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].DepositedAt.Equal(due[j].DepositedAt) {
			return due[i].OrderID < due[j].OrderID
		}
		return due[i].DepositedAt.Before(due[j].DepositedAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *EscrowRepository) ListEscrows(_ context.Context, filter domain.EscrowFilter, limit int, nextToken *string) ([]domain.EscrowRecord, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		hasCursor     bool
		cursorAt      time.Time
		cursorOrderID string
	)
	if nextToken != nil && *nextToken != "" {
		at, orderID, err := pagination.DecodeEscrowToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		hasCursor, cursorAt, cursorOrderID = true, at, orderID
	}

	matched := make([]domain.EscrowRecord, 0)
	for _, e := range r.entries() {
		record := e.snapshot()
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.VendorID != nil && record.VendorID != *filter.VendorID {
			continue
		}
		if hasCursor && !newerThanCursor(record, cursorAt, cursorOrderID) {
			continue
		}
		matched = append(matched, record)
	}

	// Newest deposit first, order ID descending as tie-breaker
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].DepositedAt.Equal(matched[j].DepositedAt) {
			return matched[i].OrderID > matched[j].OrderID
		}
		return matched[i].DepositedAt.After(matched[j].DepositedAt)
	})

	var nextTokenVal *string
	if len(matched) > limit {
		last := matched[limit-1]
		token := pagination.EncodeEscrowToken(last.DepositedAt, last.OrderID)
		nextTokenVal = &token
		matched = matched[:limit]
	}
	return matched, nextTokenVal, nil
}

// olderThanCursor reports whether record sorts after the cursor in the ascending sweep listing.
func olderThanCursor(cursor domain.SweepCursor, record domain.EscrowRecord) bool {
	if record.DepositedAt.Equal(cursor.DepositedAt) {
		return record.OrderID > cursor.OrderID
	}
	return record.DepositedAt.After(cursor.DepositedAt)
}

// newerThanCursor reports whether record sorts after the cursor in the descending listing.
func newerThanCursor(record domain.EscrowRecord, at time.Time, orderID string) bool {
	if record.DepositedAt.Equal(at) {
		return record.OrderID < orderID
	}
	return record.DepositedAt.Before(at)
}

func (r *EscrowRepository) SumHeld(_ context.Context) (domain.EscrowBalance, error) {
	var balance domain.EscrowBalance
	for _, e := range r.entries() {
		record := e.snapshot()
		if !record.IsHeld() {
			continue
		}
		balance.TotalHeld += record.GrossAmount
		balance.TotalCommission += record.CommissionAmount
		balance.HeldCount++
	}
	return balance, nil
}

func (r *EscrowRepository) VendorStatement(_ context.Context, vendorID string) (domain.VendorStatement, error) {
	statement := domain.VendorStatement{VendorID: vendorID}
	for _, e := range r.entries() {
		record := e.snapshot()
		if record.VendorID != vendorID {
			continue
		}
		if record.IsHeld() {
			statement.HeldAmount += record.SellerAmount
			statement.HeldCount++
			continue
		}
		statement.TotalRevenue += record.GrossAmount
		statement.PlatformFees += record.CommissionAmount
		statement.NetEarnings += record.SellerAmount
		statement.ReleasedCount++
	}
	return statement, nil
}

// ReleaseEscrow holds the record lock across the held check, settle and the transition,
// so concurrent releases of one order settle exactly once. Writes the memory stores make
// during settle are staged and applied only when settle returns nil.
func (r *EscrowRepository) ReleaseEscrow(ctx context.Context, orderID string, releasedAt time.Time, actorID string, settle portsrepo.SettleFunc) (*domain.EscrowRecord, error) {
	e, ok := r.entry(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrEscrowNotFound, orderID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.record.IsHeld() {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrAlreadyReleased, orderID)
	}

	staged := &stagedSettlement{}
	if settle != nil {
		if err := settle(withStaging(ctx, staged), e.record); err != nil {
			return nil, err
		}
	}
	staged.commit()

	e.record.MarkReleased(releasedAt, actorID)
	record := e.record
	return &record, nil
}

func (r *EscrowRepository) MarkEscrowVerified(_ context.Context, orderID string, verifiedAt time.Time) (*domain.EscrowRecord, error) {
	e, ok := r.entry(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: order %s", apperrors.ErrEscrowNotFound, orderID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.record.Verified {
		e.record.Verified = true
		e.record.VerifiedAt = &verifiedAt
	}
	record := e.record
	return &record, nil
}
