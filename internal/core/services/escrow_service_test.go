package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/core/services"
	"github.com/SscSPs/campus_escrow/internal/dto"
	"github.com/SscSPs/campus_escrow/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const autoReleaseAfter = 24 * time.Hour

type EscrowServiceTestSuite struct {
	suite.Suite
	repo        *memory.EscrowRepository
	earnings    *memory.VendorEarningsStore
	orderStatus *memory.OrderStatusStore
	verifier    *MockPaymentVerifier
	events      *MockEventPublisher
	clock       *testClock
	service     portssvc.EscrowSvcFacade
	ctx         context.Context
}

func (s *EscrowServiceTestSuite) SetupTest() {
	s.repo = memory.NewEscrowRepository()
	s.earnings = memory.NewVendorEarningsStore()
	s.orderStatus = memory.NewOrderStatusStore()
	s.verifier = new(MockPaymentVerifier)
	s.events = new(MockEventPublisher)
	s.events.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Maybe()
	s.clock = &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	s.ctx = context.Background()
	s.service = s.newService()
}

func (s *EscrowServiceTestSuite) newService(extra ...services.EscrowOption) portssvc.EscrowSvcFacade {
	options := []services.EscrowOption{
		services.WithPaymentVerifier(s.verifier),
		services.WithEventPublisher(s.events),
		services.WithCommissionRate(decimal.RequireFromString("0.07")),
		services.WithClock(s.clock.Now),
	}
	return services.NewEscrowService(s.repo, s.earnings, s.orderStatus, append(options, extra...)...)
}

func (s *EscrowServiceTestSuite) deposit(orderID string, gross int64) *domain.EscrowRecord {
	record, err := s.service.Deposit(s.ctx, dto.DepositRequest{
		OrderID:          orderID,
		VendorID:         "VND-1",
		GrossAmount:      gross,
		PaymentReference: "ref-" + orderID,
	}, "checkout")
	s.Require().NoError(err)
	return record
}

func TestEscrowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EscrowServiceTestSuite))
}

func (s *EscrowServiceTestSuite) TestDeposit_SplitsAndHolds() {
	record := s.deposit("ORD-1", 10000)

	s.Equal(int64(700), record.CommissionAmount)
	s.Equal(int64(9300), record.SellerAmount)
	s.Equal(domain.EscrowHeld, record.Status)
	s.False(record.Released)
	s.False(record.Verified)
	s.Equal("NGN", record.CurrencyCode)
	s.Equal(s.clock.Now(), record.DepositedAt)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(record.SellerAmount+record.CommissionAmount, stored.GrossAmount)
}

func (s *EscrowServiceTestSuite) TestDeposit_ExplicitRateOverridesDefault() {
	rate := decimal.RequireFromString("0.1")
	record, err := s.service.Deposit(s.ctx, dto.DepositRequest{
		OrderID:          "ORD-R",
		VendorID:         "VND-1",
		GrossAmount:      1005,
		PaymentReference: "ref-r",
		CommissionRate:   &rate,
	}, "checkout")

	s.Require().NoError(err)
	s.Equal(int64(101), record.CommissionAmount) // ceil(100.5)
	s.Equal(int64(904), record.SellerAmount)
}

func (s *EscrowServiceTestSuite) TestDeposit_RejectsNonPositiveAmount() {
	for _, gross := range []int64{0, -500} {
		_, err := s.service.Deposit(s.ctx, dto.DepositRequest{
			OrderID:          "ORD-2",
			VendorID:         "VND-1",
			GrossAmount:      gross,
			PaymentReference: "ref-2",
		}, "checkout")
		s.ErrorIs(err, apperrors.ErrInvalidAmount)
		s.ErrorIs(err, apperrors.ErrValidation)
	}

	_, err := s.service.GetEscrow(s.ctx, "ORD-2")
	s.ErrorIs(err, apperrors.ErrEscrowNotFound)
}

func (s *EscrowServiceTestSuite) TestDeposit_RejectsInvalidRate() {
	for _, raw := range []string{"1", "-0.01", "1.5", "0.99995", "0.07125"} {
		rate := decimal.RequireFromString(raw)
		_, err := s.service.Deposit(s.ctx, dto.DepositRequest{
			OrderID:          "ORD-3",
			VendorID:         "VND-1",
			GrossAmount:      1000,
			PaymentReference: "ref-3",
			CommissionRate:   &rate,
		}, "checkout")
		s.ErrorIs(err, apperrors.ErrInvalidCommissionRate, "rate %s", raw)
	}
}

func (s *EscrowServiceTestSuite) TestDeposit_RequiresIdentifiers() {
	_, err := s.service.Deposit(s.ctx, dto.DepositRequest{
		OrderID:          "  ",
		VendorID:         "VND-1",
		GrossAmount:      1000,
		PaymentReference: "ref-x",
	}, "checkout")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EscrowServiceTestSuite) TestDeposit_DuplicateLeavesOriginal() {
	original := s.deposit("ORD-1", 10000)

	_, err := s.service.Deposit(s.ctx, dto.DepositRequest{
		OrderID:          "ORD-1",
		VendorID:         "VND-9",
		GrossAmount:      50,
		PaymentReference: "ref-other",
	}, "checkout")
	s.ErrorIs(err, apperrors.ErrDuplicateOrder)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(original.GrossAmount, stored.GrossAmount)
	s.Equal(original.VendorID, stored.VendorID)
	s.Equal(original.PaymentReference, stored.PaymentReference)
}

func (s *EscrowServiceTestSuite) TestRelease_CreditsVendorOnce() {
	s.deposit("ORD-1", 10000)
	s.clock.Advance(time.Hour)

	result, err := s.service.Release(s.ctx, "ORD-1", "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(9300), result.SellerAmount)
	s.Equal(int64(700), result.CommissionAmount)
	s.Equal("VND-1", result.VendorID)

	earnings, orders := s.earnings.Totals("VND-1")
	s.Equal(int64(9300), earnings)
	s.Equal(int64(1), orders)
	s.Equal(domain.PaymentStatusReleased, s.orderStatus.PaymentStatus("ORD-1"))

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(domain.EscrowReleased, stored.Status)
	s.True(stored.Released)
	s.Require().NotNil(stored.ReleasedBy)
	s.Equal("admin-1", *stored.ReleasedBy)

	_, err = s.service.Release(s.ctx, "ORD-1", "admin-1")
	s.ErrorIs(err, apperrors.ErrAlreadyReleased)
	s.ErrorIs(err, apperrors.ErrConflict)

	earnings, orders = s.earnings.Totals("VND-1")
	s.Equal(int64(9300), earnings)
	s.Equal(int64(1), orders)
}

func (s *EscrowServiceTestSuite) TestRelease_UnknownOrder() {
	_, err := s.service.Release(s.ctx, "ORD-404", "admin-1")
	s.ErrorIs(err, apperrors.ErrEscrowNotFound)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *EscrowServiceTestSuite) TestRelease_SettleFailureKeepsHeld() {
	failing := new(MockVendorEarningsStore)
	failing.On("IncrementEarnings", mock.Anything, "VND-1", int64(9300)).Return(errors.New("vendor directory unavailable")).Once()
	service := services.NewEscrowService(s.repo, failing, s.orderStatus, services.WithClock(s.clock.Now))

	_, err := service.Deposit(s.ctx, dto.DepositRequest{
		OrderID: "ORD-1", VendorID: "VND-1", GrossAmount: 10000, PaymentReference: "ref-1",
	}, "checkout")
	s.Require().NoError(err)

	_, err = service.Release(s.ctx, "ORD-1", "admin-1")
	s.Error(err)

	stored, err := service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(domain.EscrowHeld, stored.Status)
	s.Empty(s.orderStatus.PaymentStatus("ORD-1"))
	failing.AssertExpectations(s.T())
}

func (s *EscrowServiceTestSuite) TestRelease_ConcurrentWithSweepCreditsOnce() {
	s.deposit("ORD-1", 10000)
	s.clock.Advance(25 * time.Hour)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		released int
	)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.service.Release(s.ctx, "ORD-1", "admin-1"); err == nil {
				mu.Lock()
				released++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			result, err := s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
			if err == nil && result.Released > 0 {
				mu.Lock()
				released += result.Released
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, released)
	earnings, orders := s.earnings.Totals("VND-1")
	s.Equal(int64(9300), earnings)
	s.Equal(int64(1), orders)
}

func (s *EscrowServiceTestSuite) TestRelease_RequireVerifiedPolicy() {
	s.service = s.newService(services.WithRequireVerifiedRelease(true))
	s.deposit("ORD-1", 10000)

	_, err := s.service.Release(s.ctx, "ORD-1", "admin-1")
	s.ErrorIs(err, apperrors.ErrNotVerified)

	s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-1").
		Return(&domain.VerificationResult{Reference: "ref-ORD-1", Success: true, Amount: 10000, Status: domain.ProviderStatusSuccess}, nil).Once()
	_, err = s.service.VerifyDeposit(s.ctx, "ref-ORD-1")
	s.Require().NoError(err)

	_, err = s.service.Release(s.ctx, "ORD-1", "admin-1")
	s.NoError(err)
}

func (s *EscrowServiceTestSuite) TestSweep_RespectsThreshold() {
	s.deposit("ORD-1", 10000)

	s.clock.Advance(23 * time.Hour)
	result, err := s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(0, result.Released)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(domain.EscrowHeld, stored.Status)

	s.clock.Advance(2 * time.Hour)
	result, err = s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(1, result.Released)

	stored, err = s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Require().NotNil(stored.ReleasedBy)
	s.Equal(domain.SystemActorAutoRelease, *stored.ReleasedBy)

	// A second pass has nothing left to do.
	result, err = s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(0, result.Released)
}

func (s *EscrowServiceTestSuite) TestSweep_ZeroThresholdReleasesAllHeld() {
	s.deposit("ORD-1", 1000)
	s.deposit("ORD-2", 2000)
	_, err := s.service.Release(s.ctx, "ORD-2", "admin-1")
	s.Require().NoError(err)

	result, err := s.service.SweepAutoRelease(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal(1, result.Released)
}

func (s *EscrowServiceTestSuite) TestSweep_FailingRecordsDoNotStarveLaterOnes() {
	s.service = s.newService(services.WithRequireVerifiedRelease(true), services.WithSweepBatchSize(2))
	s.deposit("ORD-1", 1000)
	s.deposit("ORD-2", 1000)
	s.deposit("ORD-3", 1000)
	s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-3").
		Return(&domain.VerificationResult{Reference: "ref-ORD-3", Success: true, Amount: 1000, Status: domain.ProviderStatusSuccess}, nil).Once()
	_, err := s.service.VerifyDeposit(s.ctx, "ref-ORD-3")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	result, err := s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(1, result.Released)
	s.Equal(2, result.Failed)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-3")
	s.Require().NoError(err)
	s.Equal(domain.EscrowReleased, stored.Status)

	// The unverified records are retried on the next pass and still fail.
	result, err = s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(0, result.Released)
	s.Equal(2, result.Failed)
}

func (s *EscrowServiceTestSuite) TestSweep_PagesThroughExactBatchMultiple() {
	s.service = s.newService(services.WithSweepBatchSize(2))
	for _, id := range []string{"ORD-1", "ORD-2", "ORD-3", "ORD-4"} {
		s.deposit(id, 1000)
	}

	s.clock.Advance(25 * time.Hour)
	result, err := s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(4, result.Released)
	s.Equal(0, result.Failed)
}

func (s *EscrowServiceTestSuite) TestSweep_NegativeThreshold() {
	_, err := s.service.SweepAutoRelease(s.ctx, -time.Minute)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EscrowServiceTestSuite) TestSweep_FailedRecordStaysHeldAndPassContinues() {
	s.service = s.newService(services.WithRequireVerifiedRelease(true))
	s.deposit("ORD-1", 1000)
	s.deposit("ORD-2", 2000)
	s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-2").
		Return(&domain.VerificationResult{Reference: "ref-ORD-2", Success: true, Amount: 2000, Status: domain.ProviderStatusSuccess}, nil).Once()
	_, err := s.service.VerifyDeposit(s.ctx, "ref-ORD-2")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	result, err := s.service.SweepAutoRelease(s.ctx, autoReleaseAfter)
	s.Require().NoError(err)
	s.Equal(1, result.Released)
	s.Equal(1, result.Failed)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(domain.EscrowHeld, stored.Status)
}

func (s *EscrowServiceTestSuite) TestSweep_CancelledBeforeFirstRecord() {
	s.deposit("ORD-1", 1000)
	s.clock.Advance(25 * time.Hour)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	result, err := s.service.SweepAutoRelease(ctx, autoReleaseAfter)
	s.ErrorIs(err, context.Canceled)
	s.Require().NotNil(result)
	s.Equal(0, result.Released)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.Equal(domain.EscrowHeld, stored.Status)
}

func (s *EscrowServiceTestSuite) TestVerifyDeposit_MarksVerifiedOnly() {
	s.deposit("ORD-1", 10000)
	s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-1").
		Return(&domain.VerificationResult{Reference: "ref-ORD-1", Success: true, Amount: 10000, Status: domain.ProviderStatusSuccess}, nil).Once()

	result, err := s.service.VerifyDeposit(s.ctx, "ref-ORD-1")
	s.Require().NoError(err)
	s.True(result.Success)

	stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
	s.Require().NoError(err)
	s.True(stored.Verified)
	s.NotNil(stored.VerifiedAt)
	s.Equal(domain.EscrowHeld, stored.Status)
	s.verifier.AssertExpectations(s.T())
}

func (s *EscrowServiceTestSuite) TestVerifyDeposit_FailuresLeaveLedgerUntouched() {
	s.deposit("ORD-1", 10000)

	cases := []struct {
		name    string
		result  *domain.VerificationResult
		err     error
		wantErr error
	}{
		{"declined", &domain.VerificationResult{Reference: "ref-ORD-1", Status: "failed"}, nil, apperrors.ErrVerificationFailed},
		{"amount mismatch", &domain.VerificationResult{Reference: "ref-ORD-1", Success: true, Amount: 9999, Status: domain.ProviderStatusSuccess}, nil, apperrors.ErrVerificationFailed},
		{"provider error", nil, apperrors.ErrVerificationFailed, apperrors.ErrVerificationFailed},
		{"provider timeout", nil, apperrors.ErrVerificationTimeout, apperrors.ErrVerificationTimeout},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-1").Return(tc.result, tc.err).Once()

			_, err := s.service.VerifyDeposit(s.ctx, "ref-ORD-1")
			s.ErrorIs(err, tc.wantErr)

			stored, err := s.service.GetEscrow(s.ctx, "ORD-1")
			s.Require().NoError(err)
			s.False(stored.Verified)
			s.Equal(domain.EscrowHeld, stored.Status)
		})
	}
}

func (s *EscrowServiceTestSuite) TestVerifyDeposit_DeadlineMapsToTimeout() {
	s.service = s.newService(services.WithVerifyTimeout(10 * time.Millisecond))
	s.deposit("ORD-1", 10000)
	s.verifier.On("VerifyPayment", mock.Anything, "ref-ORD-1").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, errors.New("read tcp: i/o timeout")).Once()

	_, err := s.service.VerifyDeposit(s.ctx, "ref-ORD-1")
	s.ErrorIs(err, apperrors.ErrVerificationTimeout)
}

func (s *EscrowServiceTestSuite) TestVerifyDeposit_UnknownReference() {
	_, err := s.service.VerifyDeposit(s.ctx, "ref-missing")
	s.ErrorIs(err, apperrors.ErrEscrowNotFound)
	s.verifier.AssertNotCalled(s.T(), "VerifyPayment", mock.Anything, mock.Anything)
}

func (s *EscrowServiceTestSuite) TestVerifyDeposit_NoVerifierConfigured() {
	service := services.NewEscrowService(s.repo, s.earnings, s.orderStatus)
	_, err := service.VerifyDeposit(s.ctx, "ref-ORD-1")
	s.ErrorIs(err, apperrors.ErrVerificationFailed)
}

func (s *EscrowServiceTestSuite) TestGetEscrowBalance() {
	s.deposit("ORD-A", 5000)
	s.deposit("ORD-B", 3000)

	balance, err := s.service.GetEscrowBalance(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(8000), balance.TotalHeld)
	s.Equal(int64(560), balance.TotalCommission)
	s.Equal(int64(7440), balance.AvailableForRelease)
	s.Equal(2, balance.HeldCount)

	_, err = s.service.Release(s.ctx, "ORD-A", "admin-1")
	s.Require().NoError(err)

	balance, err = s.service.GetEscrowBalance(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3000), balance.TotalHeld)
	s.Equal(int64(210), balance.TotalCommission)
	s.Equal(int64(2790), balance.AvailableForRelease)
}

func (s *EscrowServiceTestSuite) TestGetVendorStatement() {
	s.deposit("ORD-A", 5000)
	s.deposit("ORD-B", 3000)
	_, err := s.service.Release(s.ctx, "ORD-A", "admin-1")
	s.Require().NoError(err)

	statement, err := s.service.GetVendorStatement(s.ctx, "VND-1")
	s.Require().NoError(err)
	s.Equal(int64(5000), statement.TotalRevenue)
	s.Equal(int64(350), statement.PlatformFees)
	s.Equal(int64(4650), statement.NetEarnings)
	s.Equal(1, statement.ReleasedCount)
	s.Equal(int64(2790), statement.HeldAmount)
	s.Equal(1, statement.HeldCount)

	_, err = s.service.GetVendorStatement(s.ctx, " ")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EscrowServiceTestSuite) TestListEscrows() {
	s.deposit("ORD-A", 5000)
	s.clock.Advance(time.Minute)
	s.deposit("ORD-B", 3000)
	_, err := s.service.Release(s.ctx, "ORD-A", "admin-1")
	s.Require().NoError(err)

	page, err := s.service.ListEscrows(s.ctx, dto.ListEscrowsParams{})
	s.Require().NoError(err)
	s.Require().Len(page.Escrows, 2)
	s.Equal("ORD-B", page.Escrows[0].OrderID)
	s.Nil(page.NextToken)

	page, err = s.service.ListEscrows(s.ctx, dto.ListEscrowsParams{Status: string(domain.EscrowReleased)})
	s.Require().NoError(err)
	s.Require().Len(page.Escrows, 1)
	s.Equal("ORD-A", page.Escrows[0].OrderID)

	_, err = s.service.ListEscrows(s.ctx, dto.ListEscrowsParams{Status: "PENDING"})
	s.ErrorIs(err, apperrors.ErrValidation)
}
