package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestEscrowErrors_WrapGenericSentinels(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		generic error
	}{
		{"duplicate order", apperrors.ErrDuplicateOrder, apperrors.ErrDuplicate},
		{"invalid amount", apperrors.ErrInvalidAmount, apperrors.ErrValidation},
		{"invalid rate", apperrors.ErrInvalidCommissionRate, apperrors.ErrValidation},
		{"not found", apperrors.ErrEscrowNotFound, apperrors.ErrNotFound},
		{"already released", apperrors.ErrAlreadyReleased, apperrors.ErrConflict},
		{"not verified", apperrors.ErrNotVerified, apperrors.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.err)
			assert.ErrorIs(t, wrapped, tt.generic)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperrors.NewAppError(500, "failed to begin transaction", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to begin transaction: connection reset", err.Error())
	assert.Equal(t, "bare", apperrors.NewAppError(500, "bare", nil).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, apperrors.IsRetryable(fmt.Errorf("verify: %w", apperrors.ErrVerificationTimeout)))
	assert.True(t, apperrors.IsRetryable(apperrors.ErrVerificationFailed))
	assert.False(t, apperrors.IsRetryable(apperrors.ErrAlreadyReleased))
	assert.False(t, apperrors.IsRetryable(apperrors.ErrDuplicateOrder))
}
