package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPayment_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/CE_1700000000000_abc123xyz", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"CE_1700000000000_abc123xyz","amount":10000,"currency":"NGN"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_123", srv.URL, srv.Client())
	result, err := client.VerifyPayment(context.Background(), "CE_1700000000000_abc123xyz")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(10000), result.Amount)
	assert.Equal(t, domain.ProviderStatusSuccess, result.Status)
}

func TestVerifyPayment_ProviderDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"abandoned","amount":10000}}`))
	}))
	defer srv.Close()

	result, err := NewClient("sk", srv.URL, srv.Client()).VerifyPayment(context.Background(), "ref")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "abandoned", result.Status)
}

func TestVerifyPayment_UnknownReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	result, err := NewClient("sk", srv.URL, srv.Client()).VerifyPayment(context.Background(), "ref")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Transaction reference not found", result.Message)
}

func TestVerifyPayment_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient("sk", srv.URL, srv.Client()).VerifyPayment(context.Background(), "ref")
	assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
}

func TestVerifyPayment_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient("sk", srv.URL, srv.Client()).VerifyPayment(ctx, "ref")
	assert.ErrorIs(t, err, apperrors.ErrVerificationTimeout)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestVerifyPayment_MissingSecret(t *testing.T) {
	_, err := NewClient("", "http://127.0.0.1:0", nil).VerifyPayment(context.Background(), "ref")
	assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
}

func TestInitializePayment_SendsMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body initializeBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buyer@campus.edu", body.Email)
		assert.Equal(t, "10000", body.Amount)
		assert.Equal(t, "ord-1", body.Metadata.OrderID)
		require.Len(t, body.Metadata.CustomFields, 5)
		assert.Equal(t, "vendor_id", body.Metadata.CustomFields[2].VariableName)
		assert.Equal(t, "vendor-1", body.Metadata.CustomFields[2].Value)
		assert.Equal(t, "0.07", body.Metadata.CustomFields[4].Value)

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"` + body.Reference + `"}}`))
	}))
	defer srv.Close()

	session, err := NewClient("sk", srv.URL, srv.Client()).InitializePayment(context.Background(), domain.CaptureRequest{
		Email:          "buyer@campus.edu",
		Amount:         10000,
		CurrencyCode:   "NGN",
		Reference:      "CE_1_abc",
		OrderID:        "ord-1",
		BuyerID:        "student-1",
		VendorID:       "vendor-1",
		CommissionRate: "0.07",
	})
	require.NoError(t, err)
	assert.Equal(t, "CE_1_abc", session.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.AuthorizationURL)
}

func TestInitializePayment_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid Email Address Passed"}`))
	}))
	defer srv.Close()

	_, err := NewClient("sk", srv.URL, srv.Client()).InitializePayment(context.Background(), domain.CaptureRequest{Email: "x", Amount: 1, Reference: "r"})
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Contains(t, err.Error(), "Invalid Email Address Passed")
}
