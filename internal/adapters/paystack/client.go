// Package paystack talks to the Paystack transaction API: hosted checkout initialization
// and payment verification.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SscSPs/campus_escrow/internal/apperrors"
	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/middleware"
)

const (
	DefaultBaseURL  = "https://api.paystack.co"
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 1 << 20
)

// Client is a Paystack API client authenticated with the merchant secret key.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewClient creates a client. An empty baseURL uses the public Paystack API.
func NewClient(secretKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{secretKey: secretKey, baseURL: baseURL, http: httpClient}
}

var (
	_ portssvc.PaymentVerifier    = (*Client)(nil)
	_ portssvc.PaymentInitializer = (*Client)(nil)
)

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type initializeBody struct {
	Email     string `json:"email"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Reference string `json:"reference"`
	Metadata  struct {
		OrderID      string        `json:"order_id"`
		CustomFields []customField `json:"custom_fields"`
	} `json:"metadata"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyPayment looks a transaction up by reference. A provider answer that is not a
// success is reported in the result, not as an error; transport problems are errors.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*domain.VerificationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var resp envelope[verifyData]
	status, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &resp)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrVerificationTimeout, err)
		}
		logger.Warn("Paystack verify request failed", slog.String("payment_reference", reference), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVerificationFailed, err)
	}
	if status == http.StatusNotFound {
		return &domain.VerificationResult{Reference: reference, Success: false, Status: "not_found", Message: resp.Message}, nil
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: paystack returned HTTP %d: %s", apperrors.ErrVerificationFailed, status, resp.Message)
	}

	return &domain.VerificationResult{
		Reference: reference,
		Success:   resp.Status && resp.Data.Status == domain.ProviderStatusSuccess,
		Amount:    resp.Data.Amount,
		Status:    resp.Data.Status,
		Message:   resp.Message,
	}, nil
}

// InitializePayment opens a hosted checkout. Order, buyer and vendor identifiers travel
// as metadata custom fields so they appear on the Paystack dashboard.
func (c *Client) InitializePayment(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureSession, error) {
	body := initializeBody{
		Email:     req.Email,
		Amount:    strconv.FormatInt(req.Amount, 10),
		Currency:  req.CurrencyCode,
		Reference: req.Reference,
	}
	body.Metadata.OrderID = req.OrderID
	body.Metadata.CustomFields = []customField{
		{DisplayName: "Order ID", VariableName: "order_id", Value: req.OrderID},
		{DisplayName: "Student ID", VariableName: "student_id", Value: req.BuyerID},
		{DisplayName: "Vendor ID", VariableName: "vendor_id", Value: req.VendorID},
		{DisplayName: "Escrow Amount", VariableName: "escrow_amount", Value: strconv.FormatInt(req.Amount, 10)},
		{DisplayName: "Commission Rate", VariableName: "commission_rate", Value: req.CommissionRate},
	}

	var resp envelope[initializeData]
	status, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: paystack initialize: %v", apperrors.ErrUpstream, err)
	}
	if status >= http.StatusBadRequest || !resp.Status {
		return nil, fmt.Errorf("%w: paystack initialize returned HTTP %d: %s", apperrors.ErrUpstream, status, resp.Message)
	}

	reference := resp.Data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return &domain.CaptureSession{
		Reference:        reference,
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
	}, nil
}

// do sends one request and decodes the JSON envelope. Error bodies are decoded too so
// the provider message is available to the caller.
func (c *Client) do(ctx context.Context, method, path string, payload any, out any) (int, error) {
	if c.secretKey == "" {
		return 0, errors.New("missing paystack secret key")
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBody)).Decode(out); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return res.StatusCode, nil
		}
		return res.StatusCode, fmt.Errorf("decode paystack response: %w", err)
	}
	return res.StatusCode, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
