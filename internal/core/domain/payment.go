package domain

// ProviderStatusSuccess is the provider-side status of a settled charge.
const ProviderStatusSuccess = "success"

// VerificationResult is what the payment provider reports for a reference.
type VerificationResult struct {
	Reference string `json:"reference"`
	Success   bool   `json:"success"`
	Amount    int64  `json:"amount"` // Minor units
	Status    string `json:"status"` // Provider transaction status, e.g. "success", "abandoned"
	Message   string `json:"message,omitempty"`
}

// CaptureRequest is sent to the payment provider to open a checkout.
type CaptureRequest struct {
	Email          string
	Amount         int64 // Minor units
	CurrencyCode   string
	Reference      string
	OrderID        string
	BuyerID        string
	VendorID       string
	CommissionRate string
}

// CaptureSession is what the buyer needs to complete payment with the provider.
type CaptureSession struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationURL"`
	AccessCode       string `json:"accessCode"`
}
