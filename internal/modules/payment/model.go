package payment

import "github.com/shopspring/decimal"

// Provider represents a supported payment gateway.
type Provider string

const (
	ProviderPesapal     Provider = "PESAPAL"
	ProviderStripe      Provider = "STRIPE"
	ProviderFlutterwave Provider = "FLUTTERWAVE"
)

// BillingAddress is the customer contact block submitted with an order.
type BillingAddress struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email_address,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Line1       string `json:"line_1,omitempty"`
	Line2       string `json:"line_2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// SubmitOrderRequest is the provider-agnostic payload for submitting an order
// payment.
type SubmitOrderRequest struct {
	OrderID         string
	StoreID         string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	CallbackURL     string
	CancellationURL string
	Billing         BillingAddress
}

// SubmitOrderResponse is the normalised result of a successful submission.
type SubmitOrderResponse struct {
	TrackingID  string `json:"tracking_id"`
	RedirectURL string `json:"redirect_url"`
}

// TransactionStatus is the normalised provider view of a submitted order.
// StatusCode follows the canonical numeric table (see MapStatusCode).
type TransactionStatus struct {
	StatusCode       int             `json:"status_code"`
	Description      string          `json:"description,omitempty"`
	Method           string          `json:"payment_method,omitempty"`
	ConfirmationCode string          `json:"confirmation_code,omitempty"`
	Account          string          `json:"payment_account,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	CreatedDate      string          `json:"created_date,omitempty"`
	Message          string          `json:"message,omitempty"`
}
