package pesapal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// apiError is the error object Pesapal embeds in otherwise-200 responses.
type apiError struct {
	Type    string `json:"error_type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *apiError) isZero() bool {
	return e == nil || (e.Code == "" && e.Message == "" && e.Type == "")
}

type authRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type authResponse struct {
	Token      string    `json:"token"`
	ExpiryDate string    `json:"expiryDate"`
	Error      *apiError `json:"error"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
}

// RegisterIPNParams configures instant payment notification registration.
type RegisterIPNParams struct {
	URL              string `json:"url"`
	NotificationType string `json:"ipn_notification_type"`
}

// IPNRegistration is the gateway's record of a registered IPN endpoint.
type IPNRegistration struct {
	ID               string    `json:"ipn_id"`
	URL              string    `json:"url"`
	NotificationType int       `json:"ipn_notification_type"`
	Status           string    `json:"ipn_status_description"`
	Error            *apiError `json:"error"`
}

// BillingAddress is the customer contact block submitted with an order.
type BillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Line1        string `json:"line_1,omitempty"`
	City         string `json:"city,omitempty"`
}

// SubmitOrderParams describes a hosted-checkout order submission.
type SubmitOrderParams struct {
	MerchantReference string          `json:"id"`
	Currency          string          `json:"currency"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	CallbackURL       string          `json:"callback_url"`
	NotificationID    string          `json:"notification_id"`
	BillingAddress    BillingAddress  `json:"billing_address"`
}

// OrderSubmission is the gateway's response to a submitted order.
type OrderSubmission struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Error             *apiError `json:"error"`
	Status            string    `json:"status"`
}

// TransactionStatus is the gateway's view of one payment attempt.
type TransactionStatus struct {
	PaymentMethod            string          `json:"payment_method"`
	Amount                   decimal.Decimal `json:"amount"`
	CreatedDate              string          `json:"created_date"`
	ConfirmationCode         string          `json:"confirmation_code"`
	PaymentStatusDescription string          `json:"payment_status_description"`
	Description              string          `json:"description"`
	PaymentAccount           string          `json:"payment_account"`
	MerchantReference        string          `json:"merchant_reference"`
	Currency                 string          `json:"currency"`
	StatusCode               int             `json:"status_code"`
	Error                    *apiError       `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	parts := []string{}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, ": ")
}
