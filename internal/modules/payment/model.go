package payment

import "github.com/shopspring/decimal"

// Buyer is the payee snapshot sent to the gateway at session creation.
type Buyer struct {
	ID      string
	Name    string
	Surname string
	Email   string
	Phone   string
	Address string
	City    string
	ZipCode string
	Country string
}

// BasketItem is a single-unit basket entry. The hosted form cannot express
// quantities, so a quantity-3 order line becomes 3 entries.
type BasketItem struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
}

// SessionRequest describes one hosted-checkout session. ConversationID carries
// the local order id and comes back on verification as the fallback
// correlation key.
type SessionRequest struct {
	ConversationID string
	Price          decimal.Decimal
	Buyer          Buyer
	BasketItems    []BasketItem
}

// Session is a created hosted-checkout session. Token reconciles the
// asynchronous callback; PaymentPageURL is where the buyer's browser goes.
type Session struct {
	Token          string
	PaymentPageURL string
}

// Result is the verified outcome of a payment attempt.
type Result struct {
	Status         string
	PaymentStatus  string
	ConversationID string
	PaymentID      string
	ErrorMessage   string
}

// Succeeded reports whether the gateway confirmed the payment.
func (r *Result) Succeeded() bool {
	return r.Status == "success" && r.PaymentStatus == "SUCCESS"
}
