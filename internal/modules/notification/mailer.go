// Package notification sends transactional order email. Sending is always
// best-effort at call sites: a failed email never fails a paid order.
package notification

import "context"

// ConfirmationItem is one order line in the confirmation email.
type ConfirmationItem struct {
	Name      string
	Quantity  int
	UnitPrice string
}

// OrderConfirmation carries everything the confirmation email needs,
// decoupled from the order entity.
type OrderConfirmation struct {
	OrderNumber string
	TrackingURL string
	GuestName   string
	GuestEmail  string
	TotalAmount string
	Items       []ConfirmationItem
}

// Mailer sends transactional mail.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, c OrderConfirmation) error
}
