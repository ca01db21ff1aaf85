package order

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment axis of an order's lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPreparing OrderStatus = "PREPARING"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus is the payment axis, independent of fulfillment.
// Terminal once it leaves UNPAID.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// validTransitions defines the allowed fulfillment state machine.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether a buyer may still cancel. Shipment is the cutoff.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusPreparing
}

// Order is a guest purchase. Identity is three-fold: ID is the internal key and
// the gateway correlation id, TrackingToken is the guest's only credential,
// PaymentToken reconciles the gateway callback for the current attempt.
// Buyer fields are a snapshot taken at creation and never re-synced.
type Order struct {
	ID            uuid.UUID     `json:"id"`
	OrderNumber   string        `json:"order_number"`
	TrackingToken uuid.UUID     `json:"tracking_token"`
	PaymentToken  string        `json:"-"`

	GuestName    string `json:"guest_name"`
	GuestSurname string `json:"guest_surname,omitempty"`
	GuestEmail   string `json:"guest_email"`
	GuestPhone   string `json:"guest_phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	District     string `json:"district,omitempty"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`

	IsCorporate bool   `json:"is_corporate"`
	CompanyName string `json:"company_name,omitempty"`
	TaxOffice   string `json:"tax_office,omitempty"`
	TaxNumber   string `json:"tax_number,omitempty"`

	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CancelReason  string          `json:"cancel_reason,omitempty"`

	Items     []*OrderItem `json:"items,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OrderItem is a line item. UnitPrice is captured at creation and is
// authoritative; the referenced product may change price later.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ── request / response DTOs ───────────────────────────────────────────────────

// CartLine is one client-submitted cart entry. Prices are never accepted from
// the client.
type CartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// GuestInfo is the buyer's contact and shipping data.
type GuestInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	ZipCode  string `json:"zipCode"`
}

// InvoiceInfo holds optional corporate billing fields; the three corporate
// fields are required as a group when IsCorporate is set.
type InvoiceInfo struct {
	IsCorporate bool   `json:"isCorporate"`
	CompanyName string `json:"companyName,omitempty"`
	TaxOffice   string `json:"taxOffice,omitempty"`
	TaxNumber   string `json:"taxNumber,omitempty"`
}

// CheckoutRequest is the body of POST /orders/checkout.
type CheckoutRequest struct {
	Items       []CartLine   `json:"items"`
	GuestInfo   GuestInfo    `json:"guestInfo"`
	InvoiceInfo *InvoiceInfo `json:"invoiceInfo,omitempty"`
}

// CheckoutResult is returned to the storefront. A gateway rejection is a
// structured failure here, not an error.
type CheckoutResult struct {
	Status         string `json:"status"`
	PaymentPageURL string `json:"paymentPageUrl,omitempty"`
	Token          string `json:"token,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// CompletionResult is the outcome of the gateway callback.
type CompletionResult struct {
	Status        string `json:"status"`
	OrderNumber   string `json:"orderNumber,omitempty"`
	TrackingToken string `json:"trackingToken,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// TrackingAddress is the deliberately redacted address on the public
// tracking view.
type TrackingAddress struct {
	City     string `json:"city"`
	District string `json:"district,omitempty"`
}

// TrackingItem is a line item on the public tracking view.
type TrackingItem struct {
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

// TrackingView is the public order view behind the tracking token.
type TrackingView struct {
	OrderNumber     string          `json:"orderNumber"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	TotalAmount     string          `json:"totalAmount"`
	Items           []TrackingItem  `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	ShippingAddress TrackingAddress `json:"shippingAddress"`
}

// CancelRequest is the body of POST /orders/cancel.
type CancelRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason,omitempty"`
}

// ── helpers ───────────────────────────────────────────────────────────────────

// normalizePhone reduces a phone number to the single +90XXXXXXXXXX form.
// Accepts "0555 123 45 67", "5551234567", "+90 555 123 45 67" and the like.
func normalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "90"):
		return "+" + d
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		return "+90" + d[1:]
	case len(d) == 10:
		return "+90" + d
	case d == "":
		return ""
	default:
		return "+" + d
	}
}

// splitName separates a full name into given and family name. The last
// whitespace-delimited token is the family name; a single token has none.
func splitName(full string) (given, family string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

// generateOrderNumber returns a random 6-digit display number. It is not
// guaranteed unique; identity rests on the internal id and the tracking token.
func generateOrderNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano()%900000+100000, 10)
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}
