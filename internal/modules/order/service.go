package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emrekoc/butika-backend/internal/apperr"
	"github.com/emrekoc/butika-backend/internal/modules/catalog"
	"github.com/emrekoc/butika-backend/internal/modules/notification"
	"github.com/emrekoc/butika-backend/internal/modules/payment"
)

// ProductFinder is the slice of the catalog the checkout flow needs.
type ProductFinder interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Service implements the checkout and order-access workflows.
type Service interface {
	// Checkout validates the cart against the catalog, persists a PENDING
	// order and opens a hosted payment session.
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)

	// CompletePayment reconciles the gateway's asynchronous callback and
	// finalizes the order. Idempotent against duplicate callbacks.
	CompletePayment(ctx context.Context, token string) (*CompletionResult, error)

	// GetOrder returns an order by id. When email is non-empty it must match
	// the order's stored email exactly.
	GetOrder(ctx context.Context, id, email string) (*Order, error)

	// TrackOrder returns the public tracking view behind a tracking token.
	TrackOrder(ctx context.Context, token string) (*TrackingView, error)

	// CancelOrder cancels a not-yet-shipped order by tracking token.
	CancelOrder(ctx context.Context, token, reason string) (*Order, error)

	// UpdateStatus advances an order's fulfillment status (back office).
	UpdateStatus(ctx context.Context, id, status string) (*Order, error)

	// ListOrders returns orders for the back office, optionally by status.
	ListOrders(ctx context.Context, status string) ([]*Order, error)
}

type service struct {
	repo      Repository
	products  ProductFinder
	gateway   payment.Gateway
	mailer    notification.Mailer
	clientURL string
}

// NewService creates the order service.
func NewService(repo Repository, products ProductFinder, gateway payment.Gateway, mailer notification.Mailer, clientURL string) Service {
	return &service{
		repo:      repo,
		products:  products,
		gateway:   gateway,
		mailer:    mailer,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	// Re-fetch every product: client-submitted prices are never trusted.
	// Lines whose product no longer resolves are dropped, not fatal.
	var items []*OrderItem
	total := decimal.Zero
	for _, line := range req.Items {
		p, err := s.products.GetProduct(ctx, line.ID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				log.Printf("checkout: dropping cart line, product %s not found", line.ID)
				continue
			}
			return nil, fmt.Errorf("fetch product %s: %w", line.ID, err)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, &OrderItem{
			ID:          uuid.New(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   p.Price,
		})
	}
	if len(items) == 0 {
		return nil, apperr.Validationf("no purchasable items in cart")
	}

	given, family := splitName(req.GuestInfo.Name)
	o := &Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(),
		TrackingToken: uuid.New(),
		GuestName:     given,
		GuestSurname:  family,
		GuestEmail:    req.GuestInfo.Email,
		GuestPhone:    normalizePhone(req.GuestInfo.Phone),
		Address:       req.GuestInfo.Address,
		City:          req.GuestInfo.City,
		District:      req.GuestInfo.District,
		ZipCode:       req.GuestInfo.ZipCode,
		Country:       "Türkiye",
		TotalAmount:   total,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Items:         items,
	}
	if req.InvoiceInfo != nil && req.InvoiceInfo.IsCorporate {
		o.IsCorporate = true
		o.CompanyName = req.InvoiceInfo.CompanyName
		o.TaxOffice = req.InvoiceInfo.TaxOffice
		o.TaxNumber = req.InvoiceInfo.TaxNumber
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, s.sessionRequest(o))
	if err != nil {
		// The PENDING row is kept on purpose: abandoned orders are cheap
		// and auditable.
		log.Printf("checkout: gateway session failed for order %s: %v", o.ID, err)
		return &CheckoutResult{
			Status:       "failure",
			ErrorMessage: "payment session could not be created",
		}, nil
	}

	// Best-effort: verification falls back to the conversation id if this
	// write is lost.
	if err := s.repo.UpdatePaymentToken(ctx, o.ID.String(), session.Token); err != nil {
		log.Printf("checkout: persist payment token for order %s: %v", o.ID, err)
	}

	return &CheckoutResult{
		Status:         "success",
		PaymentPageURL: session.PaymentPageURL,
		Token:          session.Token,
		OrderID:        o.ID.String(),
	}, nil
}

func (s *service) CompletePayment(ctx context.Context, token string) (*CompletionResult, error) {
	if token == "" {
		return nil, apperr.Validationf("payment token is missing")
	}

	result, err := s.gateway.RetrieveResult(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify payment token: %w", err)
	}
	if !result.Succeeded() {
		msg := result.ErrorMessage
		if msg == "" {
			msg = "payment was not completed"
		}
		log.Printf("payment: gateway reported failure for token %s: %s", token, msg)
		return &CompletionResult{Status: "failure", ErrorMessage: msg}, nil
	}

	o, err := s.resolveOrder(ctx, token, result.ConversationID)
	if err != nil {
		return nil, err
	}

	final, finalized, err := s.repo.FinalizeOrder(ctx, o.ID.String())
	if err != nil {
		return nil, fmt.Errorf("finalize order %s: %w", o.ID, err)
	}

	if finalized {
		if err := s.mailer.SendOrderConfirmation(ctx, s.confirmation(final)); err != nil {
			// Email is best-effort; the payment is already final.
			log.Printf("order %s: confirmation email failed: %v", final.ID, err)
		}
	}

	return &CompletionResult{
		Status:        "success",
		OrderNumber:   final.OrderNumber,
		TrackingToken: final.TrackingToken.String(),
	}, nil
}

// resolveOrder finds the order for a verified payment: by token first, then by
// the gateway's conversation id. Neither resolving is a data-integrity gap.
func (s *service) resolveOrder(ctx context.Context, token, conversationID string) (*Order, error) {
	o, err := s.repo.GetByPaymentToken(ctx, token)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if conversationID != "" {
		o, err = s.repo.GetByID(ctx, conversationID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	log.Printf("payment: no order for token %s or conversation id %q", token, conversationID)
	return nil, fmt.Errorf("no order matches payment token %s: %w", token, apperr.ErrReconciliation)
}

func (s *service) GetOrder(ctx context.Context, id, email string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email != "" && o.GuestEmail != email {
		return nil, fmt.Errorf("order %s does not belong to %s: %w", id, email, apperr.ErrAccessDenied)
	}
	return o, nil
}

func (s *service) TrackOrder(ctx context.Context, token string) (*TrackingView, error) {
	o, err := s.repo.GetByTrackingToken(ctx, token)
	if err != nil {
		return nil, err
	}

	items := make([]TrackingItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, TrackingItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
		})
	}
	return &TrackingView{
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Items:         items,
		CreatedAt:     o.CreatedAt,
		// Full address stays private; the public view shows city/district only.
		ShippingAddress: TrackingAddress{City: o.City, District: o.District},
	}, nil
}

func (s *service) CancelOrder(ctx context.Context, token, reason string) (*Order, error) {
	o, err := s.repo.GetByTrackingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CancelOrder(ctx, o.ID.String(), reason); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, o.ID.String())
}

func (s *service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := OrderStatus(strings.ToUpper(status))
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("cannot transition order from %s to %s: %w", o.Status, next, apperr.ErrConflict)
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, status string) ([]*Order, error) {
	return s.repo.List(ctx, status)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func validateCheckout(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return apperr.Validationf("cart must contain at least one item")
	}
	for _, line := range req.Items {
		if line.ID == "" {
			return apperr.Validationf("cart item id is required")
		}
		if line.Quantity < 1 {
			return apperr.Validationf("quantity must be at least 1 for product %s", line.ID)
		}
	}
	g := req.GuestInfo
	switch {
	case strings.TrimSpace(g.Name) == "":
		return apperr.Validationf("guest name is required")
	case g.Email == "" || !strings.Contains(g.Email, "@"):
		return apperr.Validationf("a valid guest email is required")
	case g.Phone == "":
		return apperr.Validationf("guest phone is required")
	case g.Address == "":
		return apperr.Validationf("address is required")
	case g.City == "":
		return apperr.Validationf("city is required")
	case g.ZipCode == "":
		return apperr.Validationf("zip code is required")
	}
	if inv := req.InvoiceInfo; inv != nil && inv.IsCorporate {
		if inv.CompanyName == "" || inv.TaxOffice == "" || inv.TaxNumber == "" {
			return apperr.Validationf("corporate invoices require company name, tax office and tax number")
		}
	}
	return nil
}

// sessionRequest maps an order to the gateway's shape. Quantities are expanded
// into single-unit basket entries because the hosted form cannot express them.
func (s *service) sessionRequest(o *Order) *payment.SessionRequest {
	var basket []payment.BasketItem
	for _, item := range o.Items {
		for unit := 0; unit < item.Quantity; unit++ {
			basket = append(basket, payment.BasketItem{
				ID:       fmt.Sprintf("%s-%d", item.ProductID, unit+1),
				Name:     item.ProductName,
				Category: "Storefront",
				Price:    item.UnitPrice,
			})
		}
	}
	return &payment.SessionRequest{
		ConversationID: o.ID.String(),
		Price:          o.TotalAmount,
		Buyer: payment.Buyer{
			ID:      o.ID.String(),
			Name:    o.GuestName,
			Surname: o.GuestSurname,
			Email:   o.GuestEmail,
			Phone:   o.GuestPhone,
			Address: o.Address,
			City:    o.City,
			ZipCode: o.ZipCode,
			Country: o.Country,
		},
		BasketItems: basket,
	}
}

func (s *service) confirmation(o *Order) notification.OrderConfirmation {
	items := make([]notification.ConfirmationItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, notification.ConfirmationItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return notification.OrderConfirmation{
		OrderNumber: o.OrderNumber,
		TrackingURL: fmt.Sprintf("%s/orders/track?token=%s", s.clientURL, o.TrackingToken),
		GuestName:   strings.TrimSpace(o.GuestName + " " + o.GuestSurname),
		GuestEmail:  o.GuestEmail,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
	}
}
