package order

import "context"

// Repository defines data access for orders. Lookups return
// apperr.ErrNotFound when no row matches.
type Repository interface {
	// CreateOrder persists a new order and its items atomically in a transaction.
	CreateOrder(ctx context.Context, o *Order) error

	// GetByID retrieves an order with its items by internal id.
	GetByID(ctx context.Context, id string) (*Order, error)

	// GetByPaymentToken retrieves the order whose current payment attempt used token.
	GetByPaymentToken(ctx context.Context, token string) (*Order, error)

	// GetByTrackingToken retrieves the order behind a guest tracking token.
	GetByTrackingToken(ctx context.Context, token string) (*Order, error)

	// UpdatePaymentToken re-associates the order with a new gateway token.
	UpdatePaymentToken(ctx context.Context, id string, token string) error

	// FinalizeOrder moves a PENDING order to PREPARING/SUCCESS and decrements
	// product stock, all inside one transaction with a row lock on the order.
	// The returned bool is false when the order was already finalized and the
	// call was a no-op.
	FinalizeOrder(ctx context.Context, id string) (*Order, bool, error)

	// CancelOrder transitions to CANCELLED if the order is still cancellable;
	// returns apperr.ErrConflict otherwise.
	CancelOrder(ctx context.Context, id string, reason string) error

	// UpdateStatus sets the fulfillment status without further checks;
	// callers validate the transition first.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error

	// List returns orders newest first, optionally filtered by status.
	List(ctx context.Context, status string) ([]*Order, error)
}
