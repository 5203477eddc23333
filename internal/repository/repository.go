package repository

import (
	"context"
	"time"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Lookups return (nil, nil) when the row does not exist. Mutations keyed by id
// report whether a row matched.

// UserRepository defines data access for accounts and their contact details.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error)
	Update(ctx context.Context, user *model.User) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	UpdatePaymentMethods(ctx context.Context, id uuid.UUID, methods []model.PaymentMethod) (bool, error)

	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error)
	AddAddress(ctx context.Context, addr *model.Address) error
	UpdateAddress(ctx context.Context, addr *model.Address) (bool, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error)

	AddPhone(ctx context.Context, phone *model.Phone) error
	UpdatePhone(ctx context.Context, phone *model.Phone) (bool, error)
	DeletePhone(ctx context.Context, userID, phoneID uuid.UUID) (bool, error)
}

// ProductRepository defines data access for the catalogue.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CartRepository defines data access for shopping carts.
type CartRepository interface {
	// Touch returns the owner's live cart, creating it if needed, and pushes its expiry to expiresAt.
	Touch(ctx context.Context, owner model.CartOwner, expiresAt time.Time) (uuid.UUID, error)

	// Find returns the owner's live cart with display fields joined, or nil.
	Find(ctx context.Context, owner model.CartOwner) (*model.Cart, error)

	GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error)

	// AddItem merges the line into an existing (product, size, color) line. The
	// resulting quantity must not exceed maxQuantity; otherwise it returns
	// model.ErrInsufficientStock and nothing changes.
	AddItem(ctx context.Context, item *model.CartItem, maxQuantity int) error

	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ShippingRepository defines data access for shipping zones.
type ShippingRepository interface {
	Create(ctx context.Context, zone *model.ShippingZone) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error)
	List(ctx context.Context, vendorID *uuid.UUID, onlyEnabled bool) ([]model.ShippingZone, error)
	Update(ctx context.Context, zone *model.ShippingZone) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// NewOrder carries everything needed to persist a checkout.
type NewOrder struct {
	Order       *model.Order
	Day         time.Time
	CartID      uuid.UUID
	CartItemIDs []uuid.UUID
}

// Settlement describes a payment confirmation attempt.
type Settlement struct {
	OrderID      uuid.UUID
	VendorID     *uuid.UUID
	RequireProof bool
	ConfirmedBy  uuid.UUID
	At           time.Time
}

// OrderRepository defines data access for orders.
type OrderRepository interface {
	// Create assigns the next order number for Day, inserts the order and
	// removes the consumed cart lines in one transaction.
	Create(ctx context.Context, in NewOrder) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	// SubmitProof records the proof URL if the order is still awaiting payment.
	// It returns nil when the order no longer qualifies.
	SubmitProof(ctx context.Context, orderID, userID uuid.UUID, url string, at time.Time) (*model.Order, error)

	// ConfirmPayment marks the order paid and decrements product stock in one
	// transaction. Only one caller can win; losers get nil.
	ConfirmPayment(ctx context.Context, s Settlement) (*model.Order, error)

	// UpdateStatus moves the order from `from` to `to`, returning nil if the
	// status changed concurrently.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus, at time.Time) (*model.Order, error)

	Cancel(ctx context.Context, orderID uuid.UUID, from model.OrderStatus, reason string, by uuid.UUID, at time.Time) (*model.Order, error)

	Summary(ctx context.Context, vendorID uuid.UUID) (*model.SalesSummary, error)
}
