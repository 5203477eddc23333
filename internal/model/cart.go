package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartOwner identifies whose cart is addressed: a customer or an anonymous session.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID string
}

// IsZero reports whether no owner could be resolved.
func (o CartOwner) IsZero() bool {
	return o.UserID == nil && o.SessionID == ""
}

// Cart is a shopping cart.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	SessionID *string    `json:"sessionId,omitempty"`
	Items     []CartItem `json:"items"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is one cart line. Display fields are joined at read time.
type CartItem struct {
	ID         uuid.UUID       `json:"id"`
	CartID     uuid.UUID       `json:"-"`
	ProductID  uuid.UUID       `json:"productId"`
	VendorID   uuid.UUID       `json:"vendorId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Size       string          `json:"size"`
	Color      string          `json:"color"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Stock      int             `json:"stock"`
	VendorName string          `json:"vendorName"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// VendorGroup holds the cart lines of one vendor.
type VendorGroup struct {
	VendorID   uuid.UUID       `json:"vendorId"`
	VendorName string          `json:"vendorName"`
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// CartView is the cart with its vendor grouping.
type CartView struct {
	Cart      *Cart           `json:"cart"`
	Groups    []VendorGroup   `json:"groups"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// AddToCartRequest adds a product to the cart.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size" validate:"max=20"`
	Color     string    `json:"color" validate:"max=30"`
}

// UpdateCartItemRequest changes the quantity of a line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
