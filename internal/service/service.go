package service

import (
	"context"
	"io"

	"modamarket/internal/model"

	"github.com/google/uuid"
)

// Operations taking a *model.Session expect the caller already authenticated.
// Role sets are enforced again here so the services are safe to call directly.

// AuthService defines registration and login.
type AuthService interface {
	// Register creates a cliente account and returns a signed token.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)

	// Login checks the credentials and returns a signed token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
}

// UserService defines profile and admin account management.
type UserService interface {
	GetProfile(ctx context.Context, sess *model.Session) (*model.User, error)
	UpdateProfile(ctx context.Context, sess *model.Session, req *model.UpdateProfileRequest) (*model.User, error)

	AddAddress(ctx context.Context, sess *model.Session, req *model.AddressRequest) (*model.Address, error)
	UpdateAddress(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.AddressRequest) (*model.Address, error)
	DeleteAddress(ctx context.Context, sess *model.Session, id uuid.UUID) error

	AddPhone(ctx context.Context, sess *model.Session, req *model.PhoneRequest) (*model.Phone, error)
	UpdatePhone(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.PhoneRequest) (*model.Phone, error)
	DeletePhone(ctx context.Context, sess *model.Session, id uuid.UUID) error

	// UpdatePaymentMethods replaces the bank details a vendor shows to buyers.
	UpdatePaymentMethods(ctx context.Context, sess *model.Session, req *model.PaymentMethodsRequest) (*model.User, error)

	List(ctx context.Context, sess *model.Session, filter model.UserFilter) (*model.UserList, error)
	Get(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, sess *model.Session, req *model.CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, sess *model.Session, id uuid.UUID) error
}

// ProductService defines catalogue operations.
type ProductService interface {
	// List returns active products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) (*model.ProductList, error)

	// ListOwn returns the vendor's products, drafts included.
	ListOwn(ctx context.Context, sess *model.Session, filter model.ProductFilter) (*model.ProductList, error)

	// Get returns a product. Drafts are only visible to their seller and admins.
	Get(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.Product, error)

	Create(ctx context.Context, sess *model.Session, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, sess *model.Session, id uuid.UUID) error
}

// CartService defines shopping cart operations.
type CartService interface {
	Get(ctx context.Context, owner model.CartOwner) (*model.CartView, error)
	AddItem(ctx context.Context, owner model.CartOwner, req *model.AddToCartRequest) (*model.CartView, error)
	UpdateItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, req *model.UpdateCartItemRequest) (*model.CartView, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.CartView, error)
	Clear(ctx context.Context, owner model.CartOwner) error
}

// ShippingService defines shipping zone management and quoting.
type ShippingService interface {
	// ListZones returns the zones the caller manages. Admins may pass a vendor filter.
	ListZones(ctx context.Context, sess *model.Session, vendorID *uuid.UUID) ([]model.ShippingZone, error)

	// PublicZones returns a vendor's enabled zones.
	PublicZones(ctx context.Context, vendorID uuid.UUID) ([]model.ShippingZone, error)

	GetZone(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.ShippingZone, error)
	CreateZone(ctx context.Context, sess *model.Session, req *model.ZoneRequest) (*model.ShippingZone, error)
	UpdateZone(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ZoneRequest) (*model.ShippingZone, error)
	DeleteZone(ctx context.Context, sess *model.Session, id uuid.UUID) error

	// Quote returns the vendor's zones that serve the requested address, cheapest first.
	Quote(ctx context.Context, sess *model.Session, req *model.QuoteRequest) (*model.QuoteResponse, error)
}

// OrderService defines the order lifecycle.
type OrderService interface {
	// Checkout creates one order from the caller's cart lines of a single vendor.
	Checkout(ctx context.Context, sess *model.Session, req *model.CheckoutRequest) (*model.Order, error)

	// UploadProof stores a payment proof image for the customer's order.
	UploadProof(ctx context.Context, sess *model.Session, orderID uuid.UUID, file io.Reader) (*model.Order, error)

	// ConfirmPayment settles the order for its vendor and decrements stock.
	ConfirmPayment(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error)

	// AdminConfirm settles the order on the admin's authority, with or without a proof.
	AdminConfirm(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error)

	UpdateStatus(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error)
	Cancel(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.CancelRequest) (*model.Order, error)

	// List returns the orders visible to the caller.
	List(ctx context.Context, sess *model.Session, filter model.OrderFilter) (*model.OrderList, error)
	Get(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error)

	// Summary aggregates the vendor's sales.
	Summary(ctx context.Context, sess *model.Session) (*model.SalesSummary, error)
}

// requireRole fails with an authentication or authorisation error unless
// the session holds one of roles.
func requireRole(sess *model.Session, roles ...model.Role) error {
	if sess == nil {
		return model.ErrUnauthenticated
	}
	for _, r := range roles {
		if sess.Role == r {
			return nil
		}
	}
	return model.ErrForbidden
}
