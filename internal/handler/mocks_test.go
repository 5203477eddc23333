package handler

import (
	"context"
	"io"
	"net/http"

	"modamarket/internal/media"
	"modamarket/internal/middleware"
	"modamarket/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductList), args.Error(1)
}

func (m *MockProductService) ListOwn(ctx context.Context, sess *model.Session, filter model.ProductFilter) (*model.ProductList, error) {
	args := m.Called(ctx, sess, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductList), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, sess *model.Session, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, sess, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, sess, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	return m.Called(ctx, sess, id).Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, owner model.CartOwner, req *model.AddToCartRequest) (*model.CartView, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, req *model.UpdateCartItemRequest) (*model.CartView, error) {
	args := m.Called(ctx, owner, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.CartView, error) {
	args := m.Called(ctx, owner, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, owner model.CartOwner) error {
	return m.Called(ctx, owner).Error(0)
}

// MockShippingService is a mock implementation of ShippingService.
type MockShippingService struct {
	mock.Mock
}

func (m *MockShippingService) ListZones(ctx context.Context, sess *model.Session, vendorID *uuid.UUID) ([]model.ShippingZone, error) {
	args := m.Called(ctx, sess, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShippingZone), args.Error(1)
}

func (m *MockShippingService) PublicZones(ctx context.Context, vendorID uuid.UUID) ([]model.ShippingZone, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShippingZone), args.Error(1)
}

func (m *MockShippingService) GetZone(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.ShippingZone, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingZone), args.Error(1)
}

func (m *MockShippingService) CreateZone(ctx context.Context, sess *model.Session, req *model.ZoneRequest) (*model.ShippingZone, error) {
	args := m.Called(ctx, sess, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingZone), args.Error(1)
}

func (m *MockShippingService) UpdateZone(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ZoneRequest) (*model.ShippingZone, error) {
	args := m.Called(ctx, sess, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingZone), args.Error(1)
}

func (m *MockShippingService) DeleteZone(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	return m.Called(ctx, sess, id).Error(0)
}

func (m *MockShippingService) Quote(ctx context.Context, sess *model.Session, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	args := m.Called(ctx, sess, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuoteResponse), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, sess *model.Session, req *model.CheckoutRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, req))
}

func (m *MockOrderService) UploadProof(ctx context.Context, sess *model.Session, orderID uuid.UUID, file io.Reader) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID, file))
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID))
}

func (m *MockOrderService) AdminConfirm(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID, req))
}

func (m *MockOrderService) Cancel(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.CancelRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID, req))
}

func (m *MockOrderService) List(ctx context.Context, sess *model.Session, filter model.OrderFilter) (*model.OrderList, error) {
	args := m.Called(ctx, sess, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderList), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, sess, orderID))
}

func (m *MockOrderService) Summary(ctx context.Context, sess *model.Session) (*model.SalesSummary, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesSummary), args.Error(1)
}

// MockUploader is a mock implementation of media.Uploader.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, img *media.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

// withRoute attaches the session and chi URL params the router would normally provide.
func withRoute(r *http.Request, sess *model.Session, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess)
	}
	return r.WithContext(ctx)
}

func session(role model.Role) *model.Session {
	return &model.Session{UserID: uuid.New(), Role: role}
}
