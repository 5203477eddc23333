package service

import (
	"context"
	"time"

	"modamarket/internal/events"
	"modamarket/internal/media"
	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdatePaymentMethods(ctx context.Context, id uuid.UUID, methods []model.PaymentMethod) (bool, error) {
	args := m.Called(ctx, id, methods)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockUserRepository) AddAddress(ctx context.Context, addr *model.Address) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockUserRepository) UpdateAddress(ctx context.Context, addr *model.Address) (bool, error) {
	args := m.Called(ctx, addr)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, addressID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AddPhone(ctx context.Context, phone *model.Phone) error {
	return m.Called(ctx, phone).Error(0)
}

func (m *MockUserRepository) UpdatePhone(ctx context.Context, phone *model.Phone) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) DeletePhone(ctx context.Context, userID, phoneID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, phoneID)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]model.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Touch(ctx context.Context, owner model.CartOwner, expiresAt time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, owner, expiresAt)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCartRepository) Find(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	args := m.Called(ctx, cartID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartRepository) AddItem(ctx context.Context, item *model.CartItem, maxQuantity int) error {
	return m.Called(ctx, item, maxQuantity).Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, cartID, itemID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, cartID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *MockCartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockShippingRepository is a mock implementation of ShippingRepository.
type MockShippingRepository struct {
	mock.Mock
}

func (m *MockShippingRepository) Create(ctx context.Context, zone *model.ShippingZone) error {
	return m.Called(ctx, zone).Error(0)
}

func (m *MockShippingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingZone), args.Error(1)
}

func (m *MockShippingRepository) List(ctx context.Context, vendorID *uuid.UUID, onlyEnabled bool) ([]model.ShippingZone, error) {
	args := m.Called(ctx, vendorID, onlyEnabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShippingZone), args.Error(1)
}

func (m *MockShippingRepository) Update(ctx context.Context, zone *model.ShippingZone) (bool, error) {
	args := m.Called(ctx, zone)
	return args.Bool(0), args.Error(1)
}

func (m *MockShippingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, in repository.NewOrder) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) SubmitProof(ctx context.Context, orderID, userID uuid.UUID, url string, at time.Time) (*model.Order, error) {
	args := m.Called(ctx, orderID, userID, url, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ConfirmPayment(ctx context.Context, s repository.Settlement) (*model.Order, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus, at time.Time) (*model.Order, error) {
	args := m.Called(ctx, orderID, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Cancel(ctx context.Context, orderID uuid.UUID, from model.OrderStatus, reason string, by uuid.UUID, at time.Time) (*model.Order, error) {
	args := m.Called(ctx, orderID, from, reason, by, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Summary(ctx context.Context, vendorID uuid.UUID) (*model.SalesSummary, error) {
	args := m.Called(ctx, vendorID)
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

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func session(role model.Role) *model.Session {
	return &model.Session{UserID: uuid.New(), Email: string(role) + "@example.com", Name: string(role), Role: role}
}
