package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"modamarket/internal/events"
	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 2, 30, 0, 0, time.UTC)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type orderFixture struct {
	orders    *MockOrderRepository
	carts     *MockCartRepository
	products  *MockProductRepository
	users     *MockUserRepository
	shipping  *MockShippingRepository
	uploader  *MockUploader
	publisher *MockPublisher
	logs      *bytes.Buffer
	svc       OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:    new(MockOrderRepository),
		carts:     new(MockCartRepository),
		products:  new(MockProductRepository),
		users:     new(MockUserRepository),
		shipping:  new(MockShippingRepository),
		uploader:  new(MockUploader),
		publisher: new(MockPublisher),
		logs:      new(bytes.Buffer),
	}
	santiago := time.FixedZone("CLT", -3*60*60)

	svc := NewOrderService(
		OrderRepositories{Orders: f.orders, Carts: f.carts, Products: f.products, Users: f.users, Shipping: f.shipping},
		f.uploader,
		f.publisher,
		OrderOptions{Location: santiago, MaxProofBytes: 1024},
		zerolog.New(f.logs),
	)
	svc.(*orderService).now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func (f *orderFixture) assertExpectations(t *testing.T) {
	f.orders.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.shipping.AssertExpectations(t)
	f.uploader.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

type checkoutScenario struct {
	customer *model.Session
	vendor   *model.User
	zone     *model.ShippingZone
	address  *model.Address
	cart     *model.Cart
	products map[uuid.UUID]model.Product
}

func newCheckoutScenario() *checkoutScenario {
	customer := session(model.RoleCustomer)
	vendor := &model.User{ID: uuid.New(), Name: "Tienda", Role: model.RoleVendor, Commission: decimal.NewFromInt(10)}
	other := uuid.New()

	dress := model.Product{ID: uuid.New(), SellerID: vendor.ID, Name: "Vestido", Price: decimal.NewFromInt(10000),
		Stock: 5, Active: true, Images: []string{"https://cdn.example.com/v.jpg"}}
	scarf := model.Product{ID: uuid.New(), SellerID: vendor.ID, Name: "Pañuelo", Price: decimal.NewFromInt(5000),
		Stock: 1, Active: true, Images: []string{"https://cdn.example.com/p.jpg"}}

	cart := &model.Cart{ID: uuid.New(), UserID: &customer.UserID, Items: []model.CartItem{
		{ID: uuid.New(), ProductID: dress.ID, VendorID: vendor.ID, Quantity: 2, Price: dress.Price, Size: "M", Name: dress.Name},
		{ID: uuid.New(), ProductID: uuid.New(), VendorID: other, Quantity: 1, Price: decimal.NewFromInt(999)},
		{ID: uuid.New(), ProductID: scarf.ID, VendorID: vendor.ID, Quantity: 1, Price: scarf.Price, Name: scarf.Name},
	}}

	return &checkoutScenario{
		customer: customer,
		vendor:   vendor,
		zone: &model.ShippingZone{ID: uuid.New(), VendorID: vendor.ID, Type: model.ZoneCommune,
			Commune: "Providencia", Cost: decimal.NewFromInt(3000), Enabled: true},
		address: &model.Address{ID: uuid.New(), UserID: customer.UserID, Street: "Av. Providencia",
			Number: "1234", Commune: "Providencia", Region: "Metropolitana"},
		cart:     cart,
		products: map[uuid.UUID]model.Product{dress.ID: dress, scarf.ID: scarf},
	}
}

func (sc *checkoutScenario) request() *model.CheckoutRequest {
	return &model.CheckoutRequest{
		VendorID:       sc.vendor.ID,
		ShippingMethod: model.ShippingDelivery,
		ShippingZoneID: sc.zone.ID,
		AddressID:      &sc.address.ID,
	}
}

func (sc *checkoutScenario) expectLookups(f *orderFixture) {
	ctx := context.Background()
	f.users.On("GetByID", ctx, sc.vendor.ID).Return(sc.vendor, nil)
	f.shipping.On("GetByID", ctx, sc.zone.ID).Return(sc.zone, nil)
	f.carts.On("Find", ctx, model.CartOwner{UserID: &sc.customer.UserID}).Return(sc.cart, nil)
}

func TestOrderService_Checkout_Success(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	sc := newCheckoutScenario()
	sc.expectLookups(f)

	f.users.On("GetAddress", ctx, sc.customer.UserID, sc.address.ID).Return(sc.address, nil)
	f.products.On("GetByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).Return(sc.products, nil)
	f.orders.On("Create", ctx, mock.MatchedBy(func(in repository.NewOrder) bool {
		// 02:30 UTC on the 14th is still the 13th in Santiago.
		return in.CartID == sc.cart.ID &&
			len(in.CartItemIDs) == 2 &&
			in.Day.Format("20060102") == "20260313"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(repository.NewOrder).Order.OrderNumber = "202603130001"
	}).Return(nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.OrderCreated && e.OrderNumber == "202603130001"
	})).Return(nil)

	order, err := f.svc.Checkout(ctx, sc.customer, sc.request())

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "202603130001", order.OrderNumber)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, decimal.NewFromInt(25000).Equal(order.Subtotal))
	assert.True(t, decimal.NewFromInt(3000).Equal(order.ShippingCost))
	assert.True(t, decimal.NewFromInt(28000).Equal(order.Total))
	assert.True(t, decimal.NewFromInt(2800).Equal(order.CommissionAmount))
	assert.True(t, decimal.NewFromInt(25200).Equal(order.VendorEarnings))
	assert.Equal(t, "https://cdn.example.com/v.jpg", order.Items[0].Image)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Providencia", order.ShippingAddress.Commune)
	f.assertExpectations(t)
}

func TestOrderService_Checkout_Pickup(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	sc := newCheckoutScenario()
	sc.zone.Type = model.ZonePickupStore
	sc.zone.PickupAddress = "Local 12, Mall Costanera"
	sc.zone.Cost = decimal.Zero
	sc.expectLookups(f)

	f.products.On("GetByIDs", ctx, mock.Anything).Return(sc.products, nil)
	f.orders.On("Create", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	req := sc.request()
	req.ShippingMethod = model.ShippingPickup
	req.AddressID = nil

	order, err := f.svc.Checkout(ctx, sc.customer, req)

	require.NoError(t, err, "event delivery failures do not fail checkout")
	require.NotNil(t, order.PickupAddress)
	assert.Equal(t, "Local 12, Mall Costanera", *order.PickupAddress)
	assert.Nil(t, order.ShippingAddress)
	assert.True(t, decimal.NewFromInt(25000).Equal(order.Total))
	f.assertExpectations(t)
}

func TestOrderService_Checkout_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Non-customer is forbidden", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.Checkout(ctx, session(model.RoleVendor), newCheckoutScenario().request())
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("No session is unauthenticated", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.Checkout(ctx, nil, newCheckoutScenario().request())
		assert.ErrorIs(t, err, model.ErrUnauthenticated)
	})

	t.Run("Invalid shipping method", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		req := sc.request()
		req.ShippingMethod = "drone"
		_, err := f.svc.Checkout(ctx, sc.customer, req)
		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.KindValidation, de.Kind)
	})

	t.Run("Unknown vendor", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		f.users.On("GetByID", ctx, sc.vendor.ID).Return(nil, nil)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrVendorNotFound)
	})

	t.Run("Zone of another vendor", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.zone.VendorID = uuid.New()
		f.users.On("GetByID", ctx, sc.vendor.ID).Return(sc.vendor, nil)
		f.shipping.On("GetByID", ctx, sc.zone.ID).Return(sc.zone, nil)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrZoneNotFound)
	})

	t.Run("No lines for the vendor", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.cart.Items = sc.cart.Items[1:2]
		sc.expectLookups(f)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrEmptyVendorCart)
	})

	t.Run("Zone does not serve the address", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.address.Commune = "Maipú"
		sc.expectLookups(f)
		f.users.On("GetAddress", ctx, sc.customer.UserID, sc.address.ID).Return(sc.address, nil)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrZoneNotApplicable)
	})

	t.Run("Pickup with a delivery zone", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.expectLookups(f)
		req := sc.request()
		req.ShippingMethod = model.ShippingPickup
		_, err := f.svc.Checkout(ctx, sc.customer, req)
		assert.ErrorIs(t, err, model.ErrZoneNotApplicable)
	})

	t.Run("Disabled zone", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.zone.Enabled = false
		sc.expectLookups(f)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrZoneNotApplicable)
	})

	t.Run("Address of someone else", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.expectLookups(f)
		f.users.On("GetAddress", ctx, sc.customer.UserID, sc.address.ID).Return(nil, nil)
		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		assert.ErrorIs(t, err, model.ErrAddressNotFound)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		f := newOrderFixture(t)
		sc := newCheckoutScenario()
		sc.expectLookups(f)
		f.users.On("GetAddress", ctx, sc.customer.UserID, sc.address.ID).Return(sc.address, nil)
		for id, p := range sc.products {
			p.Stock = 0
			sc.products[id] = p
		}
		f.products.On("GetByIDs", ctx, mock.Anything).Return(sc.products, nil)

		_, err := f.svc.Checkout(ctx, sc.customer, sc.request())
		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func pendingOrder(customer, vendor uuid.UUID) *model.Order {
	return &model.Order{
		ID:          uuid.New(),
		OrderNumber: "202603130001",
		UserID:      customer,
		VendorID:    vendor,
		Status:      model.StatusPending,
	}
}

func TestOrderService_UploadProof(t *testing.T) {
	ctx := context.Background()
	at := fixedNow.UTC()

	t.Run("Success", func(t *testing.T) {
		f := newOrderFixture(t)
		customer := session(model.RoleCustomer)
		order := pendingOrder(customer.UserID, uuid.New())
		url := "https://bucket.s3.amazonaws.com/payment-proofs/x.png"

		submitted := *order
		submitted.Status = model.StatusPaymentSubmitted
		submitted.PaymentProofURL = &url

		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.uploader.On("Upload", ctx, mock.AnythingOfType("*media.Image")).Return(url, nil)
		f.orders.On("SubmitProof", ctx, order.ID, customer.UserID, url, at).Return(&submitted, nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.OrderPaymentSubmitted
		})).Return(nil)

		got, err := f.svc.UploadProof(ctx, customer, order.ID, bytes.NewReader(pngHeader))

		require.NoError(t, err)
		assert.Equal(t, model.StatusPaymentSubmitted, got.Status)
		assert.Equal(t, url, *got.PaymentProofURL)
		f.assertExpectations(t)
	})

	t.Run("Order of another customer is not found", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.UploadProof(ctx, session(model.RoleCustomer), order.ID, nil)

		assert.ErrorIs(t, err, model.ErrOrderNotFound, "ownership is checked before the file")
		f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("Missing order", func(t *testing.T) {
		f := newOrderFixture(t)
		id := uuid.New()
		f.orders.On("GetByID", ctx, id).Return(nil, nil)
		_, err := f.svc.UploadProof(ctx, session(model.RoleCustomer), id, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Already confirmed", func(t *testing.T) {
		f := newOrderFixture(t)
		customer := session(model.RoleCustomer)
		order := pendingOrder(customer.UserID, uuid.New())
		order.Status = model.StatusPaymentConfirmed
		order.PaymentConfirmed = true
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.UploadProof(ctx, customer, order.ID, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, model.ErrAlreadyConfirmed)
	})

	t.Run("Cancelled order", func(t *testing.T) {
		f := newOrderFixture(t)
		customer := session(model.RoleCustomer)
		order := pendingOrder(customer.UserID, uuid.New())
		order.Status = model.StatusCancelled
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.UploadProof(ctx, customer, order.ID, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, errProofNotAllowed)
	})

	fileCases := []struct {
		name     string
		file     io.Reader
		expected error
	}{
		{name: "No file", file: nil, expected: model.ErrMissingFile},
		{name: "Empty file", file: bytes.NewReader(nil), expected: model.ErrMissingFile},
		{name: "Not an image", file: bytes.NewReader([]byte("%PDF-1.7 not an image")), expected: model.ErrInvalidFileType},
		{name: "Too large", file: bytes.NewReader(append(append([]byte{}, pngHeader...), make([]byte, 2048)...)), expected: model.ErrFileTooLarge},
	}
	for _, tc := range fileCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture(t)
			customer := session(model.RoleCustomer)
			order := pendingOrder(customer.UserID, uuid.New())
			f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

			_, err := f.svc.UploadProof(ctx, customer, order.ID, tc.file)
			assert.ErrorIs(t, err, tc.expected)
			f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
		})
	}

	t.Run("Lost race", func(t *testing.T) {
		f := newOrderFixture(t)
		customer := session(model.RoleCustomer)
		order := pendingOrder(customer.UserID, uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.uploader.On("Upload", ctx, mock.Anything).Return("/uploads/p.png", nil)
		f.orders.On("SubmitProof", ctx, order.ID, customer.UserID, "/uploads/p.png", at).Return(nil, nil)

		_, err := f.svc.UploadProof(ctx, customer, order.ID, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, model.ErrConcurrentUpdate)
		assert.Contains(t, f.logs.String(), `"level":"warn"`)
		assert.Contains(t, f.logs.String(), `"url":"/uploads/p.png"`)
		assert.Contains(t, f.logs.String(), "orphaned")
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	proof := "/uploads/payment-proofs/p.png"

	submitted := func(vendor uuid.UUID) *model.Order {
		o := pendingOrder(uuid.New(), vendor)
		o.Status = model.StatusPaymentSubmitted
		o.PaymentProofURL = &proof
		return o
	}

	t.Run("Success settles once", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		order := submitted(vendor.UserID)
		confirmed := *order
		confirmed.Status = model.StatusPaymentConfirmed
		confirmed.PaymentConfirmed = true

		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orders.On("ConfirmPayment", ctx, repository.Settlement{
			OrderID:      order.ID,
			VendorID:     &vendor.UserID,
			RequireProof: true,
			ConfirmedBy:  vendor.UserID,
			At:           fixedNow.UTC(),
		}).Return(&confirmed, nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.OrderPaymentConfirmed && *e.ActorID == vendor.UserID
		})).Return(nil)

		got, err := f.svc.ConfirmPayment(ctx, vendor, order.ID)
		require.NoError(t, err)
		assert.True(t, got.PaymentConfirmed)
		f.assertExpectations(t)
	})

	t.Run("Second confirmation loses the race", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		order := submitted(vendor.UserID)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orders.On("ConfirmPayment", ctx, mock.Anything).Return(nil, nil)

		_, err := f.svc.ConfirmPayment(ctx, vendor, order.ID)
		assert.ErrorIs(t, err, model.ErrAlreadyConfirmed)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Order of another vendor", func(t *testing.T) {
		f := newOrderFixture(t)
		order := submitted(uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.ConfirmPayment(ctx, session(model.RoleVendor), order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Without proof", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		order := pendingOrder(uuid.New(), vendor.UserID)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.ConfirmPayment(ctx, vendor, order.ID)
		assert.ErrorIs(t, err, model.ErrMissingProof)
	})

	t.Run("Already confirmed", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		order := submitted(vendor.UserID)
		order.PaymentConfirmed = true
		order.Status = model.StatusPaymentConfirmed
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.ConfirmPayment(ctx, vendor, order.ID)
		assert.ErrorIs(t, err, model.ErrAlreadyConfirmed)
	})

	t.Run("Customer is forbidden", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.ConfirmPayment(ctx, session(model.RoleCustomer), uuid.New())
		assert.ErrorIs(t, err, model.ErrForbidden)
	})
}

func TestOrderService_AdminConfirm(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	admin := session(model.RoleAdmin)
	order := pendingOrder(uuid.New(), uuid.New())
	confirmed := *order
	confirmed.Status = model.StatusPaymentConfirmed
	confirmed.PaymentConfirmed = true
	confirmed.ConfirmedBy = &admin.UserID

	f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
	f.orders.On("ConfirmPayment", ctx, repository.Settlement{
		OrderID:     order.ID,
		ConfirmedBy: admin.UserID,
		At:          fixedNow.UTC(),
	}).Return(&confirmed, nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	got, err := f.svc.AdminConfirm(ctx, admin, order.ID)

	require.NoError(t, err, "admins confirm without a proof")
	assert.Equal(t, admin.UserID, *got.ConfirmedBy)
	f.assertExpectations(t)

	_, err = f.svc.AdminConfirm(ctx, session(model.RoleVendor), order.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		role     model.Role
		from     model.OrderStatus
		to       model.OrderStatus
		expected error
	}{
		{name: "Vendor ships a paid order", role: model.RoleVendor, from: model.StatusPaymentConfirmed, to: model.StatusShipped},
		{name: "Vendor delivers", role: model.RoleVendor, from: model.StatusShipped, to: model.StatusDelivered},
		{name: "Admin moves to processing", role: model.RoleAdmin, from: model.StatusPaymentConfirmed, to: model.StatusProcessing},
		{name: "Cannot skip payment", role: model.RoleVendor, from: model.StatusPending, to: model.StatusShipped, expected: errInvalidTransition},
		{name: "Cannot go backwards", role: model.RoleAdmin, from: model.StatusDelivered, to: model.StatusShipped, expected: errInvalidTransition},
		{name: "Payment states need their operation", role: model.RoleVendor, from: model.StatusPaymentSubmitted, to: model.StatusPaymentConfirmed, expected: errInvalidTransition},
		{name: "Cancel needs its operation", role: model.RoleAdmin, from: model.StatusPending, to: model.StatusCancelled, expected: errInvalidTransition},
		{name: "Legacy spelling is rejected", role: model.RoleVendor, from: model.StatusPaymentConfirmed, to: "confirmed", expected: errInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			sess := session(tt.role)
			vendorID := uuid.New()
			if tt.role == model.RoleVendor {
				vendorID = sess.UserID
			}
			order := pendingOrder(uuid.New(), vendorID)
			order.Status = tt.from
			f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

			if tt.expected == nil {
				moved := *order
				moved.Status = tt.to
				f.orders.On("UpdateStatus", ctx, order.ID, tt.from, tt.to, fixedNow.UTC()).Return(&moved, nil)
				f.publisher.On("Publish", ctx, mock.Anything).Return(nil)
			}

			got, err := f.svc.UpdateStatus(ctx, sess, order.ID, &model.UpdateStatusRequest{Status: tt.to})
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			f.assertExpectations(t)
		})
	}

	t.Run("Vendor cannot touch other orders", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.UpdateStatus(ctx, session(model.RoleVendor), order.ID, &model.UpdateStatusRequest{Status: model.StatusShipped})
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Concurrent change", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		order := pendingOrder(uuid.New(), vendor.UserID)
		order.Status = model.StatusPaymentConfirmed
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orders.On("UpdateStatus", ctx, order.ID, model.StatusPaymentConfirmed, model.StatusShipped, fixedNow.UTC()).Return(nil, nil)
		_, err := f.svc.UpdateStatus(ctx, vendor, order.ID, &model.UpdateStatusRequest{Status: model.StatusShipped})
		assert.ErrorIs(t, err, model.ErrConcurrentUpdate)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()
	admin := session(model.RoleAdmin)

	t.Run("Success", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		cancelled := *order
		cancelled.Status = model.StatusCancelled
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.orders.On("Cancel", ctx, order.ID, model.StatusPending, "Sin stock", admin.UserID, fixedNow.UTC()).Return(&cancelled, nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool { return e.Type == events.OrderCancelled })).Return(nil)

		got, err := f.svc.Cancel(ctx, admin, order.ID, &model.CancelRequest{Reason: "  Sin stock "})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		f.assertExpectations(t)
	})

	t.Run("Missing order wins over missing reason", func(t *testing.T) {
		f := newOrderFixture(t)
		id := uuid.New()
		f.orders.On("GetByID", ctx, id).Return(nil, nil)
		_, err := f.svc.Cancel(ctx, admin, id, &model.CancelRequest{})
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Blank reason", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.Cancel(ctx, admin, order.ID, &model.CancelRequest{Reason: "   "})
		assert.ErrorIs(t, err, model.ErrCancelReason)
	})

	t.Run("Terminal order", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		order.Status = model.StatusDelivered
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		_, err := f.svc.Cancel(ctx, admin, order.ID, &model.CancelRequest{Reason: "x"})
		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.ErrCodeInvalidTransition, de.Code)
	})

	t.Run("Vendor is forbidden", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.Cancel(ctx, session(model.RoleVendor), uuid.New(), &model.CancelRequest{Reason: "x"})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})
}

func TestOrderService_ListAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Customer sees only own orders", func(t *testing.T) {
		f := newOrderFixture(t)
		customer := session(model.RoleCustomer)
		other := uuid.New()
		f.orders.On("List", ctx, model.OrderFilter{UserID: &customer.UserID, Page: 1, Limit: model.DefaultPageSize}).
			Return([]model.Order{*pendingOrder(customer.UserID, uuid.New())}, 1, nil)

		list, err := f.svc.List(ctx, customer, model.OrderFilter{VendorID: &other})
		require.NoError(t, err)
		assert.Len(t, list.Orders, 1)
		assert.Equal(t, 1, list.Pagination.TotalPages)
		f.assertExpectations(t)
	})

	t.Run("Vendor filter is forced", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		f.orders.On("List", ctx, model.OrderFilter{VendorID: &vendor.UserID, Status: model.StatusShipped, Page: 2, Limit: 10}).
			Return(nil, 0, nil)

		list, err := f.svc.List(ctx, vendor, model.OrderFilter{Status: model.StatusShipped, Page: 2, Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, list.Orders)
		assert.Empty(t, list.Orders)
	})

	t.Run("Unknown status filter", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.List(ctx, session(model.RoleAdmin), model.OrderFilter{Status: "lost"})
		assert.ErrorIs(t, err, errInvalidStatus)
	})

	t.Run("Get hides other customers' orders", func(t *testing.T) {
		f := newOrderFixture(t)
		order := pendingOrder(uuid.New(), uuid.New())
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.Get(ctx, session(model.RoleCustomer), order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)

		got, err := f.svc.Get(ctx, session(model.RoleAdmin), order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("Summary", func(t *testing.T) {
		f := newOrderFixture(t)
		vendor := session(model.RoleVendor)
		summary := &model.SalesSummary{TotalOrders: 3}
		f.orders.On("Summary", ctx, vendor.UserID).Return(summary, nil)

		got, err := f.svc.Summary(ctx, vendor)
		require.NoError(t, err)
		assert.Equal(t, 3, got.TotalOrders)

		_, err = f.svc.Summary(ctx, session(model.RoleCustomer))
		assert.ErrorIs(t, err, model.ErrForbidden)
	})
}
