package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartHandler_Owner(t *testing.T) {
	logger := zerolog.Nop()
	customer := session(model.RoleCustomer)

	tests := []struct {
		name           string
		sess           *model.Session
		header         string
		expectedOwner  *model.CartOwner
		expectedStatus int
	}{
		{name: "Customer", sess: customer, expectedOwner: &model.CartOwner{UserID: &customer.UserID}, expectedStatus: http.StatusOK},
		{name: "Anonymous with session header", header: "visitor-42", expectedOwner: &model.CartOwner{SessionID: "visitor-42"}, expectedStatus: http.StatusOK},
		{name: "Anonymous without header", expectedStatus: http.StatusUnauthorized},
		{name: "Vendor", sess: session(model.RoleVendor), expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCartService)
			handler := NewCartHandler(mockService, logger)
			if tt.expectedOwner != nil {
				mockService.On("Get", mock.Anything, *tt.expectedOwner).Return(&model.CartView{Groups: []model.VendorGroup{}}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set(CartSessionHeader, tt.header)
			}
			req = withRoute(req, tt.sess, nil)
			w := httptest.NewRecorder()

			handler.Get(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCartHandler_Mutations(t *testing.T) {
	logger := zerolog.Nop()
	owner := model.CartOwner{SessionID: "visitor-1"}
	itemID := uuid.New()
	productID := uuid.New()

	newRequest := func(method, body string, params map[string]string) *http.Request {
		req := httptest.NewRequest(method, "/api/cart", bytes.NewReader([]byte(body)))
		req.Header.Set(CartSessionHeader, "visitor-1")
		return withRoute(req, nil, params)
	}

	t.Run("Add", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService, logger)
		mockService.On("AddItem", mock.Anything, owner, &model.AddToCartRequest{ProductID: productID, Quantity: 2, Size: "M"}).
			Return(&model.CartView{ItemCount: 2}, nil)

		w := httptest.NewRecorder()
		handler.AddItem(w, newRequest(http.MethodPost, `{"productId":"`+productID.String()+`","quantity":2,"size":"M"}`, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"itemCount":2`)
	})

	t.Run("Add over stock", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService, logger)
		mockService.On("AddItem", mock.Anything, owner, mock.Anything).Return(nil, model.ErrInsufficientStock)

		w := httptest.NewRecorder()
		handler.AddItem(w, newRequest(http.MethodPost, `{"productId":"`+productID.String()+`","quantity":99}`, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update unknown line", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService, logger)
		mockService.On("UpdateItem", mock.Anything, owner, itemID, &model.UpdateCartItemRequest{Quantity: 3}).Return(nil, model.ErrCartItemNotFound)

		w := httptest.NewRecorder()
		handler.UpdateItem(w, newRequest(http.MethodPut, `{"quantity":3}`, map[string]string{"itemId": itemID.String()}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService, logger)
		mockService.On("RemoveItem", mock.Anything, owner, itemID).Return(&model.CartView{}, nil)

		w := httptest.NewRecorder()
		handler.RemoveItem(w, newRequest(http.MethodDelete, "", map[string]string{"itemId": itemID.String()}))

		require.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Clear", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService, logger)
		mockService.On("Clear", mock.Anything, owner).Return(nil)

		w := httptest.NewRecorder()
		handler.Clear(w, newRequest(http.MethodDelete, "", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Carrito vaciado")
	})
}
