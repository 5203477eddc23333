package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending          OrderStatus = "pending"
	StatusPaymentSubmitted OrderStatus = "payment_submitted"
	StatusPaymentConfirmed OrderStatus = "payment_confirmed"
	StatusProcessing       OrderStatus = "processing"
	StatusShipped          OrderStatus = "shipped"
	StatusDelivered        OrderStatus = "delivered"
	StatusCancelled        OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:          {StatusPaymentSubmitted, StatusPaymentConfirmed, StatusCancelled},
	StatusPaymentSubmitted: {StatusPaymentSubmitted, StatusPaymentConfirmed, StatusCancelled},
	StatusPaymentConfirmed: {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing:       {StatusShipped, StatusCancelled},
	StatusShipped:          {StatusDelivered, StatusCancelled},
}

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPaymentSubmitted, StatusPaymentConfirmed,
	StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Confirmable lists the statuses from which a payment may be confirmed.
var Confirmable = []OrderStatus{StatusPending, StatusPaymentSubmitted}

// ShippingMethod is how the buyer receives the order.
type ShippingMethod string

const (
	ShippingDelivery ShippingMethod = "delivery"
	ShippingPickup   ShippingMethod = "pickup"
)

// Order is one purchase from a single vendor.
type Order struct {
	ID                     uuid.UUID       `json:"id"`
	OrderNumber            string          `json:"orderNumber"`
	UserID                 uuid.UUID       `json:"userId"`
	VendorID               uuid.UUID       `json:"vendorId"`
	Items                  []OrderItem     `json:"items"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	ShippingCost           decimal.Decimal `json:"shippingCost"`
	Total                  decimal.Decimal `json:"total"`
	CommissionRate         decimal.Decimal `json:"commissionRate"`
	CommissionAmount       decimal.Decimal `json:"commissionAmount"`
	VendorEarnings         decimal.Decimal `json:"vendorEarnings"`
	Status                 OrderStatus     `json:"status"`
	ShippingMethod         ShippingMethod  `json:"shippingMethod"`
	ShippingZoneID         *uuid.UUID      `json:"shippingZoneId,omitempty"`
	ShippingAddress        *Address        `json:"shippingAddress,omitempty"`
	PickupAddress          *string         `json:"pickupAddress,omitempty"`
	PaymentProofURL        *string         `json:"paymentProofUrl,omitempty"`
	PaymentProofUploadedAt *time.Time      `json:"paymentProofUploadedAt,omitempty"`
	PaymentConfirmed       bool            `json:"paymentConfirmed"`
	PaymentConfirmedAt     *time.Time      `json:"paymentConfirmedAt,omitempty"`
	ConfirmedBy            *uuid.UUID      `json:"confirmedBy,omitempty"`
	ShippedAt              *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt            *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt            *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason     *string         `json:"cancellationReason,omitempty"`
	CancelledBy            *uuid.UUID      `json:"cancelledBy,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// OrderItem is an immutable snapshot of a purchased line.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Image     string          `json:"image,omitempty"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals holds the monetary breakdown of an order.
type Totals struct {
	Subtotal         decimal.Decimal
	ShippingCost     decimal.Decimal
	Total            decimal.Decimal
	CommissionAmount decimal.Decimal
	VendorEarnings   decimal.Decimal
}

// ComputeTotals derives order totals from the snapshot lines, the shipping cost
// and the vendor commission percentage.
func ComputeTotals(items []OrderItem, shipping, commissionRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	total := subtotal.Add(shipping)
	commission := total.Mul(commissionRate).Div(decimal.NewFromInt(100)).Round(2)
	return Totals{
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		Total:            total,
		CommissionAmount: commission,
		VendorEarnings:   total.Sub(commission),
	}
}

// MaxDailyOrders is the largest sequence an order number can carry.
const MaxDailyOrders = 9999

// FormatOrderNumber renders YYYYMMDD followed by a 4-digit sequence.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", day.Format("20060102"), seq)
}

// NextOrderNumber returns the number following last for the given day. An
// empty or foreign last starts the day at 0001.
func NextOrderNumber(day time.Time, last string) (string, error) {
	prefix := day.Format("20060102")
	seq := 0
	if len(last) == len(prefix)+4 && last[:len(prefix)] == prefix {
		if n, err := strconv.Atoi(last[len(prefix):]); err == nil {
			seq = n
		}
	}
	if seq >= MaxDailyOrders {
		return "", ErrOrderNumberExhaust
	}
	return FormatOrderNumber(day, seq+1), nil
}

// CheckoutRequest creates one order for one vendor from the caller's cart.
type CheckoutRequest struct {
	VendorID       uuid.UUID       `json:"vendorId" validate:"required"`
	ShippingMethod ShippingMethod  `json:"shippingMethod" validate:"required,oneof=delivery pickup"`
	ShippingZoneID uuid.UUID       `json:"shippingZoneId" validate:"required"`
	AddressID      *uuid.UUID      `json:"addressId"`
	Address        *AddressRequest `json:"shippingAddress"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// CancelRequest cancels an order with a reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID   *uuid.UUID
	VendorID *uuid.UUID
	Status   OrderStatus
	Page     int
	Limit    int
}

// OrderList is the paginated order listing.
type OrderList struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// SalesSummary aggregates a vendor's orders.
type SalesSummary struct {
	Counts           map[OrderStatus]int `json:"counts"`
	TotalOrders      int                 `json:"totalOrders"`
	ConfirmedRevenue decimal.Decimal     `json:"confirmedRevenue"`
	CommissionAmount decimal.Decimal     `json:"commissionAmount"`
	VendorEarnings   decimal.Decimal     `json:"vendorEarnings"`
}
