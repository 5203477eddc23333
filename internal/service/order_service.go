package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"modamarket/internal/events"
	"modamarket/internal/media"
	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const proofFolder = "payment-proofs"

var (
	// Payment states and cancellation have dedicated operations.
	fulfilmentTargets = []model.OrderStatus{model.StatusProcessing, model.StatusShipped, model.StatusDelivered}

	errInvalidTransition = model.Validationf(model.ErrCodeInvalidTransition, "Transición de estado no permitida")
	errProofNotAllowed   = model.Validationf(model.ErrCodeInvalidTransition, "El pedido no admite comprobante en su estado actual")
	errInvalidStatus     = model.Validationf(model.ErrCodeInvalidTransition, "Estado inválido")
)

// OrderRepositories groups the stores the order service reads and writes.
type OrderRepositories struct {
	Orders   repository.OrderRepository
	Carts    repository.CartRepository
	Products repository.ProductRepository
	Users    repository.UserRepository
	Shipping repository.ShippingRepository
}

// OrderOptions tunes the order service.
type OrderOptions struct {
	// Location decides the calendar day an order number belongs to.
	Location      *time.Location
	MaxProofBytes int64
}

// orderService implements OrderService.
type orderService struct {
	repos     OrderRepositories
	uploader  media.Uploader
	publisher events.Publisher
	opts      OrderOptions
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	repos OrderRepositories,
	uploader media.Uploader,
	publisher events.Publisher,
	opts OrderOptions,
	logger zerolog.Logger,
) OrderService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxProofBytes <= 0 {
		opts.MaxProofBytes = 5 << 20
	}
	return &orderService{
		repos:     repos,
		uploader:  uploader,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) Checkout(ctx context.Context, sess *model.Session, req *model.CheckoutRequest) (*model.Order, error) {
	if err := requireRole(sess, model.RoleCustomer); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	vendor, err := s.repos.Users.GetByID(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	if vendor == nil || vendor.Role != model.RoleVendor {
		return nil, model.ErrVendorNotFound
	}

	zone, err := s.repos.Shipping.GetByID(ctx, req.ShippingZoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shipping zone: %w", err)
	}
	if zone == nil || zone.VendorID != vendor.ID {
		return nil, model.ErrZoneNotFound
	}

	owner := model.CartOwner{UserID: &sess.UserID}
	cart, err := s.repos.Carts.Find(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	var lines []model.CartItem
	if cart != nil {
		for _, it := range cart.Items {
			if it.VendorID == vendor.ID {
				lines = append(lines, it)
			}
		}
	}
	if len(lines) == 0 {
		return nil, model.ErrEmptyVendorCart
	}

	order := &model.Order{
		ID:             uuid.New(),
		UserID:         sess.UserID,
		VendorID:       vendor.ID,
		Status:         model.StatusPending,
		ShippingMethod: req.ShippingMethod,
		ShippingZoneID: &zone.ID,
		CommissionRate: vendor.Commission,
	}

	if err := s.resolveDestination(ctx, sess, req, zone, order); err != nil {
		return nil, err
	}

	items, err := s.snapshot(ctx, lines)
	if err != nil {
		return nil, err
	}
	order.Items = items

	totals := model.ComputeTotals(items, zone.Cost, vendor.Commission)
	order.Subtotal = totals.Subtotal
	order.ShippingCost = totals.ShippingCost
	order.Total = totals.Total
	order.CommissionAmount = totals.CommissionAmount
	order.VendorEarnings = totals.VendorEarnings

	now := s.now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now

	ids := make([]uuid.UUID, len(lines))
	for i, it := range lines {
		ids[i] = it.ID
	}
	err = s.repos.Orders.Create(ctx, repository.NewOrder{
		Order:       order,
		Day:         now.In(s.opts.Location),
		CartID:      cart.ID,
		CartItemIDs: ids,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("vendor_id", vendor.ID.String()).
		Int("item_count", len(items)).
		Str("total", order.Total.String()).
		Msg("order created successfully")

	s.publish(ctx, events.OrderCreated, order, &sess.UserID)
	return order, nil
}

// resolveDestination fills the shipping or pickup address and checks the zone
// applies to it.
func (s *orderService) resolveDestination(ctx context.Context, sess *model.Session, req *model.CheckoutRequest, zone *model.ShippingZone, order *model.Order) error {
	if !zone.Enabled {
		return model.ErrZoneNotApplicable
	}

	if req.ShippingMethod == model.ShippingPickup {
		if !zone.Type.IsPickup() {
			return model.ErrZoneNotApplicable
		}
		point := pickupPoint(*zone)
		order.PickupAddress = &point
		return nil
	}

	var addr *model.Address
	switch {
	case req.AddressID != nil:
		saved, err := s.repos.Users.GetAddress(ctx, sess.UserID, *req.AddressID)
		if err != nil {
			return fmt.Errorf("failed to get address: %w", err)
		}
		if saved == nil {
			return model.ErrAddressNotFound
		}
		addr = saved
	case req.Address != nil:
		addr = addressFromRequest(req.Address)
		addr.ID = uuid.New()
		addr.UserID = sess.UserID
	default:
		return model.Validationf(model.ErrCodeInvalidPayload, "Debes indicar la dirección de envío")
	}

	if !ZoneServes(*zone, addr.Location()) {
		return model.ErrZoneNotApplicable
	}
	order.ShippingAddress = addr
	return nil
}

// snapshot freezes the cart lines into order items after checking each
// product is still sellable.
func (s *orderService) snapshot(ctx context.Context, lines []model.CartItem) ([]model.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, it := range lines {
		ids = append(ids, it.ProductID)
	}
	products, err := s.repos.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	wanted := make(map[uuid.UUID]int)
	items := make([]model.OrderItem, 0, len(lines))
	for _, it := range lines {
		p, ok := products[it.ProductID]
		if !ok || !p.Active {
			return nil, model.Validationf(model.ErrCodeInvalidPayload,
				fmt.Sprintf("El producto %s ya no está disponible", it.Name))
		}
		wanted[p.ID] += it.Quantity
		if wanted[p.ID] > p.Stock {
			s.logger.Warn().
				Str("product_id", p.ID.String()).
				Int("requested", wanted[p.ID]).
				Int("stock", p.Stock).
				Msg("insufficient stock at checkout")
			return nil, model.Validationf(model.ErrCodeInsufficientStock,
				fmt.Sprintf("Stock insuficiente para %s", p.Name))
		}

		image := it.Image
		if image == "" && len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
			Image:     image,
		})
	}
	return items, nil
}

func (s *orderService) UploadProof(ctx context.Context, sess *model.Session, orderID uuid.UUID, file io.Reader) (*model.Order, error) {
	if err := requireRole(sess, model.RoleCustomer); err != nil {
		return nil, err
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != sess.UserID {
		return nil, model.ErrOrderNotFound
	}
	if order.PaymentConfirmed {
		return nil, model.ErrAlreadyConfirmed
	}
	if !order.Status.CanTransition(model.StatusPaymentSubmitted) {
		return nil, errProofNotAllowed
	}

	img, err := media.ReadImage(file, s.opts.MaxProofBytes, proofFolder)
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(ctx, img)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to store payment proof")
		return nil, fmt.Errorf("failed to store payment proof: %w", err)
	}

	updated, err := s.repos.Orders.SubmitProof(ctx, orderID, sess.UserID, url, s.now().UTC())
	if err == nil && updated == nil {
		err = model.ErrConcurrentUpdate
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", orderID.String()).
			Str("url", url).
			Msg("payment proof stored but not recorded, orphaned file")
		return nil, err
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("payment proof submitted")
	s.publish(ctx, events.OrderPaymentSubmitted, updated, &sess.UserID)
	return updated, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	if err := requireRole(sess, model.RoleVendor); err != nil {
		return nil, err
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != sess.UserID {
		return nil, model.ErrOrderNotFound
	}
	if order.PaymentConfirmed {
		return nil, model.ErrAlreadyConfirmed
	}
	if order.PaymentProofURL == nil {
		return nil, model.ErrMissingProof
	}
	if !slices.Contains(model.Confirmable, order.Status) {
		return nil, errInvalidTransition
	}

	return s.settle(ctx, repository.Settlement{
		OrderID:      orderID,
		VendorID:     &sess.UserID,
		RequireProof: true,
		ConfirmedBy:  sess.UserID,
		At:           s.now().UTC(),
	})
}

func (s *orderService) AdminConfirm(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentConfirmed {
		return nil, model.ErrAlreadyConfirmed
	}
	if !slices.Contains(model.Confirmable, order.Status) {
		return nil, errInvalidTransition
	}

	return s.settle(ctx, repository.Settlement{
		OrderID:     orderID,
		ConfirmedBy: sess.UserID,
		At:          s.now().UTC(),
	})
}

// settle runs the compare-and-set confirmation. A nil result means another
// caller settled the order first.
func (s *orderService) settle(ctx context.Context, st repository.Settlement) (*model.Order, error) {
	updated, err := s.repos.Orders.ConfirmPayment(ctx, st)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		s.logger.Warn().Str("order_id", st.OrderID.String()).Msg("payment confirmation lost the race")
		return nil, model.ErrAlreadyConfirmed
	}

	s.logger.Info().
		Str("order_id", st.OrderID.String()).
		Str("confirmed_by", st.ConfirmedBy.String()).
		Msg("payment confirmed")
	s.publish(ctx, events.OrderPaymentConfirmed, updated, &st.ConfirmedBy)
	return updated, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Role == model.RoleVendor && order.VendorID != sess.UserID {
		return nil, model.ErrOrderNotFound
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if !req.Status.IsValid() {
		return nil, errInvalidStatus
	}
	if !slices.Contains(fulfilmentTargets, req.Status) || !order.Status.CanTransition(req.Status) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("from", string(order.Status)).
			Str("to", string(req.Status)).
			Msg("illegal status transition")
		return nil, errInvalidTransition
	}

	updated, err := s.repos.Orders.UpdateStatus(ctx, orderID, order.Status, req.Status, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrConcurrentUpdate
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(order.Status)).
		Str("to", string(updated.Status)).
		Msg("order status updated")
	s.publish(ctx, events.OrderStatusChanged, updated, &sess.UserID)
	return updated, nil
}

func (s *orderService) Cancel(ctx context.Context, sess *model.Session, orderID uuid.UUID, req *model.CancelRequest) (*model.Order, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if req == nil || strings.TrimSpace(req.Reason) == "" {
		return nil, model.ErrCancelReason
	}
	if order.Status.IsTerminal() {
		return nil, model.Validationf(model.ErrCodeInvalidTransition, "El pedido ya no puede cancelarse")
	}

	updated, err := s.repos.Orders.Cancel(ctx, orderID, order.Status, strings.TrimSpace(req.Reason), sess.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.ErrConcurrentUpdate
	}

	s.logger.Info().Str("order_id", orderID.String()).Str("admin_id", sess.UserID.String()).Msg("order cancelled")
	s.publish(ctx, events.OrderCancelled, updated, &sess.UserID)
	return updated, nil
}

func (s *orderService) List(ctx context.Context, sess *model.Session, filter model.OrderFilter) (*model.OrderList, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	switch sess.Role {
	case model.RoleCustomer:
		filter.UserID, filter.VendorID = &sess.UserID, nil
	case model.RoleVendor:
		filter.UserID, filter.VendorID = nil, &sess.UserID
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errInvalidStatus
	}
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit)

	orders, total, err := s.repos.Orders.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &model.OrderList{Orders: orders, Pagination: model.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *orderService) Get(ctx context.Context, sess *model.Session, orderID uuid.UUID) (*model.Order, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	order, err := s.mustGet(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch sess.Role {
	case model.RoleAdmin:
		return order, nil
	case model.RoleVendor:
		if order.VendorID == sess.UserID {
			return order, nil
		}
	default:
		if order.UserID == sess.UserID {
			return order, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (s *orderService) Summary(ctx context.Context, sess *model.Session) (*model.SalesSummary, error) {
	if err := requireRole(sess, model.RoleVendor); err != nil {
		return nil, err
	}
	summary, err := s.repos.Orders.Summary(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise orders: %w", err)
	}
	return summary, nil
}

func (s *orderService) mustGet(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// publish emits an order event. Delivery failures never fail the request.
func (s *orderService) publish(ctx context.Context, t events.Type, order *model.Order, actor *uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(t, order, actor)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("event", string(t)).
			Msg("failed to publish order event")
	}
}
