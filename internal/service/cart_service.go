package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	repo        repository.CartRepository
	productRepo repository.ProductRepository
	ttl         time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service. Every write pushes the cart's
// expiry ttl into the future.
func NewCartService(
	repo repository.CartRepository,
	productRepo repository.ProductRepository,
	ttl time.Duration,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		repo:        repo,
		productRepo: productRepo,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// ResolveCartOwner decides whose cart a request addresses. Customers use
// their account cart; anonymous visitors use the session id they present.
func ResolveCartOwner(sess *model.Session, sessionID string) (model.CartOwner, error) {
	if sess != nil {
		if sess.Role != model.RoleCustomer {
			return model.CartOwner{}, model.ErrForbidden
		}
		id := sess.UserID
		return model.CartOwner{UserID: &id}, nil
	}
	if sessionID == "" {
		return model.CartOwner{}, model.ErrUnauthenticated
	}
	return model.CartOwner{SessionID: sessionID}, nil
}

func (s *cartService) Get(ctx context.Context, owner model.CartOwner) (*model.CartView, error) {
	if owner.IsZero() {
		return nil, model.ErrUnauthenticated
	}
	cart, err := s.repo.Find(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return NewCartView(cart), nil
}

func (s *cartService) AddItem(ctx context.Context, owner model.CartOwner, req *model.AddToCartRequest) (*model.CartView, error) {
	if owner.IsZero() {
		return nil, model.ErrUnauthenticated
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, model.ErrProductNotFound
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}
	if !product.HasSize(req.Size) {
		return nil, model.Validationf(model.ErrCodeInvalidPayload, "Talla no disponible para este producto")
	}
	if !product.HasColor(req.Color) {
		return nil, model.Validationf(model.ErrCodeInvalidPayload, "Color no disponible para este producto")
	}
	if req.Quantity > product.Stock {
		return nil, model.ErrInsufficientStock
	}

	now := s.now().UTC()
	cartID, err := s.repo.Touch(ctx, owner, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to open cart: %w", err)
	}

	item := &model.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: product.ID,
		VendorID:  product.SellerID,
		Quantity:  req.Quantity,
		Price:     product.Price,
		Size:      req.Size,
		Color:     req.Color,
		CreatedAt: now,
	}
	if err := s.repo.AddItem(ctx, item, product.Stock); err != nil {
		if !errors.Is(err, model.ErrInsufficientStock) {
			s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to add cart item")
		}
		return nil, err
	}

	s.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", item.Quantity).
		Msg("cart item added")
	return s.Get(ctx, owner)
}

func (s *cartService) UpdateItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, req *model.UpdateCartItemRequest) (*model.CartView, error) {
	cart, item, err := s.findItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if req.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, model.ErrProductNotFound
	}
	if req.Quantity > product.Stock {
		return nil, model.ErrInsufficientStock
	}

	ok, err := s.repo.UpdateItemQuantity(ctx, cart.ID, itemID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrCartItemNotFound
	}
	if err := s.extend(ctx, owner); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

func (s *cartService) RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.CartView, error) {
	cart, _, err := s.findItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrCartItemNotFound
	}
	if err := s.extend(ctx, owner); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

func (s *cartService) Clear(ctx context.Context, owner model.CartOwner) error {
	if owner.IsZero() {
		return model.ErrUnauthenticated
	}
	cart, err := s.repo.Find(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil
	}
	return s.repo.Clear(ctx, cart.ID)
}

func (s *cartService) findItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.Cart, *model.CartItem, error) {
	if owner.IsZero() {
		return nil, nil, model.ErrUnauthenticated
	}
	cart, err := s.repo.Find(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, nil, model.ErrCartItemNotFound
	}
	item, err := s.repo.GetItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, nil, model.ErrCartItemNotFound
	}
	return cart, item, nil
}

func (s *cartService) extend(ctx context.Context, owner model.CartOwner) error {
	if _, err := s.repo.Touch(ctx, owner, s.now().UTC().Add(s.ttl)); err != nil {
		return fmt.Errorf("failed to extend cart: %w", err)
	}
	return nil
}

// NewCartView builds the grouped view of a cart. A nil cart yields an empty view.
func NewCartView(cart *model.Cart) *model.CartView {
	if cart == nil {
		cart = &model.Cart{}
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}

	groups := GroupByVendor(cart.Items)
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Subtotal)
	}
	count := 0
	for _, it := range cart.Items {
		count += it.Quantity
	}
	return &model.CartView{Cart: cart, Groups: groups, Total: total, ItemCount: count}
}

// GroupByVendor partitions cart lines by vendor in order of first appearance
// and sums each vendor's subtotal.
func GroupByVendor(items []model.CartItem) []model.VendorGroup {
	groups := []model.VendorGroup{}
	index := make(map[uuid.UUID]int)
	for _, it := range items {
		i, ok := index[it.VendorID]
		if !ok {
			i = len(groups)
			index[it.VendorID] = i
			groups = append(groups, model.VendorGroup{
				VendorID:   it.VendorID,
				VendorName: it.VendorName,
				Items:      []model.CartItem{},
				Subtotal:   decimal.Zero,
			})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal = groups[i].Subtotal.Add(it.LineTotal())
	}
	return groups
}
