package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	repo     repository.ProductRepository
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, userRepo repository.UserRepository, logger zerolog.Logger) ProductService {
	return &productService{
		repo:     repo,
		userRepo: userRepo,
		logger:   logger.With().Str("service", "product").Logger(),
	}
}

func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductList, error) {
	filter.IncludeDraft = false
	return s.list(ctx, filter)
}

func (s *productService) ListOwn(ctx context.Context, sess *model.Session, filter model.ProductFilter) (*model.ProductList, error) {
	if err := requireRole(sess, model.RoleVendor); err != nil {
		return nil, err
	}
	filter.SellerID = &sess.UserID
	filter.IncludeDraft = true
	return s.list(ctx, filter)
}

func (s *productService) list(ctx context.Context, filter model.ProductFilter) (*model.ProductList, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, model.Validationf(model.ErrCodeInvalidPayload, "Categoría inválida")
	}
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit)

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &model.ProductList{
		Products:   products,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *productService) Get(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.Product, error) {
	product, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active && !canManage(sess, product.SellerID) {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, sess *model.Session, req *model.ProductRequest) (*model.Product, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}

	sellerID := sess.UserID
	if sess.Role == model.RoleAdmin {
		if req.SellerID == nil {
			return nil, model.Validationf(model.ErrCodeInvalidPayload, "El campo sellerId es obligatorio")
		}
		seller, err := s.userRepo.GetByID(ctx, *req.SellerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get seller: %w", err)
		}
		if seller == nil || seller.Role != model.RoleVendor {
			return nil, model.ErrVendorNotFound
		}
		sellerID = seller.ID
	}

	if err := validateProduct(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Active:    true,
		CreatedAt: now,
	}
	applyProductRequest(product, req, now)

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("seller_id", sellerID.String()).
		Msg("product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	product, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(sess, product.SellerID) {
		s.logger.Warn().
			Str("product_id", id.String()).
			Str("user_id", sess.UserID.String()).
			Msg("product update by non-owner rejected")
		return nil, model.ErrForbidden
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	applyProductRequest(product, req, time.Now().UTC())
	ok, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return err
	}
	product, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(sess, product.SellerID) {
		return model.ErrForbidden
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrProductNotFound
	}
	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *productService) mustGet(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// canManage reports whether the session may manage a resource owned by ownerID.
func canManage(sess *model.Session, ownerID uuid.UUID) bool {
	return sess.Is(model.RoleAdmin) || (sess.Is(model.RoleVendor) && sess.UserID == ownerID)
}

func validateProduct(req *model.ProductRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Price.IsNegative() {
		return model.Validationf(model.ErrCodeInvalidPayload, "El precio no puede ser negativo")
	}
	return nil
}

func applyProductRequest(p *model.Product, req *model.ProductRequest, now time.Time) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = strings.TrimSpace(req.Description)
	p.Price = req.Price
	p.Stock = req.Stock
	p.Category = req.Category
	p.Sizes = nonNil(req.Sizes)
	p.Colors = nonNil(req.Colors)
	p.Images = req.Images
	p.Featured = req.Featured
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedAt = now
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
