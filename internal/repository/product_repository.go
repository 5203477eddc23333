package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `p.id, p.seller_id, u.name, p.name, p.description, p.price, p.stock, p.category,
	p.sizes, p.colors, p.images, p.featured, p.active, p.created_at, p.updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.SellerName, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Sizes, &p.Colors, &p.Images, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, seller_id, name, description, price, stock, category, sizes, colors, images,
		                      featured, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		nonNil(p.Sizes), nonNil(p.Colors), p.Images, p.Featured, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := make(map[uuid.UUID]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p JOIN users u ON u.id = p.seller_id
		WHERE p.id = ANY($1)
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	page, limit := model.NormalizePage(f.Page, f.Limit)

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !f.IncludeDraft {
		conds = append(conds, "p.active")
	}
	if f.Category != "" {
		add("p.category = $%d", f.Category)
	}
	if f.SellerID != nil {
		add("p.seller_id = $%d", *f.SellerID)
	}
	if f.Featured != nil {
		add("p.featured = $%d", *f.Featured)
	}
	if f.Search != "" {
		add("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", "%"+escapeLike(f.Search)+"%")
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products p ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p JOIN users u ON u.id = p.seller_id
		%s
		ORDER BY p.featured DESC, p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("page", page).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, 0, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET seller_id = $2, name = $3, description = $4, price = $5, stock = $6, category = $7,
		    sizes = $8, colors = $9, images = $10, featured = $11, active = $12, updated_at = $13
		WHERE id = $1
	`, p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		nonNil(p.Sizes), nonNil(p.Colors), p.Images, p.Featured, p.Active, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
