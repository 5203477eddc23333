package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const cartItemColumns = `ci.id, ci.cart_id, ci.product_id, ci.vendor_id, ci.quantity, ci.price, ci.size, ci.color,
	p.name, COALESCE(p.images[1], ''), p.stock, u.name, ci.created_at`

const cartItemJoins = `
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	JOIN users u ON u.id = ci.vendor_id`

// cartRepository implements CartRepository using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func scanCartItem(row pgx.Row) (model.CartItem, error) {
	var it model.CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VendorID, &it.Quantity, &it.Price, &it.Size, &it.Color,
		&it.Name, &it.Image, &it.Stock, &it.VendorName, &it.CreatedAt)
	return it, err
}

// ownerClause returns the predicate selecting the owner's cart and its argument.
func ownerClause(owner model.CartOwner) (string, any) {
	if owner.UserID != nil {
		return "user_id = $1", *owner.UserID
	}
	return "session_id = $1", owner.SessionID
}

func (r *cartRepository) Touch(ctx context.Context, owner model.CartOwner, expiresAt time.Time) (uuid.UUID, error) {
	if owner.IsZero() {
		return uuid.Nil, model.ErrUnauthenticated
	}
	clause, arg := ownerClause(owner)

	// An expired cart is discarded rather than revived with stale lines.
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE `+clause+` AND expires_at <= NOW()`, arg); err != nil {
		return uuid.Nil, fmt.Errorf("failed to discard expired cart: %w", err)
	}

	var userID *uuid.UUID
	var sessionID *string
	conflict := "session_id"
	if owner.UserID != nil {
		userID = owner.UserID
		conflict = "user_id"
	} else {
		sessionID = &owner.SessionID
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, session_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (`+conflict+`) DO UPDATE SET expires_at = EXCLUDED.expires_at, updated_at = NOW()
		RETURNING id
	`, uuid.New(), userID, sessionID, expiresAt).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to upsert cart")
		return uuid.Nil, fmt.Errorf("failed to upsert cart: %w", err)
	}
	return id, nil
}

func (r *cartRepository) Find(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if owner.IsZero() {
		return nil, nil
	}
	clause, arg := ownerClause(owner)

	var c model.Cart
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, session_id, expires_at, created_at, updated_at
		FROM carts WHERE `+clause+` AND expires_at > NOW()
	`, arg).Scan(&c.ID, &c.UserID, &c.SessionID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+cartItemColumns+cartItemJoins+`
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	c.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CartItem, error) {
		return scanCartItem(row)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", c.ID.String()).Msg("failed to scan cart items")
		return nil, fmt.Errorf("failed to scan cart items: %w", err)
	}
	return &c, nil
}

func (r *cartRepository) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	it, err := scanCartItem(r.pool.QueryRow(ctx, `SELECT `+cartItemColumns+cartItemJoins+`
		WHERE ci.id = $1 AND ci.cart_id = $2
	`, itemID, cartID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &it, nil
}

func (r *cartRepository) AddItem(ctx context.Context, it *model.CartItem, maxQuantity int) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, vendor_id, quantity, price, size, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (cart_id, product_id, size, color) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, price = EXCLUDED.price
		WHERE cart_items.quantity + EXCLUDED.quantity <= $10
		RETURNING id, quantity, created_at
	`, it.ID, it.CartID, it.ProductID, it.VendorID, it.Quantity, it.Price, it.Size, it.Color, it.CreatedAt, maxQuantity).
		Scan(&it.ID, &it.Quantity, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrInsufficientStock
		}
		r.logger.Error().Err(err).Str("cart_id", it.CartID.String()).Msg("failed to add cart item")
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`, itemID, cartID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update cart item")
		return false, fmt.Errorf("failed to update cart item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to remove cart item")
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
