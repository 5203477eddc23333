package repository

import (
	"context"
	"errors"
	"fmt"

	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const zoneColumns = `id, vendor_id, type, name, commune, region, metro_line, metro_station, area_description,
	pickup_address, cost, estimated_days, enabled, created_at, updated_at`

type shippingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShippingRepository creates a new PostgreSQL-backed shipping zone repository.
func NewShippingRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShippingRepository {
	return &shippingRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shipping").Logger(),
	}
}

func scanZone(row pgx.Row) (model.ShippingZone, error) {
	var z model.ShippingZone
	err := row.Scan(&z.ID, &z.VendorID, &z.Type, &z.Name, &z.Commune, &z.Region, &z.MetroLine, &z.MetroStation,
		&z.AreaDescription, &z.PickupAddress, &z.Cost, &z.EstimatedDays, &z.Enabled, &z.CreatedAt, &z.UpdatedAt)
	return z, err
}

func (r *shippingRepository) Create(ctx context.Context, z *model.ShippingZone) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shipping_zones (`+zoneColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, z.ID, z.VendorID, z.Type, z.Name, z.Commune, z.Region, z.MetroLine, z.MetroStation, z.AreaDescription,
		z.PickupAddress, z.Cost, z.EstimatedDays, z.Enabled, z.CreatedAt, z.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("vendor_id", z.VendorID.String()).Msg("failed to create shipping zone")
		return fmt.Errorf("failed to create shipping zone: %w", err)
	}
	return nil
}

func (r *shippingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error) {
	z, err := scanZone(r.pool.QueryRow(ctx, `SELECT `+zoneColumns+` FROM shipping_zones WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("zone_id", id.String()).Msg("failed to query shipping zone")
		return nil, fmt.Errorf("failed to query shipping zone: %w", err)
	}
	return &z, nil
}

func (r *shippingRepository) List(ctx context.Context, vendorID *uuid.UUID, onlyEnabled bool) ([]model.ShippingZone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+zoneColumns+` FROM shipping_zones
		WHERE ($1::uuid IS NULL OR vendor_id = $1) AND (NOT $2 OR enabled)
		ORDER BY cost, created_at, id
	`, vendorID, onlyEnabled)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shipping zones")
		return nil, fmt.Errorf("failed to query shipping zones: %w", err)
	}
	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ShippingZone, error) {
		return scanZone(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan shipping zones: %w", err)
	}
	return zones, nil
}

func (r *shippingRepository) Update(ctx context.Context, z *model.ShippingZone) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE shipping_zones
		SET type = $2, name = $3, commune = $4, region = $5, metro_line = $6, metro_station = $7,
		    area_description = $8, pickup_address = $9, cost = $10, estimated_days = $11, enabled = $12,
		    updated_at = $13
		WHERE id = $1
	`, z.ID, z.Type, z.Name, z.Commune, z.Region, z.MetroLine, z.MetroStation, z.AreaDescription,
		z.PickupAddress, z.Cost, z.EstimatedDays, z.Enabled, z.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("zone_id", z.ID.String()).Msg("failed to update shipping zone")
		return false, fmt.Errorf("failed to update shipping zone: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *shippingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shipping_zones WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete shipping zone: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
