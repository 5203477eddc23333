package repository

import (
	"context"
	"testing"
	"time"

	"modamarket/internal/database"
	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping repository test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedUser(t *testing.T, repo UserRepository, role model.Role, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:         uuid.New(),
		Name:       "Usuario " + string(role),
		Email:      email,
		Role:       role,
		Commission: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, repo ProductRepository, sellerID uuid.UUID, name string, price string, stock int) *model.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &model.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Name:        name,
		Description: "Prenda de prueba",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Category:    model.CategoryDresses,
		Sizes:       []string{"S", "M"},
		Colors:      []string{"rojo"},
		Images:      []string{"https://img.example.com/" + name + ".jpg"},
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
