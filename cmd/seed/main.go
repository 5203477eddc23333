// Command seed fills an empty database with an admin, vendors, their
// catalogues and shipping zones, and a few customers for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"modamarket/internal/auth"
	"modamarket/internal/config"
	"modamarket/internal/database"
	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const seedPassword = "modamarket123"

var regions = map[string][]string{
	"Metropolitana": {"Providencia", "Ñuñoa", "Las Condes", "Santiago", "La Florida", "Maipú"},
	"Valparaíso":    {"Viña del Mar", "Valparaíso", "Quilpué"},
	"Biobío":        {"Concepción", "Talcahuano"},
}

var metroStations = []string{"Baquedano", "Los Leones", "Tobalaba", "Irarrázaval", "Plaza de Maipú"}

var sizes = []string{"XS", "S", "M", "L", "XL"}

type options struct {
	vendors   int
	products  int
	customers int
	seed      int64
}

func main() {
	var opts options
	flag.IntVar(&opts.vendors, "vendors", 3, "number of vendors to create")
	flag.IntVar(&opts.products, "products", 8, "products per vendor")
	flag.IntVar(&opts.customers, "customers", 5, "number of customers to create")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	gofakeit.Seed(opts.seed)

	s := &seeder{
		users:    repository.NewUserRepository(pool, logger),
		products: repository.NewProductRepository(pool, logger),
		shipping: repository.NewShippingRepository(pool, logger),
		hasher:   auth.NewBcryptHasher(0),
		now:      time.Now().UTC(),
		logger:   logger,
	}
	return s.seed(ctx, opts)
}

type seeder struct {
	users    repository.UserRepository
	products repository.ProductRepository
	shipping repository.ShippingRepository
	hasher   auth.PasswordHasher
	now      time.Time
	logger   zerolog.Logger
}

func (s *seeder) seed(ctx context.Context, opts options) error {
	if _, err := s.user(ctx, model.RoleAdmin, "admin@modamarket.cl", "Administración", decimal.Zero); err != nil {
		return err
	}

	for i := 0; i < opts.vendors; i++ {
		email := fmt.Sprintf("vendedor%d@modamarket.cl", i+1)
		vendor, err := s.user(ctx, model.RoleVendor, email, gofakeit.Company(), decimal.NewFromInt(int64(gofakeit.Number(5, 15))))
		if err != nil {
			return err
		}
		if err := s.catalogue(ctx, vendor, opts.products); err != nil {
			return err
		}
		if err := s.zones(ctx, vendor); err != nil {
			return err
		}
	}

	for i := 0; i < opts.customers; i++ {
		email := fmt.Sprintf("cliente%d@modamarket.cl", i+1)
		if _, err := s.user(ctx, model.RoleCustomer, email, gofakeit.Name(), decimal.Zero); err != nil {
			return err
		}
	}

	s.logger.Info().
		Int("vendors", opts.vendors).
		Int("products_per_vendor", opts.products).
		Int("customers", opts.customers).
		Str("password", seedPassword).
		Msg("seed completed")
	return nil
}

func (s *seeder) user(ctx context.Context, role model.Role, email, name string, commission decimal.Decimal) (*model.User, error) {
	hash, err := s.hasher.Hash(seedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Commission:   commission,
		CreatedAt:    s.now,
		UpdatedAt:    s.now,
	}
	if role == model.RoleVendor {
		u.PaymentMethods = []model.PaymentMethod{{
			Type:          "transferencia",
			Bank:          gofakeit.RandomString([]string{"Banco Estado", "Banco de Chile", "Santander", "BCI"}),
			AccountType:   "Cuenta corriente",
			AccountNumber: gofakeit.Numerify("########"),
			HolderName:    name,
			HolderRUT:     fmt.Sprintf("%d-%d", gofakeit.Number(10000000, 25000000), gofakeit.Number(0, 9)),
			Email:         email,
		}}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", role, email, err)
	}
	return u, nil
}

func (s *seeder) catalogue(ctx context.Context, vendor *model.User, count int) error {
	for i := 0; i < count; i++ {
		category := model.Categories[gofakeit.Number(0, len(model.Categories)-1)]
		p := &model.Product{
			ID:          uuid.New(),
			SellerID:    vendor.ID,
			Name:        gofakeit.ProductName(),
			Description: gofakeit.ProductDescription(),
			Price:       decimal.NewFromInt(int64(gofakeit.Number(5, 80))*1000 - 10),
			Stock:       gofakeit.Number(0, 25),
			Category:    category,
			Sizes:       sizes[:gofakeit.Number(1, len(sizes))],
			Colors:      []string{gofakeit.Color(), gofakeit.Color()},
			Images:      []string{fmt.Sprintf("https://picsum.photos/seed/%s/600/800", uuid.NewString())},
			Featured:    gofakeit.Number(0, 4) == 0,
			Active:      true,
			CreatedAt:   s.now,
			UpdatedAt:   s.now,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) zones(ctx context.Context, vendor *model.User) error {
	region := "Metropolitana"
	communes := regions[region]

	zones := []model.ShippingZone{
		{Type: model.ZoneRegion, Name: "Envío a " + region, Region: region, Cost: decimal.NewFromInt(3500), EstimatedDays: 3},
		{Type: model.ZoneCommune, Name: "Envío a " + communes[0], Commune: communes[0], Region: region, Cost: decimal.NewFromInt(2000), EstimatedDays: 1},
		{Type: model.ZonePickupStore, Name: "Retiro en tienda", PickupAddress: gofakeit.Street() + " " + gofakeit.Numerify("###") + ", " + communes[1], Cost: decimal.Zero},
		{Type: model.ZoneMetroStation, Name: "Entrega en metro", MetroLine: "L1", MetroStation: metroStations[gofakeit.Number(0, len(metroStations)-1)], Cost: decimal.NewFromInt(1000), EstimatedDays: 2},
	}
	for other := range regions {
		if other == region {
			continue
		}
		zones = append(zones, model.ShippingZone{Type: model.ZoneRegion, Name: "Envío a " + other, Region: other, Cost: decimal.NewFromInt(6500), EstimatedDays: 5})
	}

	for i := range zones {
		z := zones[i]
		z.ID = uuid.New()
		z.VendorID = vendor.ID
		z.Enabled = true
		z.CreatedAt = s.now
		z.UpdatedAt = s.now
		if err := s.shipping.Create(ctx, &z); err != nil {
			return err
		}
	}
	return nil
}
