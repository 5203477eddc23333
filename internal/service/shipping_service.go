package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgNoZones        = "El vendedor no tiene zonas de envío configuradas"
	msgNoMatchingZone = "No hay envío disponible para esta dirección"
)

// shippingService implements ShippingService.
type shippingService struct {
	repo     repository.ShippingRepository
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewShippingService creates a new shipping service.
func NewShippingService(repo repository.ShippingRepository, userRepo repository.UserRepository, logger zerolog.Logger) ShippingService {
	return &shippingService{
		repo:     repo,
		userRepo: userRepo,
		logger:   logger.With().Str("service", "shipping").Logger(),
	}
}

func (s *shippingService) ListZones(ctx context.Context, sess *model.Session, vendorID *uuid.UUID) ([]model.ShippingZone, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if sess.Role == model.RoleVendor {
		vendorID = &sess.UserID
	}
	zones, err := s.repo.List(ctx, vendorID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return nonNilZones(zones), nil
}

func (s *shippingService) PublicZones(ctx context.Context, vendorID uuid.UUID) ([]model.ShippingZone, error) {
	zones, err := s.repo.List(ctx, &vendorID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return nonNilZones(zones), nil
}

func (s *shippingService) GetZone(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.ShippingZone, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	zone, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(sess, zone.VendorID) {
		return nil, model.ErrForbidden
	}
	return zone, nil
}

func (s *shippingService) CreateZone(ctx context.Context, sess *model.Session, req *model.ZoneRequest) (*model.ShippingZone, error) {
	if err := requireRole(sess, model.RoleVendor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}

	vendorID := sess.UserID
	if sess.Role == model.RoleAdmin {
		if req.VendorID == nil {
			return nil, model.Validationf(model.ErrCodeInvalidPayload, "El campo vendorId es obligatorio")
		}
		vendor, err := s.userRepo.GetByID(ctx, *req.VendorID)
		if err != nil {
			return nil, fmt.Errorf("failed to get vendor: %w", err)
		}
		if vendor == nil || vendor.Role != model.RoleVendor {
			return nil, model.ErrVendorNotFound
		}
		vendorID = vendor.ID
	}

	if err := validateZone(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	zone := &model.ShippingZone{ID: uuid.New(), VendorID: vendorID, Enabled: true, CreatedAt: now}
	applyZoneRequest(zone, req, now)
	if err := s.repo.Create(ctx, zone); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("zone_id", zone.ID.String()).
		Str("vendor_id", vendorID.String()).
		Str("type", string(zone.Type)).
		Msg("shipping zone created")
	return zone, nil
}

func (s *shippingService) UpdateZone(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.ZoneRequest) (*model.ShippingZone, error) {
	zone, err := s.GetZone(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateZone(req); err != nil {
		return nil, err
	}

	applyZoneRequest(zone, req, time.Now().UTC())
	ok, err := s.repo.Update(ctx, zone)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrZoneNotFound
	}
	return zone, nil
}

func (s *shippingService) DeleteZone(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	if _, err := s.GetZone(ctx, sess, id); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrZoneNotFound
	}
	return nil
}

func (s *shippingService) Quote(ctx context.Context, sess *model.Session, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	vendor, err := s.userRepo.GetByID(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	if vendor == nil || vendor.Role != model.RoleVendor {
		return nil, model.ErrVendorNotFound
	}

	var loc model.Location
	if req.AddressID != nil {
		addr, err := s.userRepo.GetAddress(ctx, sess.UserID, *req.AddressID)
		if err != nil {
			return nil, fmt.Errorf("failed to get address: %w", err)
		}
		if addr == nil {
			return nil, model.ErrAddressNotFound
		}
		loc = addr.Location()
	} else {
		loc = model.Location{Commune: strings.TrimSpace(req.Commune), Region: strings.TrimSpace(req.Region)}
		if loc.Commune == "" && loc.Region == "" {
			return nil, model.Validationf(model.ErrCodeInvalidPayload, "Debes indicar una dirección o comuna y región")
		}
	}

	zones, err := s.repo.List(ctx, &req.VendorID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return BuildQuote(zones, loc), nil
}

// BuildQuote turns the vendor's zones into a quote for loc.
func BuildQuote(zones []model.ShippingZone, loc model.Location) *model.QuoteResponse {
	resp := &model.QuoteResponse{Options: []model.ShippingOption{}}
	if !hasEnabled(zones) {
		resp.Message = msgNoZones
		return resp
	}

	matched := MatchZones(zones, loc)
	if len(matched) == 0 {
		resp.Message = msgNoMatchingZone
		return resp
	}

	resp.Available = true
	for _, z := range matched {
		resp.Options = append(resp.Options, model.ShippingOption{
			ZoneID:        z.ID,
			Type:          z.Type,
			Name:          z.Name,
			Cost:          z.Cost,
			EstimatedDays: z.EstimatedDays,
			PickupAddress: pickupPoint(z),
		})
	}
	return resp
}

// MatchZones returns the enabled zones that serve loc, cheapest first. Zones
// of equal cost keep their input order.
func MatchZones(zones []model.ShippingZone, loc model.Location) []model.ShippingZone {
	matched := make([]model.ShippingZone, 0, len(zones))
	for _, z := range zones {
		if z.Enabled && ZoneServes(z, loc) {
			matched = append(matched, z)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Cost.LessThan(matched[j].Cost)
	})
	return matched
}

// ZoneServes applies the per-type matching rule. Metro stations, custom
// areas and pickup stores do not depend on the address.
func ZoneServes(z model.ShippingZone, loc model.Location) bool {
	switch z.Type {
	case model.ZoneCommune:
		return z.Commune != "" && z.Commune == loc.Commune
	case model.ZoneRegion:
		return z.Region != "" && z.Region == loc.Region
	case model.ZoneMetroStation, model.ZoneCustomArea, model.ZonePickupStore:
		return true
	default:
		return false
	}
}

func hasEnabled(zones []model.ShippingZone) bool {
	for _, z := range zones {
		if z.Enabled {
			return true
		}
	}
	return false
}

func pickupPoint(z model.ShippingZone) string {
	switch z.Type {
	case model.ZonePickupStore:
		return z.PickupAddress
	case model.ZoneMetroStation:
		if z.MetroLine != "" {
			return fmt.Sprintf("Metro %s (%s)", z.MetroStation, z.MetroLine)
		}
		return "Metro " + z.MetroStation
	default:
		return ""
	}
}

func (s *shippingService) mustGet(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error) {
	zone, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	if zone == nil {
		return nil, model.ErrZoneNotFound
	}
	return zone, nil
}

func validateZone(req *model.ZoneRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Cost.IsNegative() {
		return model.Validationf(model.ErrCodeInvalidPayload, "El costo no puede ser negativo")
	}

	var field, value string
	switch req.Type {
	case model.ZoneCommune:
		field, value = "commune", req.Commune
	case model.ZoneRegion:
		field, value = "region", req.Region
	case model.ZoneMetroStation:
		field, value = "metroStation", req.MetroStation
	case model.ZoneCustomArea:
		field, value = "areaDescription", req.AreaDescription
	case model.ZonePickupStore:
		field, value = "pickupAddress", req.PickupAddress
	}
	if strings.TrimSpace(value) == "" {
		return model.Validationf(model.ErrCodeInvalidPayload,
			fmt.Sprintf("El campo %s es obligatorio para zonas de tipo %s", field, req.Type))
	}
	return nil
}

func applyZoneRequest(z *model.ShippingZone, req *model.ZoneRequest, now time.Time) {
	z.Type = req.Type
	z.Name = strings.TrimSpace(req.Name)
	z.Commune = strings.TrimSpace(req.Commune)
	z.Region = strings.TrimSpace(req.Region)
	z.MetroLine = strings.TrimSpace(req.MetroLine)
	z.MetroStation = strings.TrimSpace(req.MetroStation)
	z.AreaDescription = strings.TrimSpace(req.AreaDescription)
	z.PickupAddress = strings.TrimSpace(req.PickupAddress)
	z.Cost = req.Cost
	z.EstimatedDays = req.EstimatedDays
	if req.Enabled != nil {
		z.Enabled = *req.Enabled
	}
	z.UpdatedAt = now
}

func nonNilZones(zones []model.ShippingZone) []model.ShippingZone {
	if zones == nil {
		return []model.ShippingZone{}
	}
	return zones
}
