package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ZoneType is the kind of area a shipping zone covers.
type ZoneType string

const (
	ZoneCommune      ZoneType = "commune"
	ZoneRegion       ZoneType = "region"
	ZoneMetroStation ZoneType = "metro_station"
	ZoneCustomArea   ZoneType = "custom_area"
	ZonePickupStore  ZoneType = "pickup_store"
)

// IsValid reports whether t is a known zone type.
func (t ZoneType) IsValid() bool {
	switch t {
	case ZoneCommune, ZoneRegion, ZoneMetroStation, ZoneCustomArea, ZonePickupStore:
		return true
	default:
		return false
	}
}

// IsPickup reports whether the buyer collects the order at the zone.
func (t ZoneType) IsPickup() bool {
	return t == ZonePickupStore || t == ZoneMetroStation
}

// ShippingZone is a delivery or pickup option offered by a vendor.
type ShippingZone struct {
	ID              uuid.UUID       `json:"id"`
	VendorID        uuid.UUID       `json:"vendorId"`
	Type            ZoneType        `json:"type"`
	Name            string          `json:"name"`
	Commune         string          `json:"commune,omitempty"`
	Region          string          `json:"region,omitempty"`
	MetroLine       string          `json:"metroLine,omitempty"`
	MetroStation    string          `json:"metroStation,omitempty"`
	AreaDescription string          `json:"areaDescription,omitempty"`
	PickupAddress   string          `json:"pickupAddress,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	EstimatedDays   int             `json:"estimatedDays"`
	Enabled         bool            `json:"enabled"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Location is the address subset used for zone matching.
type Location struct {
	Commune string `json:"commune"`
	Region  string `json:"region"`
}

// ZoneRequest creates or replaces a shipping zone.
type ZoneRequest struct {
	VendorID        *uuid.UUID      `json:"vendorId"`
	Type            ZoneType        `json:"type" validate:"required,oneof=commune region metro_station custom_area pickup_store"`
	Name            string          `json:"name" validate:"required,max=100"`
	Commune         string          `json:"commune" validate:"max=100"`
	Region          string          `json:"region" validate:"max=100"`
	MetroLine       string          `json:"metroLine" validate:"max=20"`
	MetroStation    string          `json:"metroStation" validate:"max=100"`
	AreaDescription string          `json:"areaDescription" validate:"max=300"`
	PickupAddress   string          `json:"pickupAddress" validate:"max=300"`
	Cost            decimal.Decimal `json:"cost"`
	EstimatedDays   int             `json:"estimatedDays" validate:"gte=0,lte=60"`
	Enabled         *bool           `json:"enabled"`
}

// QuoteRequest asks for the shipping options a vendor offers to an address.
type QuoteRequest struct {
	VendorID  uuid.UUID  `json:"vendorId" validate:"required"`
	AddressID *uuid.UUID `json:"addressId"`
	Commune   string     `json:"commune"`
	Region    string     `json:"region"`
}

// ShippingOption is one eligible zone in a quote.
type ShippingOption struct {
	ZoneID        uuid.UUID       `json:"zoneId"`
	Type          ZoneType        `json:"type"`
	Name          string          `json:"name"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays int             `json:"estimatedDays"`
	PickupAddress string          `json:"pickupAddress,omitempty"`
}

// QuoteResponse lists the eligible zones, or the reason none apply.
type QuoteResponse struct {
	Available bool             `json:"available"`
	Options   []ShippingOption `json:"options"`
	Message   string           `json:"message,omitempty"`
}
