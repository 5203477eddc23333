package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the closed set of catalogue categories.
type Category string

const (
	CategoryDresses     Category = "vestidos"
	CategoryTShirts     Category = "poleras"
	CategoryBlouses     Category = "blusas"
	CategoryTrousers    Category = "pantalones"
	CategorySkirts      Category = "faldas"
	CategoryJackets     Category = "chaquetas"
	CategoryShoes       Category = "zapatos"
	CategoryAccessories Category = "accesorios"
	CategoryOther       Category = "otros"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryDresses, CategoryTShirts, CategoryBlouses, CategoryTrousers, CategorySkirts,
	CategoryJackets, CategoryShoes, CategoryAccessories, CategoryOther,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a garment or accessory in the catalogue.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"sellerId"`
	SellerName  string          `json:"sellerName,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    Category        `json:"category"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	Images      []string        `json:"images"`
	Featured    bool            `json:"featured"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasSize reports whether the product accepts the given size.
// Products without declared sizes accept only the empty size.
func (p *Product) HasSize(size string) bool {
	return hasOption(p.Sizes, size)
}

// HasColor reports whether the product accepts the given color.
func (p *Product) HasColor(color string) bool {
	return hasOption(p.Colors, color)
}

func hasOption(options []string, value string) bool {
	if len(options) == 0 {
		return value == ""
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// ProductRequest is the payload for creating or replacing a product.
type ProductRequest struct {
	SellerID    *uuid.UUID      `json:"sellerId"`
	Name        string          `json:"name" validate:"required,min=2,max=150"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    Category        `json:"category" validate:"required,oneof=vestidos poleras blusas pantalones faldas chaquetas zapatos accesorios otros"`
	Sizes       []string        `json:"sizes" validate:"max=20,dive,required,max=20"`
	Colors      []string        `json:"colors" validate:"max=20,dive,required,max=30"`
	Images      []string        `json:"images" validate:"required,min=1,max=10,dive,required,url"`
	Featured    bool            `json:"featured"`
	Active      *bool           `json:"active"`
}

// ProductFilter narrows catalogue listings.
type ProductFilter struct {
	Category     Category
	SellerID     *uuid.UUID
	Featured     *bool
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	IncludeDraft bool
	Page         int
	Limit        int
}

// ProductList is the paginated catalogue response.
type ProductList struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
