package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the marketplace role carried by every session.
type Role string

const (
	RoleCustomer Role = "cliente"
	RoleVendor   Role = "vendedor"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

const (
	MaxAddresses = 3
	MaxPhones    = 2
)

// User represents a marketplace account.
type User struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	PasswordHash   *string         `json:"-"`
	Role           Role            `json:"role"`
	Commission     decimal.Decimal `json:"commission"`
	Addresses      []Address       `json:"addresses"`
	Phones         []Phone         `json:"phones"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Address is a saved customer address.
type Address struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Label     string    `json:"label"`
	Street    string    `json:"street"`
	Number    string    `json:"number"`
	Apartment string    `json:"apartment,omitempty"`
	Commune   string    `json:"commune"`
	Region    string    `json:"region"`
	Reference string    `json:"reference,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// Location returns the part of the address used for shipping matching.
func (a Address) Location() Location {
	return Location{Commune: a.Commune, Region: a.Region}
}

// Phone is a saved contact number.
type Phone struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Number    string    `json:"number"`
	Label     string    `json:"label,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentMethod holds the bank transfer details a vendor shows to buyers.
type PaymentMethod struct {
	Type          string `json:"type" validate:"required,oneof=transferencia deposito"`
	Bank          string `json:"bank" validate:"required,max=100"`
	AccountType   string `json:"accountType" validate:"required,max=50"`
	AccountNumber string `json:"accountNumber" validate:"required,max=50"`
	HolderName    string `json:"holderName" validate:"required,max=100"`
	HolderRUT     string `json:"holderRut" validate:"required,max=20"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
}

// RegisterRequest is the payload for customer self-registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateProfileRequest updates the caller's own profile.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// AddressRequest creates or replaces an address.
type AddressRequest struct {
	Label     string `json:"label" validate:"max=50"`
	Street    string `json:"street" validate:"required,max=150"`
	Number    string `json:"number" validate:"required,max=20"`
	Apartment string `json:"apartment" validate:"max=50"`
	Commune   string `json:"commune" validate:"required,max=100"`
	Region    string `json:"region" validate:"required,max=100"`
	Reference string `json:"reference" validate:"max=200"`
	IsDefault bool   `json:"isDefault"`
}

// PhoneRequest creates or replaces a phone.
type PhoneRequest struct {
	Number    string `json:"number" validate:"required,min=8,max=20"`
	Label     string `json:"label" validate:"max=50"`
	IsDefault bool   `json:"isDefault"`
}

// PaymentMethodsRequest replaces a vendor's payment methods.
type PaymentMethodsRequest struct {
	PaymentMethods []PaymentMethod `json:"paymentMethods" validate:"max=5,dive"`
}

// CreateUserRequest is the admin payload for creating any kind of account.
type CreateUserRequest struct {
	Name       string           `json:"name" validate:"required,min=2,max=100"`
	Email      string           `json:"email" validate:"required,email"`
	Password   string           `json:"password" validate:"required,min=8,max=72"`
	Role       Role             `json:"role" validate:"required,oneof=cliente vendedor admin"`
	Commission *decimal.Decimal `json:"commission"`
}

// UpdateUserRequest is the admin payload for changing an account.
type UpdateUserRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=2,max=100"`
	Role       *Role            `json:"role" validate:"omitempty,oneof=cliente vendedor admin"`
	Commission *decimal.Decimal `json:"commission"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role  Role
	Page  int
	Limit int
}

// UserList is the paginated admin user listing.
type UserList struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}
