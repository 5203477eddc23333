package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modamarket/internal/auth"
	"modamarket/internal/model"
	"modamarket/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// userService implements UserService.
type userService struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
	logger   zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, hasher auth.PasswordHasher, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

func (s *userService) GetProfile(ctx context.Context, sess *model.Session) (*model.User, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	return s.mustGet(ctx, sess.UserID)
}

func (s *userService) UpdateProfile(ctx context.Context, sess *model.Session, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetProfile(ctx, sess)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	user.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) AddAddress(ctx context.Context, sess *model.Session, req *model.AddressRequest) (*model.Address, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	addr := addressFromRequest(req)
	addr.ID = uuid.New()
	addr.UserID = sess.UserID
	addr.CreatedAt = time.Now().UTC()
	if err := s.userRepo.AddAddress(ctx, addr); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", sess.UserID.String()).Str("address_id", addr.ID.String()).Msg("address added")
	return addr, nil
}

func (s *userService) UpdateAddress(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	existing, err := s.userRepo.GetAddress(ctx, sess.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if existing == nil {
		return nil, model.ErrAddressNotFound
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	addr := addressFromRequest(req)
	addr.ID = existing.ID
	addr.UserID = existing.UserID
	addr.CreatedAt = existing.CreatedAt
	ok, err := s.userRepo.UpdateAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrAddressNotFound
	}
	addr.IsDefault = existing.IsDefault || req.IsDefault
	return addr, nil
}

func (s *userService) DeleteAddress(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	if sess == nil {
		return model.ErrUnauthenticated
	}
	ok, err := s.userRepo.DeleteAddress(ctx, sess.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrAddressNotFound
	}
	return nil
}

func (s *userService) AddPhone(ctx context.Context, sess *model.Session, req *model.PhoneRequest) (*model.Phone, error) {
	if sess == nil {
		return nil, model.ErrUnauthenticated
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	phone := &model.Phone{
		ID:        uuid.New(),
		UserID:    sess.UserID,
		Number:    strings.TrimSpace(req.Number),
		Label:     strings.TrimSpace(req.Label),
		IsDefault: req.IsDefault,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.userRepo.AddPhone(ctx, phone); err != nil {
		return nil, err
	}
	return phone, nil
}

func (s *userService) UpdatePhone(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.PhoneRequest) (*model.Phone, error) {
	user, err := s.GetProfile(ctx, sess)
	if err != nil {
		return nil, err
	}
	var existing *model.Phone
	for i := range user.Phones {
		if user.Phones[i].ID == id {
			existing = &user.Phones[i]
			break
		}
	}
	if existing == nil {
		return nil, model.ErrPhoneNotFound
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	phone := &model.Phone{
		ID:        existing.ID,
		UserID:    user.ID,
		Number:    strings.TrimSpace(req.Number),
		Label:     strings.TrimSpace(req.Label),
		IsDefault: req.IsDefault,
		CreatedAt: existing.CreatedAt,
	}
	ok, err := s.userRepo.UpdatePhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPhoneNotFound
	}
	phone.IsDefault = existing.IsDefault || req.IsDefault
	return phone, nil
}

func (s *userService) DeletePhone(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	if sess == nil {
		return model.ErrUnauthenticated
	}
	ok, err := s.userRepo.DeletePhone(ctx, sess.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPhoneNotFound
	}
	return nil
}

func (s *userService) UpdatePaymentMethods(ctx context.Context, sess *model.Session, req *model.PaymentMethodsRequest) (*model.User, error) {
	if err := requireRole(sess, model.RoleVendor); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	ok, err := s.userRepo.UpdatePaymentMethods(ctx, sess.UserID, req.PaymentMethods)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserNotFound
	}
	s.logger.Info().Str("user_id", sess.UserID.String()).Int("count", len(req.PaymentMethods)).Msg("payment methods updated")
	return s.mustGet(ctx, sess.UserID)
}

func (s *userService) List(ctx context.Context, sess *model.Session, filter model.UserFilter) (*model.UserList, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, model.Validationf(model.ErrCodeInvalidPayload, "Rol inválido")
	}
	filter.Page, filter.Limit = model.NormalizePage(filter.Page, filter.Limit)

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return &model.UserList{Users: users, Pagination: model.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *userService) Get(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.User, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.mustGet(ctx, id)
}

func (s *userService) Create(ctx context.Context, sess *model.Session, req *model.CreateUserRequest) (*model.User, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	commission, err := commissionFor(req.Role, req.Commission, decimal.Zero)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: &hash,
		Role:         req.Role,
		Commission:   commission,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Str("admin_id", sess.UserID.String()).
		Msg("user created by admin")
	return user, nil
}

func (s *userService) Update(ctx context.Context, sess *model.Session, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrInvalidPayload
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	user.Commission, err = commissionFor(user.Role, req.Commission, user.Commission)
	if err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id.String()).Str("admin_id", sess.UserID.String()).Msg("user updated by admin")
	return user, nil
}

func (s *userService) Delete(ctx context.Context, sess *model.Session, id uuid.UUID) error {
	if err := requireRole(sess, model.RoleAdmin); err != nil {
		return err
	}
	if id == sess.UserID {
		return model.ErrCannotDeleteSelf
	}
	ok, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUserNotFound
	}
	s.logger.Info().Str("user_id", id.String()).Str("admin_id", sess.UserID.String()).Msg("user deleted by admin")
	return nil
}

func (s *userService) mustGet(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *model.User) error {
	ok, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUserNotFound
	}
	return nil
}

// commissionFor resolves the commission a user with role should carry.
// Non-vendors always carry zero.
func commissionFor(role model.Role, requested *decimal.Decimal, current decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		if requested.IsNegative() || requested.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, model.ErrInvalidCommission
		}
		current = *requested
	}
	if role != model.RoleVendor {
		return decimal.Zero, nil
	}
	return current, nil
}

func addressFromRequest(req *model.AddressRequest) *model.Address {
	return &model.Address{
		Label:     strings.TrimSpace(req.Label),
		Street:    strings.TrimSpace(req.Street),
		Number:    strings.TrimSpace(req.Number),
		Apartment: strings.TrimSpace(req.Apartment),
		Commune:   strings.TrimSpace(req.Commune),
		Region:    strings.TrimSpace(req.Region),
		Reference: strings.TrimSpace(req.Reference),
		IsDefault: req.IsDefault,
	}
}
