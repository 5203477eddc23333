package repository

import (
	"context"
	"errors"
	"fmt"

	"modamarket/internal/database"
	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `id, name, email, password_hash, role, commission, payment_methods, created_at, updated_at`

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Commission,
		&u.PaymentMethods, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if u.PaymentMethods == nil {
		u.PaymentMethods = []model.PaymentMethod{}
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.PaymentMethods == nil {
		u.PaymentMethods = []model.PaymentMethod{}
	}
	query := `
		INSERT INTO users (id, name, email, password_hash, role, commission, payment_methods, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Commission,
		u.PaymentMethods, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrDuplicateEmail
		}
		r.logger.Error().Err(err).Str("email", u.Email).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if err := r.loadContacts(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user by email")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if err := r.loadContacts(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) loadContacts(ctx context.Context, u *model.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, label, street, number, apartment, commune, region, reference, is_default, created_at
		FROM user_addresses WHERE user_id = $1 ORDER BY created_at, id
	`, u.ID)
	if err != nil {
		return fmt.Errorf("failed to query addresses: %w", err)
	}
	u.Addresses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Address, error) {
		var a model.Address
		err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.Number, &a.Apartment,
			&a.Commune, &a.Region, &a.Reference, &a.IsDefault, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan addresses: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, user_id, number, label, is_default, created_at
		FROM user_phones WHERE user_id = $1 ORDER BY created_at, id
	`, u.ID)
	if err != nil {
		return fmt.Errorf("failed to query phones: %w", err)
	}
	u.Phones, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Phone, error) {
		var p model.Phone
		err := row.Scan(&p.ID, &p.UserID, &p.Number, &p.Label, &p.IsDefault, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan phones: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	page, limit := model.NormalizePage(filter.Page, filter.Limit)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`, filter.Role).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count users")
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, filter.Role, limit, (page-1)*limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return model.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, role = $3, commission = $4, updated_at = $5
		WHERE id = $1
	`, u.ID, u.Name, u.Role, u.Commission, u.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update user")
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, model.ErrUserHasOrders
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) UpdatePaymentMethods(ctx context.Context, id uuid.UUID, methods []model.PaymentMethod) (bool, error) {
	if methods == nil {
		methods = []model.PaymentMethod{}
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET payment_methods = $2, updated_at = NOW() WHERE id = $1`, id, methods)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update payment methods")
		return false, fmt.Errorf("failed to update payment methods: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	var a model.Address
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, label, street, number, apartment, commune, region, reference, is_default, created_at
		FROM user_addresses WHERE id = $1 AND user_id = $2
	`, addressID, userID).Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.Number, &a.Apartment,
		&a.Commune, &a.Region, &a.Reference, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

func (r *userRepository) AddAddress(ctx context.Context, a *model.Address) error {
	return database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		isDefault, err := prepareContactInsert(ctx, tx, addressTable, a.UserID, a.IsDefault, model.MaxAddresses, model.ErrAddressLimit)
		if err != nil {
			return err
		}
		a.IsDefault = isDefault
		_, err = tx.Exec(ctx, `
			INSERT INTO user_addresses (id, user_id, label, street, number, apartment, commune, region, reference, is_default, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, a.ID, a.UserID, a.Label, a.Street, a.Number, a.Apartment, a.Commune, a.Region, a.Reference, a.IsDefault, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert address: %w", err)
		}
		return nil
	})
}

func (r *userRepository) UpdateAddress(ctx context.Context, a *model.Address) (bool, error) {
	var found bool
	err := database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, addressTable, a.UserID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE user_addresses
			SET label = $3, street = $4, number = $5, apartment = $6, commune = $7, region = $8, reference = $9,
			    is_default = is_default OR $10
			WHERE id = $1 AND user_id = $2
		`, a.ID, a.UserID, a.Label, a.Street, a.Number, a.Apartment, a.Commune, a.Region, a.Reference, a.IsDefault)
		if err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		found = tag.RowsAffected() == 1
		if !found {
			return errNotMatched
		}
		return nil
	})
	if errors.Is(err, errNotMatched) {
		return false, nil
	}
	return found, err
}

func (r *userRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	return r.deleteContact(ctx, addressTable, userID, addressID)
}

func (r *userRepository) AddPhone(ctx context.Context, p *model.Phone) error {
	return database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		isDefault, err := prepareContactInsert(ctx, tx, phoneTable, p.UserID, p.IsDefault, model.MaxPhones, model.ErrPhoneLimit)
		if err != nil {
			return err
		}
		p.IsDefault = isDefault
		_, err = tx.Exec(ctx, `
			INSERT INTO user_phones (id, user_id, number, label, is_default, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, p.UserID, p.Number, p.Label, p.IsDefault, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert phone: %w", err)
		}
		return nil
	})
}

func (r *userRepository) UpdatePhone(ctx context.Context, p *model.Phone) (bool, error) {
	err := database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		if p.IsDefault {
			if err := clearDefault(ctx, tx, phoneTable, p.UserID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE user_phones SET number = $3, label = $4, is_default = is_default OR $5
			WHERE id = $1 AND user_id = $2
		`, p.ID, p.UserID, p.Number, p.Label, p.IsDefault)
		if err != nil {
			return fmt.Errorf("failed to update phone: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return errNotMatched
		}
		return nil
	})
	if errors.Is(err, errNotMatched) {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepository) DeletePhone(ctx context.Context, userID, phoneID uuid.UUID) (bool, error) {
	return r.deleteContact(ctx, phoneTable, userID, phoneID)
}

// errNotMatched aborts a transaction whose keyed update touched no row.
var errNotMatched = errors.New("no matching row")

const (
	addressTable = "user_addresses"
	phoneTable   = "user_phones"
)

// prepareContactInsert locks the owner, enforces the per-user limit and
// resolves whether the new entry becomes the default.
func prepareContactInsert(ctx context.Context, tx pgx.Tx, table string, userID uuid.UUID, wantDefault bool, limit int, limitErr error) (bool, error) {
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrUserNotFound
		}
		return false, fmt.Errorf("failed to lock user: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count %s: %w", table, err)
	}
	if count >= limit {
		return false, limitErr
	}

	if count == 0 {
		return true, nil
	}
	if wantDefault {
		if err := clearDefault(ctx, tx, table, userID); err != nil {
			return false, err
		}
	}
	return wantDefault, nil
}

func clearDefault(ctx context.Context, tx pgx.Tx, table string, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE `+table+` SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return fmt.Errorf("failed to clear default in %s: %w", table, err)
	}
	return nil
}

// deleteContact removes an entry and promotes the oldest remaining one when
// the default was removed.
func (r *userRepository) deleteContact(ctx context.Context, table string, userID, id uuid.UUID) (bool, error) {
	var found bool
	err := database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		var wasDefault bool
		err := tx.QueryRow(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2 RETURNING is_default`, id, userID).Scan(&wasDefault)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		found = true
		if !wasDefault {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE `+table+` SET is_default = TRUE
			WHERE id = (SELECT id FROM `+table+` WHERE user_id = $1 ORDER BY created_at, id LIMIT 1)
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to promote default in %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("table", table).Str("id", id.String()).Msg("failed to delete contact")
		return false, err
	}
	return found, nil
}
