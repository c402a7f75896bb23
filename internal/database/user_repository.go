package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/example/hanzi/pkg/models"
	"github.com/go-playground/validator/v10"
)

const userColumns = `id, username, pin_code, is_admin, viewed_count, created_at, last_login_at`

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	pinPattern      = regexp.MustCompile(`^[0-9]{4}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})
	return v
}

type credentials struct {
	Username string `validate:"required,min=3,max=20,username"`
	PinCode  string `validate:"required,pin"`
}

// UserRepository handles database operations for users
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new repository instance
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create registers a new user. Usernames are 3 to 20 letters, digits or
// underscores; the PIN is exactly four digits.
func (r *UserRepository) Create(ctx context.Context, username, pin string) (*models.User, error) {
	if err := validate.Struct(credentials{Username: username, PinCode: pin}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	now := r.store.timestamp()
	user := &models.User{
		Username:    username,
		PinCode:     pin,
		CreatedAt:   now,
		LastLoginAt: now,
	}

	err = db.QueryRowxContext(ctx, db.Rebind(`
		INSERT INTO users (username, pin_code, is_admin, viewed_count, created_at, last_login_at)
		VALUES (?, ?, ?, 0, ?, ?)
		RETURNING id`),
		user.Username, user.PinCode, false, user.CreatedAt, user.LastLoginAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.store.log.Debug("user created")
	return user, nil
}

// GetByID returns a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername returns a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.GetContext(ctx, &user, db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %v", ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	db, err := r.store.conn()
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// Authenticate checks the PIN of a user and records the login time.
// Unknown users and wrong PINs both yield ErrInvalidCredentials.
func (r *UserRepository) Authenticate(ctx context.Context, username, pin string) (*models.User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PinCode != pin {
		return nil, ErrInvalidCredentials
	}

	if err := r.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	updated, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateLastLogin sets last_login_at to the current time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, fmt.Sprintf("user %d", id), r.store.timestamp(), id)
}

// PromoteToAdmin grants admin rights to the named user
func (r *UserRepository) PromoteToAdmin(ctx context.Context, username string) error {
	return r.exec(ctx, `UPDATE users SET is_admin = ? WHERE username = ?`, fmt.Sprintf("user %q", username), true, username)
}

// Delete removes a user and, through the foreign keys, their progress and
// quiz results.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = ?`, fmt.Sprintf("user %d", id), id)
}

func (r *UserRepository) exec(ctx context.Context, query, subject string, args ...interface{}) error {
	db, err := r.store.conn()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", subject, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, subject)
	}
	return nil
}
