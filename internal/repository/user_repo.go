package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/model"
	"account_service/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// ErrDuplicateEmail is returned when the unique email index rejects a write
var ErrDuplicateEmail = errors.New("email already registered")

// ErrPasswordRequired is returned when creating a user without a staged password
var ErrPasswordRequired = errors.New("password is required")

// ErrInvalidRole is returned when creating a user with an unknown role
var ErrInvalidRole = errors.New("invalid role")

// DBTX is the subset of pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for account data.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
	UpdateDetails(ctx context.Context, id, name, mobile string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
	SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	CompleteReset(ctx context.Context, user *model.User, tokenHash string, now time.Time) (bool, error)
}

type userRepository struct {
	db     DBTX
	hasher utils.PasswordHasher
}

// NewUserRepository creates a new UserRepository. Staged passwords are
// hashed with hasher before every write.
func NewUserRepository(db DBTX, hasher utils.PasswordHasher) UserRepository {
	return &userRepository{db: db, hasher: hasher}
}

const userColumns = `id::text, name, email, mobile, password_hash, role,
       reset_password_token, reset_password_expire, version, created_at`

// hashIfDirty hashes the staged plaintext password, if any
func (r *userRepository) hashIfDirty(user *model.User) error {
	if !user.PasswordDirty() {
		return nil
	}
	hash, err := r.hasher.Hash(user.StagedPassword())
	if err != nil {
		return oops.Code("ACCOUNT_HASH_FAILED").
			With("id", user.ID).
			Wrap(err)
	}
	user.MarkPasswordHashed(hash)
	return nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if !user.PasswordDirty() && user.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if err := r.hashIfDirty(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if !model.IsValidRole(user.Role) {
		return ErrInvalidRole
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	sql := `INSERT INTO users (id, name, email, mobile, password_hash, role, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, sql, user.ID, user.Name, user.Email, user.Mobile, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// FindByID retrieves a user by id
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrMalformedID
	}
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, "ACCOUNT_GET_BY_ID_FAILED", sql, id)
}

// FindByEmail retrieves a user by exact email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, "ACCOUNT_GET_BY_EMAIL_FAILED", sql, email)
}

// FindByResetToken retrieves the user holding the given reset token hash,
// regardless of expiry
func (r *userRepository) FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE reset_password_token = $1`
	return r.findOne(ctx, "ACCOUNT_GET_BY_RESET_TOKEN_FAILED", sql, tokenHash)
}

// UpdateDetails changes name and mobile only and returns the updated user
func (r *userRepository) UpdateDetails(ctx context.Context, id, name, mobile string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrMalformedID
	}
	sql := `UPDATE users SET name = $2, mobile = $3, version = version + 1
            WHERE id = $1
            RETURNING ` + userColumns
	return r.findOne(ctx, "ACCOUNT_UPDATE_DETAILS_FAILED", sql, id, name, mobile)
}

// Save writes the mutable fields of user, hashing a staged password first
func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.hashIfDirty(user); err != nil {
		return err
	}
	sql := `UPDATE users
            SET name = $2, mobile = $3, password_hash = $4,
                reset_password_token = $5, reset_password_expire = $6,
                version = version + 1
            WHERE id = $1
            RETURNING version`
	err := r.db.QueryRow(ctx, sql, user.ID, user.Name, user.Mobile, user.PasswordHash,
		user.ResetPasswordToken, user.ResetPasswordExpire).Scan(&user.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return oops.Code("ACCOUNT_NOT_FOUND").With("id", user.ID).Errorf("no user with id %s", user.ID)
		}
		return oops.Code("ACCOUNT_SAVE_FAILED").
			With("id", user.ID).
			Wrap(err)
	}
	return nil
}

// SetResetToken stores a reset token hash and expiry without touching other fields
func (r *userRepository) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	sql := `UPDATE users SET reset_password_token = $2, reset_password_expire = $3, version = version + 1
            WHERE id = $1`
	tag, err := r.db.Exec(ctx, sql, id, tokenHash, expire)
	if err != nil {
		return oops.Code("ACCOUNT_SET_RESET_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Errorf("no user with id %s", id)
	}
	return nil
}

// ClearResetToken unsets the reset token pair
func (r *userRepository) ClearResetToken(ctx context.Context, id string) error {
	sql := `UPDATE users SET reset_password_token = NULL, reset_password_expire = NULL, version = version + 1
            WHERE id = $1`
	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return oops.Code("ACCOUNT_CLEAR_RESET_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

// CompleteReset writes the staged password and clears the reset pair, but
// only while tokenHash is still stored on the row and unexpired at now.
// It reports false when the condition no longer holds.
func (r *userRepository) CompleteReset(ctx context.Context, user *model.User, tokenHash string, now time.Time) (bool, error) {
	if err := r.hashIfDirty(user); err != nil {
		return false, err
	}
	sql := `UPDATE users
            SET password_hash = $2, reset_password_token = NULL, reset_password_expire = NULL,
                version = version + 1
            WHERE id = $1 AND reset_password_token = $3 AND reset_password_expire > $4
            RETURNING version`
	err := r.db.QueryRow(ctx, sql, user.ID, user.PasswordHash, tokenHash, now).Scan(&user.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, oops.Code("ACCOUNT_RESET_FAILED").With("id", user.ID).Wrap(err)
	}
	user.ClearReset()
	return true, nil
}

func (r *userRepository) findOne(ctx context.Context, code, sql string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.Code(code).Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Mobile, &user.PasswordHash, &user.Role,
		&user.ResetPasswordToken, &user.ResetPasswordExpire, &user.Version, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
