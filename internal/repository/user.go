package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var userColumns = []string{
	"id", "name", "email", "photo", "role", "active",
	"password_hash", "password_changed_at",
	"COALESCE(password_reset_token, '')", "password_reset_expires",
	"created_at", "version",
}

// UserRepository stores users. Reads only ever see active users; Update
// and Delete address any user by ID.
type UserRepository struct {
	db     DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Photo,
		&u.Role,
		&u.Active,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.CreatedAt,
		&u.Version,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) findOne(ctx context.Context, q *query.Query) (*models.User, error) {
	sql, args := scope(q, "active", query.OpEq, true).Build("users", userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, one(err, "get user")
	}
	return user, nil
}

// Find returns the active users matching q
func (r *UserRepository) Find(ctx context.Context, q *query.Query) ([]*models.User, error) {
	sql, args := scope(q, "active", query.OpEq, true).Build("users", userColumns)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

// FindByID returns an active user
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, query.New().Where("id", query.OpEq, id))
}

// FindByEmail returns the active user registered under email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, query.New().Where("email", query.OpEq, email))
}

// FindByResetToken returns the active user holding the hashed reset token
// if it has not expired at now
func (r *UserRepository) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	q := query.New().
		Where("password_reset_token", query.OpEq, hashedToken).
		Where("password_reset_expires", query.OpGt, now)
	return r.findOne(ctx, q)
}

// FindProfiles returns the public profiles of the active users among ids,
// in the order of ids
func (r *UserRepository) FindProfiles(ctx context.Context, ids []uuid.UUID) ([]*models.Profile, error) {
	sql := `
		SELECT id, name, email, photo, role
		FROM users
		WHERE id = ANY($1) AND active = true
		ORDER BY array_position($1, id)
	`

	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Profile, error) {
		p := &models.Profile{}
		err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Photo, &p.Role)
		return p, err
	})
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	sql := `
		INSERT INTO users (name, email, photo, role, active, password_hash, password_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + strings.Join(userColumns, ", ")

	created, err := scanUser(r.db.QueryRow(ctx, sql,
		u.Name, u.Email, u.Photo, u.Role, u.Active, u.PasswordHash, u.PasswordChangedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	r.logger.Debug("User inserted", zap.String("user_id", created.ID.String()))
	return created, nil
}

// Update overwrites a user, including a deactivated one, and bumps its
// version
func (r *UserRepository) Update(ctx context.Context, u *models.User) (*models.User, error) {
	sql := `
		UPDATE users SET
			name = $2, email = $3, photo = $4, role = $5, active = $6,
			password_hash = $7, password_changed_at = $8,
			password_reset_token = NULLIF($9, ''), password_reset_expires = $10,
			version = version + 1
		WHERE id = $1
		RETURNING ` + strings.Join(userColumns, ", ")

	updated, err := scanUser(r.db.QueryRow(ctx, sql,
		u.ID, u.Name, u.Email, u.Photo, u.Role, u.Active,
		u.PasswordHash, u.PasswordChangedAt,
		u.PasswordResetToken, u.PasswordResetExpires,
	))
	if err != nil {
		return nil, one(err, "update user")
	}
	return updated, nil
}

// Delete removes a user permanently
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "users", id)
}
