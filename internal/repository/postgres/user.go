package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, name, email, mobile, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Mobile, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, mobile, status, last_login_at, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, mobile, status, last_login_at, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET name = $1, mobile = $2, status = $3, last_login_at = $4, updated_at = $5
		WHERE id = $6
	`
	u.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		u.Name, u.Mobile, u.Status, u.LastLoginAt, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

type adminRepository struct {
	BaseRepository
}

func NewAdminRepository(db *sqlx.DB) repository.AdminRepository {
	return &adminRepository{NewBaseRepository(db)}
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM admins WHERE email = $1
	`
	var a model.Admin
	if err := r.db.GetContext(ctx, &a, query, email); err != nil {
		return nil, err
	}
	return &a, nil
}
