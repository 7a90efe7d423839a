package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
	SetHasModelKey(ctx context.Context, userID string, hasKey bool) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO user_profiles (user_id, name, email, avatar_url)
              VALUES ($1, $2, $3, $4) RETURNING user_id, name, email, avatar_url, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, u.UserID, u.Name, u.Email, u.AvatarURL).
		Scan(&u.UserID, &u.Name, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT user_id, email, name, avatar_url, stripe_customer_id, has_model_key, created_at, updated_at
              FROM user_profiles WHERE user_id=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT user_id, email, name, avatar_url, stripe_customer_id, has_model_key, created_at, updated_at
              FROM user_profiles WHERE email=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	query := `SELECT user_id, email, name, avatar_url, stripe_customer_id, has_model_key, created_at, updated_at
              FROM user_profiles WHERE stripe_customer_id=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, customerID))
}

func (r *userRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.AvatarURL, &u.StripeCustomerID, &u.HasModelKey, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	query := `UPDATE user_profiles SET stripe_customer_id=$2, updated_at=NOW() WHERE user_id=$1`
	if _, err := r.pool.Exec(ctx, query, userID, customerID); err != nil {
		return fmt.Errorf("updating stripe customer id for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	query := `UPDATE user_profiles SET avatar_url=$2, updated_at=NOW() WHERE user_id=$1`
	if _, err := r.pool.Exec(ctx, query, userID, avatarURL); err != nil {
		return fmt.Errorf("updating avatar for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) SetHasModelKey(ctx context.Context, userID string, hasKey bool) error {
	query := `UPDATE user_profiles SET has_model_key=$2, updated_at=NOW() WHERE user_id=$1`
	if _, err := r.pool.Exec(ctx, query, userID, hasKey); err != nil {
		return fmt.Errorf("updating model key flag for user %s: %w", userID, err)
	}
	return nil
}
