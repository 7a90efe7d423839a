package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

type UserService interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	SearchByEmail(ctx context.Context, email string) (*model.User, error)
	StoreModelKey(ctx context.Context, userID, apiKey string) error
	DeleteModelKey(ctx context.Context, userID string) error
}

type userService struct {
	userRepo  repository.UserRepository
	stripeSvc *StripeService
	secretSvc SecretService
	logger    zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, stripeSvc *StripeService, secretSvc SecretService, logger zerolog.Logger) UserService {
	lg := logger.With().Str("service", "UserService").Logger()
	return &userService{userRepo: userRepo, stripeSvc: stripeSvc, secretSvc: secretSvc, logger: lg}
}

// Create registers a user profile and provisions its Stripe customer.
// Stripe failure does not fail signup; the customer is created lazily later.
func (s *userService) Create(ctx context.Context, u *model.User) (*model.User, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if s.stripeSvc != nil {
		if _, err := s.stripeSvc.CreateCustomer(ctx, u); err != nil {
			s.logger.Error().Err(err).Str("user_id", u.UserID).Msg("Failed to create Stripe customer at signup")
		}
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SearchByEmail finds a user by exact email, used for friend requests.
func (s *userService) SearchByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// StoreModelKey saves the user's own model API key in Secret Manager and
// flags the profile so generation prefers it over the shared key.
func (s *userService) StoreModelKey(ctx context.Context, userID, apiKey string) error {
	if err := s.secretSvc.StoreUserModelKey(ctx, userID, apiKey); err != nil {
		return fmt.Errorf("store model key: %w", err)
	}
	if err := s.userRepo.SetHasModelKey(ctx, userID, true); err != nil {
		return fmt.Errorf("flag model key on profile: %w", err)
	}
	return nil
}

func (s *userService) DeleteModelKey(ctx context.Context, userID string) error {
	if err := s.secretSvc.DeleteUserModelKey(ctx, userID); err != nil {
		return fmt.Errorf("delete model key: %w", err)
	}
	if err := s.userRepo.SetHasModelKey(ctx, userID, false); err != nil {
		return fmt.Errorf("clear model key flag on profile: %w", err)
	}
	return nil
}
