package service

import (
	"context"
	"fmt"
	"strings"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type UserService interface {
	// Register returns the user owning phone, creating it on first sight.
	Register(ctx context.Context, phone, name, role string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	stg storage.IUserStorage
	log logger.ILogger
}

func NewUserService(stg storage.IStorage, log logger.ILogger) UserService {
	return &userService{
		stg: stg.User(),
		log: log,
	}
}

func (s *userService) Register(ctx context.Context, phone, name, role string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, models.NewValidationError("phone", "is required")
	}
	if role != models.RoleDriver && role != models.RoleRider {
		return nil, models.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	return s.stg.GetOrCreate(ctx, phone, strings.TrimSpace(name), role)
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.stg.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}
