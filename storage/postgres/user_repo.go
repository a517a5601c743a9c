package postgres

import (
	"context"

	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/storage"
)

type userRepo struct {
	db  querier
	log logger.ILogger
}

func NewUserRepo(db querier, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

const userColumns = `id, phone, name, role, created_at, updated_at`

// GetOrCreate is keyed by phone. An existing row is returned as is, so the
// role a user was first created with sticks.
func (r *userRepo) GetOrCreate(ctx context.Context, phone, name, role string) (*models.User, error) {
	var user models.User
	query := `
		INSERT INTO users (phone, name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET phone = EXCLUDED.phone
		RETURNING ` + userColumns
	err := r.db.QueryRow(ctx, query, phone, name, role).Scan(
		&user.ID, &user.Phone, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to get or create user", logger.String("phone", phone), logger.Error(err))
		return nil, mapErr("get or create user", err)
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getBy(ctx, "phone", phone)
}

func (r *userRepo) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	err := r.db.QueryRow(ctx, query, value).Scan(
		&user.ID, &user.Phone, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		err = mapErr("get user", err)
		if !models.IsDomainError(err) {
			r.log.Error("failed to get user", logger.String("by", column), logger.Error(err))
		}
		return nil, err
	}
	return &user, nil
}
