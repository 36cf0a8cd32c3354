package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"market_chat/internal/domain"
	apperrors "market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	db  DB
	log logger.Logger
}

func NewUserRepository(db DB, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name FROM users WHERE id = $1`

	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		r.log.Error("Failed to get user by ID", "user_id", id, "error", err)
		return nil, err
	}

	return user, nil
}
