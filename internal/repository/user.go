package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rentdesk/rentdesk/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	SetApproval(ctx context.Context, username string, domestic, foreign bool) error
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, password_hash, foreign_approved, domestic_approved, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.ForeignApproved,
		user.DomesticApproved,
		user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE username = $1`

	err := sqlxGet(ctx, r.db, user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, hash, userID)
	return err
}

func (r *userRepository) SetApproval(ctx context.Context, username string, domestic, foreign bool) error {
	query := `UPDATE users SET domestic_approved = $1, foreign_approved = $2 WHERE username = $3`

	result, err := r.db.ExecContext(ctx, query, domestic, foreign, username)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
