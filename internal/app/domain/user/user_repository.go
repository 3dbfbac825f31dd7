package user

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// CompleteProfile persists the profile fields and flips is_registered.
	CompleteProfile(ctx context.Context, userID string, nombre string, telefono, linkedinURL *string, policyAccepted bool) (*models.User, error)
	// List returns users filtered by role and/or free-text email match.
	List(ctx context.Context, role, emailQuery string, limit, offset uint64) ([]models.User, error)
	UpdateRole(ctx context.Context, userID string, role models.Role) error
}

type PostgresUserRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{logger: logger, pgpool: pgpool}
}

const userColumns = `id, email, nombre, role, is_registered, policy_accepted, telefono, linkedin_url, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Nombre, &u.Role, &u.IsRegistered, &u.PolicyAccepted,
		&u.Telefono, &u.LinkedinURL, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) CompleteProfile(ctx context.Context, userID string, nombre string, telefono, linkedinURL *string, policyAccepted bool) (*models.User, error) {
	query := `UPDATE users
	          SET nombre = $1, telefono = $2, linkedin_url = $3, policy_accepted = $4,
	              is_registered = TRUE, updated_at = NOW()
	          WHERE id = $5
	          RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, nombre, telefono, linkedinURL, policyAccepted, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error completing profile", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("database error completing profile: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) List(ctx context.Context, role, emailQuery string, limit, offset uint64) ([]models.User, error) {
	builder := sq.Select(userColumns).
		From("users").
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		PlaceholderFormat(sq.Dollar)

	if role != "" {
		builder = builder.Where(sq.Eq{"role": role})
	}
	if emailQuery != "" {
		builder = builder.Where(sq.ILike{"email": "%" + emailQuery + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error listing users", zap.Error(err))
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepo) UpdateRole(ctx context.Context, userID string, role models.Role) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pgpool.Exec(ctx, query, role, userID)
	if err != nil {
		r.logger.Error("Error updating user role", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("database error updating role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
	}
	return nil
}
