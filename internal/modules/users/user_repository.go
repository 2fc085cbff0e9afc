package users

import (
	"context"
	"errors"
	"fmt"

	"marketdash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the user repository.
type RepositoryInterface interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// UpdateLocation stores the courier's latest coordinates. Only the most
	// recent pair is kept; history lives nowhere.
	UpdateLocation(ctx context.Context, userID string, lng, lat float64) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new user repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.Role).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("users.Create: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, name, role, last_lng, last_lat, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.LastLng, &u.LastLat, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("users.FindByEmail: %w", err)
	}
	return u, err
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("users.FindByID: %w", err)
	}
	return u, err
}

func (r *Repository) UpdateLocation(ctx context.Context, userID string, lng, lat float64) error {
	const query = `
		UPDATE users SET last_lng = $2, last_lat = $3, updated_at = now()
		WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, userID, lng, lat)
	if err != nil {
		return fmt.Errorf("users.UpdateLocation: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
