package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/evn/appgate/internal/models"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `
        SELECT id, username, password_hash, role, created_at
        FROM users
        WHERE username = $1
    `

	var user models.User
	err := r.DB.QueryRow(query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(id int) (*models.User, error) {
	query := `
        SELECT id, username, password_hash, role, created_at
        FROM users
        WHERE id = $1
    `

	var user models.User
	err := r.DB.QueryRow(query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Create inserts a new user and fills its ID and creation time.
func (r *UserRepository) Create(user *models.User) error {
	query := `
        INSERT INTO users (username, password_hash, role)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	err := r.DB.QueryRow(query, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) List() ([]models.User, error) {
	query := `
        SELECT id, username, password_hash, role, created_at
        FROM users
        ORDER BY username
    `

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// EnsureSuperadmin seeds the bootstrap account on startup. An existing user
// with the same username is left untouched.
func (r *UserRepository) EnsureSuperadmin(username, passwordHash string) error {
	query := `
        INSERT INTO users (username, password_hash, role)
        VALUES ($1, $2, 'superadmin')
        ON CONFLICT (username) DO NOTHING
    `

	if _, err := r.DB.Exec(query, username, passwordHash); err != nil {
		return fmt.Errorf("failed to seed superadmin: %w", err)
	}

	return nil
}
