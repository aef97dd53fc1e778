package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/timetrack/models"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, date_joined`

type UserRepository struct {
	db *sql.DB // The actual database connection pool
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName,
		&user.LastName, &user.PasswordHash, &user.DateJoined,
	)
}

// CreateUser inserts the user and fills in the generated ID and join time.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date_joined
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
	).Scan(&user.ID, &user.DateJoined)
	if err != nil {
		return fmt.Errorf("failed to insert user %q: %w", user.Username, mapError(err))
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, userID), &user); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, mapError(err))
	}
	return &user, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user models.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, username), &user); err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", mapError(err))
	}
	return &user, nil
}

// EmailExists reports whether any user already holds email, ignoring case.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", mapError(err))
	}
	return exists, nil
}

// GetUsers lists users, most recently joined first. A non-nil onlyID
// restricts the result to that user.
func (r *UserRepository) GetUsers(ctx context.Context, onlyID *int64) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1::BIGINT IS NULL OR id = $1)
		ORDER BY date_joined DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, onlyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", mapError(err))
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateUser writes the profile fields. The password hash is left untouched.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, first_name = $3, last_name = $4
		WHERE id = $5
		RETURNING date_joined
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.ID,
	).Scan(&user.DateJoined)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, mapError(err))
	}
	return nil
}

// DeleteUser removes the user. Their token, memberships and time records
// go with them through ON DELETE CASCADE.
func (r *UserRepository) DeleteUser(ctx context.Context, userID int64) error {
	return execDelete(ctx, r.db, `DELETE FROM users WHERE id = $1`, userID)
}

func execDelete(ctx context.Context, db *sql.DB, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", mapError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
