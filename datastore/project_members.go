package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/timetrack/models"
)

// ProjectMemberRepository handles database operations for the project_users join table.
type ProjectMemberRepository struct {
	db *sql.DB
}

// NewProjectMemberRepository creates a new ProjectMemberRepository.
func NewProjectMemberRepository(db *sql.DB) *ProjectMemberRepository {
	return &ProjectMemberRepository{db: db}
}

// AddMember links a user to a project. Adding an existing member is a no-op.
// Unknown project or user IDs surface as ErrConstraintViolation.
func (r *ProjectMemberRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	query := `
		INSERT INTO project_users (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to add user %d to project %d: %w", userID, projectID, mapError(err))
	}
	return nil
}

// RemoveMember unlinks a user from a project. The user's time records stay.
func (r *ProjectMemberRepository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	err := execDelete(ctx, r.db,
		`DELETE FROM project_users WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("no membership for user %d in project %d: %w", userID, projectID, err)
	}
	return nil
}

// GetMembers lists the users belonging to a project, earliest member first.
func (r *ProjectMemberRepository) GetMembers(ctx context.Context, projectID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.date_joined
		FROM users u
		JOIN project_users pu ON pu.user_id = u.id
		WHERE pu.project_id = $1
		ORDER BY pu.created_at ASC, u.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of project %d: %w", projectID, mapError(err))
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("failed to scan member row for project %d: %w", projectID, err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows for project %d: %w", projectID, err)
	}
	return users, nil
}
