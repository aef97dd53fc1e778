package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/timetrack/models"
	"github.com/lib/pq"
)

// ProjectFilter narrows project queries. The zero value matches every project.
type ProjectFilter struct {
	// MemberID, when set, restricts results to projects the user belongs to.
	MemberID *int64
}

// ProjectRepository handles database operations for projects.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const selectProjects = `
	SELECT p.id, p.name, p.created_at,
	       COALESCE(ARRAY_AGG(pu.user_id ORDER BY pu.user_id) FILTER (WHERE pu.user_id IS NOT NULL), '{}') AS user_ids
	FROM projects p
	LEFT JOIN project_users pu ON pu.project_id = p.id
	WHERE ($1::BIGINT IS NULL OR EXISTS (
		SELECT 1 FROM project_users m WHERE m.project_id = p.id AND m.user_id = $1
	))
`

func scanProject(row rowScanner, project *models.Project) error {
	var userIDs pq.Int64Array
	if err := row.Scan(&project.ID, &project.Name, &project.CreatedAt, &userIDs); err != nil {
		return err
	}
	project.UserIDs = []int64(userIDs)
	if project.UserIDs == nil {
		project.UserIDs = []int64{}
	}
	return nil
}

// CreateProject inserts the project and records creatorID as its first member.
func (r *ProjectRepository) CreateProject(ctx context.Context, project *models.Project, creatorID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin project transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	err = tx.QueryRowContext(ctx,
		`INSERT INTO projects (name) VALUES ($1) RETURNING id, created_at`,
		project.Name,
	).Scan(&project.ID, &project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project %q: %w", project.Name, mapError(err))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_users (project_id, user_id) VALUES ($1, $2)`,
		project.ID, creatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to add creator %d to project %d: %w", creatorID, project.ID, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project %d: %w", project.ID, err)
	}
	project.UserIDs = []int64{creatorID}
	return nil
}

// GetProjectByID retrieves a project with its member IDs.
// A project hidden by the filter is reported as ErrNotFound.
func (r *ProjectRepository) GetProjectByID(ctx context.Context, projectID int64, filter ProjectFilter) (*models.Project, error) {
	query := selectProjects + ` AND p.id = $2 GROUP BY p.id`

	var project models.Project
	if err := scanProject(r.db.QueryRowContext(ctx, query, filter.MemberID, projectID), &project); err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", projectID, mapError(err))
	}
	return &project, nil
}

// GetProjects lists projects in creation order.
func (r *ProjectRepository) GetProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	query := selectProjects + ` GROUP BY p.id ORDER BY p.id`

	rows, err := r.db.QueryContext(ctx, query, filter.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", mapError(err))
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var project models.Project
		if err := scanProject(rows, &project); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, project)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

// UpdateProject renames a project. Membership is managed separately.
func (r *ProjectRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE projects SET name = $1 WHERE id = $2 RETURNING created_at`,
		project.Name, project.ID,
	).Scan(&project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project %d: %w", project.ID, mapError(err))
	}
	return nil
}

// DeleteProject removes the project and, by cascade, its time records and memberships.
func (r *ProjectRepository) DeleteProject(ctx context.Context, projectID int64) error {
	if err := execDelete(ctx, r.db, `DELETE FROM projects WHERE id = $1`, projectID); err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}
	return nil
}
