package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/timetrack/models"
)

// TimeRecordFilter scopes time record queries. UserID is mandatory: records
// are only ever visible to the user who logged them.
type TimeRecordFilter struct {
	UserID    int64
	ProjectID *int64
}

// TimeRecordRepository handles database operations for time records.
type TimeRecordRepository struct {
	db *sql.DB
}

// NewTimeRecordRepository creates a new TimeRecordRepository.
func NewTimeRecordRepository(db *sql.DB) *TimeRecordRepository {
	return &TimeRecordRepository{db: db}
}

const selectTimeRecords = `
	SELECT tr.id, tr.user_id, tr.project_id, p.name, tr.description,
	       tr.time_started, tr.time_ended, tr.duration_us
	FROM time_records tr
	JOIN projects p ON p.id = tr.project_id
`

func scanTimeRecord(row rowScanner, record *models.TimeRecord) error {
	var description sql.NullString
	var durationUS int64
	err := row.Scan(
		&record.ID, &record.UserID, &record.ProjectID, &record.ProjectName, &description,
		&record.TimeStarted, &record.TimeEnded, &durationUS,
	)
	if err != nil {
		return err
	}
	if description.Valid {
		record.Description = &description.String
	}
	record.TimeStarted = record.TimeStarted.UTC()
	record.TimeEnded = record.TimeEnded.UTC()
	record.Duration = models.DurationFromMicroseconds(durationUS)
	return nil
}

// CreateTimeRecord inserts the record, deriving its duration first.
// ID and ProjectName are filled in from the database.
func (r *TimeRecordRepository) CreateTimeRecord(ctx context.Context, record *models.TimeRecord) error {
	record.ComputeDuration()

	query := `
		WITH inserted AS (
			INSERT INTO time_records (user_id, project_id, description, time_started, time_ended, duration_us)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, project_id
		)
		SELECT i.id, p.name FROM inserted i JOIN projects p ON p.id = i.project_id
	`
	err := r.db.QueryRowContext(ctx, query,
		record.UserID, record.ProjectID, record.Description,
		record.TimeStarted, record.TimeEnded, record.Duration.Microseconds(),
	).Scan(&record.ID, &record.ProjectName)
	if err != nil {
		return fmt.Errorf("failed to insert time record for user %d: %w", record.UserID, mapError(err))
	}
	return nil
}

// GetTimeRecordByID retrieves one of userID's records.
// Records belonging to anyone else are reported as ErrNotFound.
func (r *TimeRecordRepository) GetTimeRecordByID(ctx context.Context, recordID, userID int64) (*models.TimeRecord, error) {
	query := selectTimeRecords + ` WHERE tr.id = $1 AND tr.user_id = $2`

	var record models.TimeRecord
	if err := scanTimeRecord(r.db.QueryRowContext(ctx, query, recordID, userID), &record); err != nil {
		return nil, fmt.Errorf("failed to get time record %d: %w", recordID, mapError(err))
	}
	return &record, nil
}

// GetTimeRecords lists records matching filter, newest first.
func (r *TimeRecordRepository) GetTimeRecords(ctx context.Context, filter TimeRecordFilter) ([]models.TimeRecord, error) {
	query := selectTimeRecords + `
		WHERE tr.user_id = $1
		  AND ($2::BIGINT IS NULL OR tr.project_id = $2)
		ORDER BY tr.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, filter.UserID, filter.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time records for user %d: %w", filter.UserID, mapError(err))
	}
	defer rows.Close()

	records := []models.TimeRecord{}
	for rows.Next() {
		var record models.TimeRecord
		if err := scanTimeRecord(rows, &record); err != nil {
			return nil, fmt.Errorf("failed to scan time record row for user %d: %w", filter.UserID, err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time record rows for user %d: %w", filter.UserID, err)
	}
	return records, nil
}

// UpdateTimeRecord overwrites the mutable fields of one of the owner's
// records and recomputes its duration.
func (r *TimeRecordRepository) UpdateTimeRecord(ctx context.Context, record *models.TimeRecord) error {
	record.ComputeDuration()

	query := `
		WITH updated AS (
			UPDATE time_records
			SET project_id = $1, description = $2, time_started = $3, time_ended = $4, duration_us = $5
			WHERE id = $6 AND user_id = $7
			RETURNING project_id
		)
		SELECT p.name FROM updated u JOIN projects p ON p.id = u.project_id
	`
	err := r.db.QueryRowContext(ctx, query,
		record.ProjectID, record.Description, record.TimeStarted, record.TimeEnded,
		record.Duration.Microseconds(), record.ID, record.UserID,
	).Scan(&record.ProjectName)
	if err != nil {
		return fmt.Errorf("failed to update time record %d: %w", record.ID, mapError(err))
	}
	return nil
}

// DeleteTimeRecord removes one of userID's records.
func (r *TimeRecordRepository) DeleteTimeRecord(ctx context.Context, recordID, userID int64) error {
	err := execDelete(ctx, r.db, `DELETE FROM time_records WHERE id = $1 AND user_id = $2`, recordID, userID)
	if err != nil {
		return fmt.Errorf("time record %d: %w", recordID, err)
	}
	return nil
}
