package serializers

import (
	"time"

	"github.com/coreybb/timetrack/models"
)

const msgEndsBeforeStart = "Ensure this value is not earlier than time_started."

// TimeRecordInput is what a caller may write. The owner and the duration
// are always derived server-side and are not part of the input.
type TimeRecordInput struct {
	Description *string    `json:"description" validate:"omitempty,max=100"`
	Project     *int64     `json:"project" validate:"required,gte=1"`
	TimeStarted *time.Time `json:"time_started" validate:"required"`
	TimeEnded   *time.Time `json:"time_ended" validate:"required"`
}

// ApplyTo copies present fields onto record. An explicit null description
// clears it.
func (in *TimeRecordInput) ApplyTo(record *models.TimeRecord, present Present) {
	if present["description"] {
		record.Description = in.Description
	}
	if present["project"] && in.Project != nil {
		record.ProjectID = *in.Project
	}
	if present["time_started"] && in.TimeStarted != nil {
		record.TimeStarted = in.TimeStarted.UTC()
	}
	if present["time_ended"] && in.TimeEnded != nil {
		record.TimeEnded = in.TimeEnded.UTC()
	}
}

// ValidateTimeRecord checks rules spanning several fields, after a partial
// update has been merged onto the stored row.
func ValidateTimeRecord(record *models.TimeRecord) error {
	if record.TimeEnded.Before(record.TimeStarted) {
		return NewValidationError("time_ended", msgEndsBeforeStart)
	}
	return nil
}
