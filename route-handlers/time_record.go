package routehandlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
	"github.com/coreybb/timetrack/serializers"
	"github.com/coreybb/timetrack/webutil"
)

const queryProject = "project"

// TimeRecordHandler serves the caller's own time records. Other users'
// records are indistinguishable from missing ones.
type TimeRecordHandler struct {
	Repo TimeRecordStore
}

func NewTimeRecordHandler(repo TimeRecordStore) *TimeRecordHandler {
	return &TimeRecordHandler{Repo: repo}
}

// HandleGetTimeRecords lists the caller's records, optionally for one project (?project=<id>).
func (h *TimeRecordHandler) HandleGetTimeRecords(w http.ResponseWriter, r *http.Request) error {
	me, err := caller(r)
	if err != nil {
		return err
	}

	filter := datastore.TimeRecordFilter{UserID: me.ID}
	if raw := r.URL.Query().Get(queryProject); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return serializers.NewValidationError(queryProject, "A valid integer is required.")
		}
		filter.ProjectID = &projectID
	}

	records, err := h.Repo.GetTimeRecords(r.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to retrieve time records for user %d: %w", me.ID, err)
	}
	if records == nil {
		records = []models.TimeRecord{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, records)
	return nil
}

func (h *TimeRecordHandler) HandleGetTimeRecord(w http.ResponseWriter, r *http.Request) error {
	record, err := h.load(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, record)
	return nil
}

// HandleCreateTimeRecord logs a record for the caller. Any user or duration
// in the payload is ignored.
func (h *TimeRecordHandler) HandleCreateTimeRecord(w http.ResponseWriter, r *http.Request) error {
	me, err := caller(r)
	if err != nil {
		return err
	}

	var in serializers.TimeRecordInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, false); err != nil {
		return err
	}

	record := models.TimeRecord{UserID: me.ID}
	in.ApplyTo(&record, present)
	if err := serializers.ValidateTimeRecord(&record); err != nil {
		return err
	}

	if err := h.Repo.CreateTimeRecord(r.Context(), &record); err != nil {
		return storeError(err, "Time record")
	}
	webutil.RespondWithJSON(w, http.StatusCreated, record)
	return nil
}

func (h *TimeRecordHandler) HandleReplaceTimeRecord(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, false)
}

func (h *TimeRecordHandler) HandlePatchTimeRecord(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, true)
}

func (h *TimeRecordHandler) update(w http.ResponseWriter, r *http.Request, partial bool) error {
	record, err := h.load(r)
	if err != nil {
		return err
	}

	var in serializers.TimeRecordInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, partial); err != nil {
		return err
	}

	in.ApplyTo(record, present)
	if err := serializers.ValidateTimeRecord(record); err != nil {
		return err
	}

	if err := h.Repo.UpdateTimeRecord(r.Context(), record); err != nil {
		return storeError(err, "Time record")
	}
	webutil.RespondWithJSON(w, http.StatusOK, record)
	return nil
}

func (h *TimeRecordHandler) HandleDeleteTimeRecord(w http.ResponseWriter, r *http.Request) error {
	record, err := h.load(r)
	if err != nil {
		return err
	}
	if err := h.Repo.DeleteTimeRecord(r.Context(), record.ID, record.UserID); err != nil {
		return storeError(err, "Time record")
	}
	webutil.RespondNoContent(w)
	return nil
}

func (h *TimeRecordHandler) load(r *http.Request) (*models.TimeRecord, error) {
	me, err := caller(r)
	if err != nil {
		return nil, err
	}
	recordID, err := pathID(r, ParamID)
	if err != nil {
		return nil, err
	}

	record, err := h.Repo.GetTimeRecordByID(r.Context(), recordID, me.ID)
	if err != nil {
		return nil, storeError(err, "Time record")
	}
	return record, nil
}
