package routehandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coreybb/timetrack/auth"
	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
	"github.com/coreybb/timetrack/serializers"
	"github.com/coreybb/timetrack/webutil"
	"github.com/go-chi/chi/v5"
)

// URL parameter names shared with the router.
const (
	ParamID     = "id"
	ParamUserID = "userID"
)

const (
	msgInvalidPK       = "Invalid pk - object does not exist."
	msgUsernameTaken   = "A user with that username already exists."
	msgConstraintError = "Request violates a data constraint"
)

// Constraint names PostgreSQL generates for the schema in datastore/migrations.
const (
	constraintUsernameUnique  = "users_username_key"
	constraintRecordProjectFK = "time_records_project_id_fkey"
	constraintMemberUserFK    = "project_users_user_id_fkey"
	constraintMemberProjectFK = "project_users_project_id_fkey"
)

// caller returns the authenticated user placed on the context by the auth middleware.
func caller(r *http.Request) (*models.User, error) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return nil, webutil.ErrUnauthorized("Authentication credentials were not provided.")
	}
	return user, nil
}

// pathID parses a numeric URL parameter. Anything else cannot name a row.
func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, webutil.ErrNotFound("Not found.")
	}
	return id, nil
}

// decode reads the request body into an input struct.
func decode(r *http.Request, dst any) (serializers.Present, error) {
	defer r.Body.Close()
	present, err := serializers.Decode(r.Body, dst)
	if errors.Is(err, serializers.ErrMalformedJSON) {
		return nil, webutil.ErrBadRequestWrap("Invalid request payload: JSON parse error", err)
	}
	return present, err
}

// storeError turns datastore failures into client-facing errors.
// what names the resource for not-found messages.
func storeError(err error, what string) error {
	if errors.Is(err, datastore.ErrNotFound) {
		return webutil.ErrNotFoundWrap(what+" not found", err)
	}

	var ce *datastore.ConstraintError
	if !errors.As(err, &ce) {
		return err
	}
	switch ce.Constraint {
	case constraintUsernameUnique:
		return serializers.NewValidationError("username", msgUsernameTaken)
	case constraintRecordProjectFK:
		return serializers.NewValidationError("project", msgInvalidPK)
	case constraintMemberUserFK:
		return serializers.NewValidationError("user", msgInvalidPK)
	case constraintMemberProjectFK:
		return webutil.ErrNotFoundWrap("Project not found", err)
	default:
		return webutil.ErrBadRequestWrap(fmt.Sprintf("%s (%s)", msgConstraintError, ce.Code), err)
	}
}
