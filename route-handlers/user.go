package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/coreybb/timetrack/models"
	"github.com/coreybb/timetrack/serializers"
	"github.com/coreybb/timetrack/webutil"
)

type UserHandler struct {
	Repo   UserStore
	Policy AccessPolicy
}

func NewUserHandler(repo UserStore, policy AccessPolicy) *UserHandler {
	return &UserHandler{Repo: repo, Policy: policy}
}

// visible reports whether the caller may address the user with userID.
func (h *UserHandler) visible(callerID, userID int64) bool {
	return !h.Policy.RestrictUsersToSelf || callerID == userID
}

func (h *UserHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) error {
	me, err := caller(r)
	if err != nil {
		return err
	}

	var onlyID *int64
	if h.Policy.RestrictUsersToSelf {
		onlyID = &me.ID
	}
	users, err := h.Repo.GetUsers(r.Context(), onlyID)
	if err != nil {
		return fmt.Errorf("failed to retrieve users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, users)
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.load(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

// HandleCreateUser adds a user without a password. Such users cannot log in
// until they are given one out of band; self-service sign-up goes through
// the registration endpoint instead.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) error {
	if _, err := caller(r); err != nil {
		return err
	}

	var in serializers.UserInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, false); err != nil {
		return err
	}

	var user models.User
	in.ApplyTo(&user, present)
	if err := h.Repo.CreateUser(r.Context(), &user); err != nil {
		return storeError(err, "User")
	}

	webutil.RespondWithJSON(w, http.StatusCreated, user)
	return nil
}

// HandleReplaceUser serves PUT: every writable field is validated.
func (h *UserHandler) HandleReplaceUser(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, false)
}

// HandlePatchUser serves PATCH: only the fields sent are validated and written.
func (h *UserHandler) HandlePatchUser(w http.ResponseWriter, r *http.Request) error {
	return h.update(w, r, true)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, partial bool) error {
	user, err := h.load(r)
	if err != nil {
		return err
	}

	var in serializers.UserInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, partial); err != nil {
		return err
	}

	in.ApplyTo(user, present)
	if err := h.Repo.UpdateUser(r.Context(), user); err != nil {
		return storeError(err, "User")
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.load(r)
	if err != nil {
		return err
	}
	if err := h.Repo.DeleteUser(r.Context(), user.ID); err != nil {
		return storeError(err, "User")
	}
	webutil.RespondNoContent(w)
	return nil
}

// load fetches the user named in the path, honouring the access policy.
func (h *UserHandler) load(r *http.Request) (*models.User, error) {
	me, err := caller(r)
	if err != nil {
		return nil, err
	}
	userID, err := pathID(r, ParamID)
	if err != nil {
		return nil, err
	}
	if !h.visible(me.ID, userID) {
		return nil, webutil.ErrNotFound("User not found")
	}

	user, err := h.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, storeError(err, "User")
	}
	return user, nil
}
