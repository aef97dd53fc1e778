package routehandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreybb/timetrack/auth"
	"github.com/coreybb/timetrack/datastore"
	"github.com/coreybb/timetrack/models"
	"github.com/coreybb/timetrack/serializers"
	"github.com/coreybb/timetrack/webutil"
)

const msgBadCredentials = "Unable to log in with provided credentials."

// AuthHandler serves the public sign-up and login endpoints.
type AuthHandler struct {
	Users  UserStore
	Tokens auth.TokenIssuer
}

func NewAuthHandler(users UserStore, tokens auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens}
}

// HandleRegister creates an account whose username is its lower-cased email
// and answers with the profile and a fresh token.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	var in serializers.RegisterInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := in.Validate(r.Context(), present, h.Users); err != nil {
		return err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return webutil.ErrInternalServerWrap("hashing password", err)
	}

	user := in.ToUser(hash)
	if err := h.Users.CreateUser(r.Context(), &user); err != nil {
		// A concurrent sign-up with the same email lost the race past Validate.
		var ce *datastore.ConstraintError
		if errors.As(err, &ce) && ce.Constraint == constraintUsernameUnique {
			return serializers.EmailTakenError()
		}
		return storeError(err, "User")
	}

	token, err := h.Tokens.IssueToken(r.Context(), user.ID)
	if err != nil {
		return err
	}

	slog.Info("User registered", "user_id", user.ID)
	webutil.RespondWithJSON(w, http.StatusCreated, serializers.NewRegistrationRepresentation(user, token))
	return nil
}

// HandleLogin exchanges a username and password for the user's token.
// Logging in repeatedly yields the same token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var in serializers.LoginInput
	present, err := decode(r, &in)
	if err != nil {
		return err
	}
	if err := serializers.Validate(&in, present, false); err != nil {
		return err
	}

	user, err := h.authenticate(r, in.Username, in.Password)
	if err != nil {
		return err
	}

	token, err := h.Tokens.IssueToken(r.Context(), user.ID)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, serializers.TokenRepresentation{User: *user, Token: token})
	return nil
}

// authenticate checks credentials. Registered usernames are lower-case, so a
// miss on the exact spelling is retried lower-cased.
func (h *AuthHandler) authenticate(r *http.Request, username, password string) (*models.User, error) {
	user, err := h.Users.GetUserByUsername(r.Context(), username)
	if errors.Is(err, datastore.ErrNotFound) {
		if lower := strings.ToLower(username); lower != username {
			user, err = h.Users.GetUserByUsername(r.Context(), lower)
		}
	}
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, serializers.NewValidationError("non_field_errors", msgBadCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user for login: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		slog.Debug("Login rejected", "user_id", user.ID, "error", err)
		return nil, serializers.NewValidationError("non_field_errors", msgBadCredentials)
	}
	return user, nil
}
