package serializers

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreybb/timetrack/models"
)

const (
	msgEmailTaken      = "A user with that email already exists."
	msgPasswordTooLong = "Ensure this field has no more than 72 bytes."
	maxPasswordBytes   = 72 // bcrypt input limit
)

// UserInput is the writable subset of a user for the user controller.
// The password is not settable here.
type UserInput struct {
	Username  *string `json:"username" validate:"required,min=1,max=150"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// ApplyTo copies every present field onto user.
func (in *UserInput) ApplyTo(user *models.User, present Present) {
	set := func(name string, src *string, dst *string) {
		if present[name] && src != nil {
			*dst = *src
		}
	}
	set("username", in.Username, &user.Username)
	set("email", in.Email, &user.Email)
	set("first_name", in.FirstName, &user.FirstName)
	set("last_name", in.LastName, &user.LastName)
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
}

// EmailChecker reports whether an email is already registered, ignoring case.
type EmailChecker interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Validate checks the payload, lower-cases the email and rejects addresses
// already in use.
func (in *RegisterInput) Validate(ctx context.Context, present Present, emails EmailChecker) error {
	if err := Validate(in, present, false); err != nil {
		return err
	}
	// The tag counts runes; bcrypt counts bytes.
	if len(in.Password) > maxPasswordBytes {
		return NewValidationError("password", msgPasswordTooLong)
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := emails.EmailExists(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if exists {
		return EmailTakenError()
	}
	return nil
}

// EmailTakenError reports a duplicate registration. It is also used when a
// concurrent sign-up wins the race past Validate.
func EmailTakenError() *ValidationError {
	return NewValidationError("email", msgEmailTaken)
}

// ToUser builds the user row. The username mirrors the email.
func (in *RegisterInput) ToUser(passwordHash string) models.User {
	return models.User{
		Username:     in.Email,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: passwordHash,
	}
}

// LoginInput carries credentials. Username is the address the user registered with.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegistrationRepresentation answers a sign-up with the submitted profile
// and the new account's token.
type RegistrationRepresentation struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

func NewRegistrationRepresentation(user models.User, token string) RegistrationRepresentation {
	return RegistrationRepresentation{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Token:     token,
	}
}

// TokenRepresentation is a user profile together with their API token.
type TokenRepresentation struct {
	models.User
	Token string `json:"token"`
}
