// Package auth holds the demo login rules. There is no credential store:
// any non-empty user login is accepted and the admin pair is fixed by config.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/model"
)

type UserCredentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type AdminCredentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// InputError lists the offending fields with a human message for each.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return fmt.Sprintf("invalid input (%s)", strings.Join(parts, ", "))
}

func (e *InputError) Unwrap() error { return errs.ErrInvalidInput }

type Identity struct {
	Role  model.Role
	Email string
}

type Authenticator struct {
	adminUsername string
	adminPassword string
	googleEmail   string
	validate      *validator.Validate
}

func NewAuthenticator(adminUsername, adminPassword, googleEmail string) *Authenticator {
	return &Authenticator{
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		googleEmail:   googleEmail,
		validate:      validator.New(),
	}
}

func (a *Authenticator) check(v interface{}) error {
	err := a.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &InputError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out.Fields[field] = "is required"
		case "email":
			out.Fields[field] = "must be a valid email address"
		default:
			out.Fields[field] = "is invalid"
		}
	}
	return out
}

// LoginUser accepts any well-formed email with a non-empty password.
func (a *Authenticator) LoginUser(c UserCredentials) (Identity, error) {
	c.Email = strings.TrimSpace(c.Email)
	if err := a.check(c); err != nil {
		return Identity{}, err
	}
	return Identity{Role: model.RoleUser, Email: strings.ToLower(c.Email)}, nil
}

// LoginAdmin compares against the configured pair by plain equality.
func (a *Authenticator) LoginAdmin(c AdminCredentials) (Identity, error) {
	if err := a.check(c); err != nil {
		return Identity{}, err
	}
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(a.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(a.adminPassword)) == 1
	if !userOK || !passOK {
		return Identity{}, errs.ErrInvalidCredentials
	}
	return Identity{Role: model.RoleAdmin}, nil
}

// AdminUsername is shown as a placeholder on the login page.
func (a *Authenticator) AdminUsername() string {
	return a.adminUsername
}

// LoginGoogle is the external identity shortcut. It always succeeds.
func (a *Authenticator) LoginGoogle() Identity {
	return Identity{Role: model.RoleUser, Email: a.googleEmail}
}
