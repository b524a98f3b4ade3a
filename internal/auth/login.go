// Package auth covers user login and the signed session tokens that carry
// a user and basket across requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
)

const (
	maxEmailLength    = 254
	maxPasswordLength = 128
)

// Authenticator checks login credentials.
type Authenticator struct {
	users ports.UserRepository
	// blockStaff refuses staff logins over the API.
	blockStaff bool
}

func NewAuthenticator(users ports.UserRepository, blockStaff bool) *Authenticator {
	return &Authenticator{users: users, blockStaff: blockStaff}
}

// Login returns the user for email and password or a *entity.ValidationError
// describing why the login was refused.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*entity.User, error) {
	verr := &entity.ValidationError{}
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		verr.Add("email", "This field is required.")
	case len(email) > maxEmailLength:
		verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", maxEmailLength))
	}
	switch {
	case password == "":
		verr.Add("password", "This field is required.")
	case len(password) > maxPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPasswordLength))
	}
	if !verr.Empty() {
		return nil, verr
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.NewValidationError("invalid login")
	}
	if err != nil {
		return nil, err
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entity.NewValidationError("invalid login")
	}
	if !user.IsActive {
		return nil, entity.NewValidationError("Can not log in as inactive user")
	}
	if user.IsStaff && a.blockStaff {
		return nil, entity.NewValidationError("Staff users can not log in via the rest api")
	}
	return user, nil
}
