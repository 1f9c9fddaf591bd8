package auth

import (
	"strings"

	"github.com/timhq/tim/internal"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if !strings.Contains(d.Email, "@") {
		fields = append(fields, internal.FieldError{Field: "email", Message: "valid email required"})
	}
	if len(d.Password) < 6 {
		fields = append(fields, internal.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	if d.RefreshToken == "" {
		return internal.NewValidationError("Validation error", []internal.FieldError{
			{Field: "refreshToken", Message: "refreshToken is required"},
		})
	}
	return nil
}

type GoogleLoginDTO struct {
	IDToken string `json:"idToken"`
}

func (d GoogleLoginDTO) Validate() *internal.AppError {
	if d.IDToken == "" {
		return internal.NewValidationError("Validation error", []internal.FieldError{
			{Field: "idToken", Message: "idToken is required"},
		})
	}
	return nil
}

// LoginResponse is the wire shape shared by password and Google logins.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
