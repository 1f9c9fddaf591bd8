package user

import (
	"strings"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/access"
)

type InviteDTO struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (d InviteDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if !strings.Contains(d.Email, "@") {
		fields = append(fields, internal.FieldError{Field: "email", Message: "valid email required"})
	}
	if len(d.Roles) == 0 {
		fields = append(fields, internal.FieldError{Field: "roles", Message: "roles must be a non-empty array"})
	}
	for _, r := range d.Roles {
		if !access.ValidRole(access.Role(r)) {
			fields = append(fields, internal.FieldError{Field: "roles", Message: "invalid role: " + r})
		}
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

func (d InviteDTO) RoleSet() access.RoleSet {
	out := make(access.RoleSet, len(d.Roles))
	for i, r := range d.Roles {
		out[i] = access.Role(r)
	}
	return out
}

type AcceptInvitationDTO struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (d AcceptInvitationDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.Token == "" {
		fields = append(fields, internal.FieldError{Field: "token", Message: "token is required"})
	}
	if len(d.Name) < 1 || len(d.Name) > 255 {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name is required"})
	}
	if len(d.Password) < 6 {
		fields = append(fields, internal.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

type UpdateUserDTO struct {
	Name     *string  `json:"name"`
	Roles    []string `json:"roles"`
	Timezone *string  `json:"timezone"`
	IsActive *bool    `json:"isActive"`
}

func (d UpdateUserDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.Name != nil && (len(*d.Name) < 1 || len(*d.Name) > 255) {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name must be 1-255 characters"})
	}
	for _, r := range d.Roles {
		if !access.ValidRole(access.Role(r)) {
			fields = append(fields, internal.FieldError{Field: "roles", Message: "invalid role: " + r})
		}
	}
	if d.Timezone != nil && (len(*d.Timezone) < 1 || len(*d.Timezone) > 50) {
		fields = append(fields, internal.FieldError{Field: "timezone", Message: "timezone must be 1-50 characters"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

// InvitationResponse is returned from Invite with the acceptance URL the
// frontend mails out.
type InvitationResponse struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Roles         access.RoleSet `json:"roles"`
	ExpiresAt     string         `json:"expiresAt"`
	InvitationURL string         `json:"invitationUrl"`
}

// AcceptedUserResponse is the slim shape returned after accepting an
// invitation.
type AcceptedUserResponse struct {
	ID    string         `json:"id"`
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Roles access.RoleSet `json:"roles"`
}
