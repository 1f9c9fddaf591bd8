// Package user holds the admin-facing user records and the invitation flow
// through which new accounts are provisioned.
package user

import (
	"time"

	"github.com/timhq/tim/internal/access"
)

// User is the full persisted record, unlike the slim session view the auth
// package carries.
type User struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex"`
	Name         string         `json:"name"`
	PasswordHash *string        `json:"-" gorm:"column:password_hash"`
	Roles        access.RoleSet `json:"roles" gorm:"serializer:json"`
	Timezone     string         `json:"timezone"`
	AvatarURL    *string        `json:"avatarUrl,omitempty"`
	IsActive     bool           `json:"isActive"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type Invitation struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	Email      string         `json:"email"`
	Roles      access.RoleSet `json:"roles" gorm:"serializer:json"`
	Token      string         `json:"-"`
	InvitedBy  string         `json:"invitedBy"`
	ExpiresAt  time.Time      `json:"expiresAt"`
	AcceptedAt *time.Time     `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`

	// Joined from users on list.
	InvitedByName string `json:"invitedByName,omitempty" gorm:"-"`
}

func (Invitation) TableName() string { return "invitations" }

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
