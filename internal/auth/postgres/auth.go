package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/auth"
)

// Repository implements auth.Repository over the users table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRow struct {
	ID          string
	Email       string
	Name        string
	Roles       string
	Timezone    string
	AvatarURL   *string
	IsActive    bool
	LastLoginAt *time.Time
}

func (r userRow) toSessionUser() (*auth.User, error) {
	var roles access.RoleSet
	if r.Roles != "" {
		if err := json.Unmarshal([]byte(r.Roles), &roles); err != nil {
			return nil, err
		}
	}
	return &auth.User{
		ID:          r.ID,
		Email:       r.Email,
		Name:        r.Name,
		Roles:       roles,
		Timezone:    r.Timezone,
		AvatarURL:   r.AvatarURL,
		IsActive:    r.IsActive,
		LastLoginAt: r.LastLoginAt,
	}, nil
}

// GetCredentials returns the id and password hash for an active user. Users
// created through Google sign-in have no hash and cannot password-login.
func (r *Repository) GetCredentials(email string) (string, string, error) {
	var row struct {
		ID           string
		PasswordHash *string
	}
	err := r.db.Raw(
		`SELECT id, password_hash FROM users WHERE email = ? AND is_active = ?`,
		email, true,
	).Scan(&row).Error
	if err != nil {
		return "", "", err
	}
	if row.ID == "" || row.PasswordHash == nil || *row.PasswordHash == "" {
		return "", "", gorm.ErrRecordNotFound
	}
	return row.ID, *row.PasswordHash, nil
}

func (r *Repository) GetSessionUser(userID string) (*auth.User, error) {
	var row userRow
	err := r.db.Raw(
		`SELECT id, email, name, roles, timezone, avatar_url, is_active, last_login_at
		 FROM users WHERE id = ? AND is_active = ?`,
		userID, true,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toSessionUser()
}

func (r *Repository) GetUserByEmail(email string) (*auth.User, error) {
	var row userRow
	err := r.db.Raw(
		`SELECT id, email, name, roles, timezone, avatar_url, is_active, last_login_at
		 FROM users WHERE email = ? AND is_active = ?`,
		email, true,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toSessionUser()
}

// CreateGoogleUser provisions a first-time Google sign-in with the default
// engineer role and UTC timezone.
func (r *Repository) CreateGoogleUser(email, name, avatarURL string) (*auth.User, error) {
	roles := access.RoleSet{access.RoleEngineer}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	err = r.db.Exec(
		`INSERT INTO users (id, email, name, roles, timezone, avatar_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, email, name, string(rolesJSON), "UTC", avatarURL, true, now, now,
	).Error
	if err != nil {
		return nil, err
	}

	avatar := avatarURL
	return &auth.User{
		ID:       id,
		Email:    email,
		Name:     name,
		Roles:    roles,
		Timezone: "UTC",
		AvatarURL: func() *string {
			if avatar == "" {
				return nil
			}
			return &avatar
		}(),
		IsActive: true,
	}, nil
}

// TouchLogin stamps last_login_at, optionally refreshing the avatar.
func (r *Repository) TouchLogin(userID string, avatarURL *string) error {
	now := time.Now().UTC()
	if avatarURL != nil && *avatarURL != "" {
		return r.db.Exec(
			`UPDATE users SET last_login_at = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
			now, *avatarURL, now, userID,
		).Error
	}
	return r.db.Exec(
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		now, now, userID,
	).Error
}

// CountAssignedCustomers counts active customers the user is assigned to.
func (r *Repository) CountAssignedCustomers(userID string) (int64, error) {
	var count int64
	err := r.db.Raw(
		`SELECT COUNT(*) FROM customer_assignments ca
		 JOIN customers c ON c.id = ca.customer_id
		 WHERE ca.user_id = ? AND c.status = ?`,
		userID, "active",
	).Scan(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return count, nil
}
