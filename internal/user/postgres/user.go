package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/timhq/tim/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(limit, offset int) ([]user.User, int64, error) {
	var total int64
	if err := r.db.Model(&user.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []user.User
	err := r.db.Order("name").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *Repository) GetByID(id string) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *Repository) Update(u *user.User) error {
	return r.db.Save(u).Error
}

// Deactivate flips is_active; the row is never deleted. Returns false when
// no such user exists.
func (r *Repository) Deactivate(id string) (bool, error) {
	result := r.db.Model(&user.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) CreateInvitation(inv *user.Invitation) error {
	return r.db.Create(inv).Error
}

func (r *Repository) GetInvitationByEmail(email string) (*user.Invitation, error) {
	var inv user.Invitation
	if err := r.db.First(&inv, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) GetInvitationByToken(token string) (*user.Invitation, error) {
	var inv user.Invitation
	if err := r.db.First(&inv, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvitations returns all invitations newest first with the inviter's
// name resolved.
func (r *Repository) ListInvitations() ([]user.Invitation, error) {
	var invs []user.Invitation
	err := r.db.Order("created_at DESC").Find(&invs).Error
	if err != nil {
		return nil, err
	}
	if len(invs) == 0 {
		return invs, nil
	}

	inviterIDs := make([]string, 0, len(invs))
	for _, inv := range invs {
		inviterIDs = append(inviterIDs, inv.InvitedBy)
	}

	var inviters []user.User
	if err := r.db.Select("id, name").Find(&inviters, "id IN ?", inviterIDs).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(inviters))
	for _, u := range inviters {
		names[u.ID] = u.Name
	}
	for i := range invs {
		invs[i].InvitedByName = names[invs[i].InvitedBy]
	}
	return invs, nil
}

func (r *Repository) MarkInvitationAccepted(id string, at time.Time) error {
	return r.db.Model(&user.Invitation{}).
		Where("id = ?", id).
		Update("accepted_at", at).Error
}
