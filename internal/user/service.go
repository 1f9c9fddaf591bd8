package user

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/auth"
)

type Repository interface {
	List(limit, offset int) ([]User, int64, error)
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	Create(u *User) error
	Update(u *User) error
	Deactivate(id string) (bool, error)

	CreateInvitation(inv *Invitation) error
	GetInvitationByEmail(email string) (*Invitation, error)
	GetInvitationByToken(token string) (*Invitation, error)
	ListInvitations() ([]Invitation, error)
	MarkInvitationAccepted(id string, at time.Time) error
}

type Service struct {
	repo        Repository
	frontendURL string
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo Repository, frontendURL string, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		frontendURL: frontendURL,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *Service) List(limit, offset int) ([]User, int64, error) {
	users, total, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}
	return users, total, nil
}

func (s *Service) Get(id string) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// Invite creates a pending invitation for a new account. The email must be
// unused by both existing users and open invitations.
func (s *Service) Invite(actorID string, dto InviteDTO) (*InvitationResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, _ := s.repo.GetByEmail(dto.Email); existing != nil {
		return nil, internal.ErrUserAlreadyExists
	}
	if existing, _ := s.repo.GetInvitationByEmail(dto.Email); existing != nil {
		return nil, internal.ErrInvitationExists
	}

	token, err := auth.GenerateRandomToken()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate invitation token", err)
	}

	inv := &Invitation{
		ID:        uuid.NewString(),
		Email:     dto.Email,
		Roles:     dto.RoleSet(),
		Token:     token,
		InvitedBy: actorID,
		ExpiresAt: time.Now().UTC().Add(7 * 24 * time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateInvitation(inv); err != nil {
		return nil, internal.NewInternalError("failed to create invitation", err)
	}

	s.logger.Info("invitation created", "email", inv.Email, "invited_by", actorID)

	return &InvitationResponse{
		ID:            inv.ID,
		Email:         inv.Email,
		Roles:         inv.Roles,
		ExpiresAt:     inv.ExpiresAt.Format(time.RFC3339),
		InvitationURL: fmt.Sprintf("%s/invite?token=%s", s.frontendURL, token),
	}, nil
}

func (s *Service) ListInvitations() ([]Invitation, error) {
	invs, err := s.repo.ListInvitations()
	if err != nil {
		return nil, internal.NewInternalError("failed to list invitations", err)
	}
	return invs, nil
}

// AcceptInvitation exchanges a valid, unexpired, unused token for a new
// active account carrying the invited roles.
func (s *Service) AcceptInvitation(dto AcceptInvitationDTO) (*AcceptedUserResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.repo.GetInvitationByToken(dto.Token)
	if err != nil {
		return nil, internal.ErrInvalidInvitation
	}
	if inv.Expired(time.Now().UTC()) {
		return nil, internal.ErrInvitationExpired
	}
	if inv.AcceptedAt != nil {
		return nil, internal.ErrInvitationUsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now().UTC()
	hashStr := string(hash)
	u := &User{
		ID:           uuid.NewString(),
		Email:        inv.Email,
		Name:         dto.Name,
		PasswordHash: &hashStr,
		Roles:        inv.Roles,
		Timezone:     "UTC",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(u); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}
	if err := s.repo.MarkInvitationAccepted(inv.ID, now); err != nil {
		s.logger.Warn("failed to mark invitation accepted", "invitation_id", inv.ID, "error", err)
	}

	s.logger.Info("invitation accepted", "user_id", u.ID, "email", u.Email)

	return &AcceptedUserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Roles: u.Roles,
	}, nil
}

// Update merges the provided fields over the existing record.
func (s *Service) Update(id string, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Name != nil {
		existing.Name = *dto.Name
	}
	if dto.Roles != nil {
		roles := make([]string, len(dto.Roles))
		copy(roles, dto.Roles)
		existing.Roles = InviteDTO{Roles: roles}.RoleSet()
	}
	if dto.Timezone != nil {
		existing.Timezone = *dto.Timezone
	}
	if dto.IsActive != nil {
		existing.IsActive = *dto.IsActive
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(existing); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return existing, nil
}

// Deactivate soft-deletes the target. Actors cannot deactivate themselves.
func (s *Service) Deactivate(actorID, targetID string) error {
	if actorID == targetID {
		return internal.ErrCannotDeleteSelf
	}

	found, err := s.repo.Deactivate(targetID)
	if err != nil {
		return internal.NewInternalError("failed to deactivate user", err)
	}
	if !found {
		return internal.ErrUserNotFound
	}
	return nil
}
