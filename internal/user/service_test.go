package user_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	users       map[string]*user.User
	invitations map[string]*user.Invitation
	createError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:       make(map[string]*user.User),
		invitations: make(map[string]*user.Invitation),
	}
}

func (m *mockUserRepository) List(limit, offset int) ([]user.User, int64, error) {
	var out []user.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepository) GetByID(id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) Create(u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Deactivate(id string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.IsActive = false
	return true, nil
}

func (m *mockUserRepository) CreateInvitation(inv *user.Invitation) error {
	m.invitations[inv.ID] = inv
	return nil
}

func (m *mockUserRepository) GetInvitationByEmail(email string) (*user.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Email == email {
			return inv, nil
		}
	}
	return nil, errors.New("invitation not found")
}

func (m *mockUserRepository) GetInvitationByToken(token string) (*user.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, errors.New("invitation not found")
}

func (m *mockUserRepository) ListInvitations() ([]user.Invitation, error) {
	var out []user.Invitation
	for _, inv := range m.invitations {
		out = append(out, *inv)
	}
	return out, nil
}

func (m *mockUserRepository) MarkInvitationAccepted(id string, at time.Time) error {
	if inv, ok := m.invitations[id]; ok {
		inv.AcceptedAt = &at
	}
	return nil
}

var _ = Describe("UserService", func() {
	var (
		service  *user.Service
		mockRepo *mockUserRepository
	)

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, "http://localhost:3000", bcrypt.MinCost, logger)
	})

	Describe("Invite", func() {
		It("should create a seven day invitation with an acceptance URL", func() {
			resp, err := service.Invite("admin-1", user.InviteDTO{
				Email: "new@example.com",
				Roles: []string{"engineer"},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Email).To(Equal("new@example.com"))
			Expect(resp.InvitationURL).To(HavePrefix("http://localhost:3000/invite?token="))

			expires, parseErr := time.Parse(time.RFC3339, resp.ExpiresAt)
			Expect(parseErr).ToNot(HaveOccurred())
			Expect(expires).To(BeTemporally("~", time.Now().UTC().Add(7*24*time.Hour), time.Minute))
		})

		It("should reject an email belonging to an existing user", func() {
			mockRepo.users["u1"] = &user.User{ID: "u1", Email: "taken@example.com"}

			_, err := service.Invite("admin-1", user.InviteDTO{
				Email: "taken@example.com",
				Roles: []string{"engineer"},
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserAlreadyExists))
		})

		It("should reject an email with an open invitation", func() {
			_, err := service.Invite("admin-1", user.InviteDTO{Email: "new@example.com", Roles: []string{"engineer"}})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Invite("admin-1", user.InviteDTO{Email: "new@example.com", Roles: []string{"engineer"}})
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvitationExists))
		})

		It("should reject invalid roles", func() {
			_, err := service.Invite("admin-1", user.InviteDTO{
				Email: "new@example.com",
				Roles: []string{"superuser"},
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("AcceptInvitation", func() {
		var token string

		BeforeEach(func() {
			resp, err := service.Invite("admin-1", user.InviteDTO{
				Email: "new@example.com",
				Roles: []string{"engineer", "account_manager"},
			})
			Expect(err).ToNot(HaveOccurred())

			for _, inv := range mockRepo.invitations {
				if inv.Email == resp.Email {
					token = inv.Token
				}
			}
			Expect(token).ToNot(BeEmpty())
		})

		It("should create an active account with the invited roles", func() {
			resp, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "New Person",
				Password: "secret123",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Email).To(Equal("new@example.com"))
			Expect(resp.Roles).To(Equal(access.RoleSet{access.RoleEngineer, access.RoleAccountManager}))

			created, repoErr := mockRepo.GetByEmail("new@example.com")
			Expect(repoErr).ToNot(HaveOccurred())
			Expect(created.IsActive).To(BeTrue())
			Expect(created.Timezone).To(Equal("UTC"))
			Expect(created.PasswordHash).ToNot(BeNil())
			Expect(bcrypt.CompareHashAndPassword([]byte(*created.PasswordHash), []byte("secret123"))).To(Succeed())
		})

		It("should mark the invitation as accepted", func() {
			_, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "New Person",
				Password: "secret123",
			})
			Expect(err).ToNot(HaveOccurred())

			inv, repoErr := mockRepo.GetInvitationByToken(token)
			Expect(repoErr).ToNot(HaveOccurred())
			Expect(inv.AcceptedAt).ToNot(BeNil())
		})

		It("should reject an unknown token", func() {
			_, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    "bogus",
				Name:     "New Person",
				Password: "secret123",
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidInvitationToken))
		})

		It("should reject an expired invitation", func() {
			inv, _ := mockRepo.GetInvitationByToken(token)
			inv.ExpiresAt = time.Now().UTC().Add(-time.Hour)

			_, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "New Person",
				Password: "secret123",
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvitationExpired))
		})

		It("should reject a token that was already used", func() {
			_, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "New Person",
				Password: "secret123",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "Someone Else",
				Password: "secret123",
			})
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvitationAccepted))
		})

		It("should reject a short password", func() {
			_, err := service.AcceptInvitation(user.AcceptInvitationDTO{
				Token:    token,
				Name:     "New Person",
				Password: "abc",
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			mockRepo.users["u1"] = &user.User{
				ID:       "u1",
				Email:    "person@example.com",
				Name:     "Person",
				Roles:    access.RoleSet{access.RoleEngineer},
				Timezone: "UTC",
				IsActive: true,
			}
		})

		It("should merge only the provided fields", func() {
			tz := "Europe/Berlin"
			updated, err := service.Update("u1", user.UpdateUserDTO{Timezone: &tz})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Timezone).To(Equal("Europe/Berlin"))
			Expect(updated.Name).To(Equal("Person"))
		})

		It("should replace roles when given", func() {
			updated, err := service.Update("u1", user.UpdateUserDTO{Roles: []string{"admin"}})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Roles.IsAdmin()).To(BeTrue())
		})

		It("should return not found for an unknown user", func() {
			_, err := service.Update("missing", user.UpdateUserDTO{})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
		})
	})

	Describe("Deactivate", func() {
		BeforeEach(func() {
			mockRepo.users["u1"] = &user.User{ID: "u1", IsActive: true}
		})

		It("should deactivate another user", func() {
			err := service.Deactivate("admin-1", "u1")
			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.users["u1"].IsActive).To(BeFalse())
		})

		It("should refuse self-deactivation", func() {
			err := service.Deactivate("u1", "u1")

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeCannotDeleteSelf))
		})

		It("should return not found for an unknown target", func() {
			err := service.Deactivate("admin-1", "missing")

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
		})
	})
})
