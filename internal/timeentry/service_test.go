package timeentry_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/auth"
	"github.com/timhq/tim/internal/timeentry"
)

// Mock repository for testing
type mockEntryRepository struct {
	entries     map[string]*timeentry.TimeEntry
	customers   map[string]*timeentry.CustomerRef
	createError error
	updateError error
}

func newMockEntryRepository() *mockEntryRepository {
	return &mockEntryRepository{
		entries:   make(map[string]*timeentry.TimeEntry),
		customers: make(map[string]*timeentry.CustomerRef),
	}
}

func (m *mockEntryRepository) List(f timeentry.ListFilter) ([]timeentry.TimeEntry, int64, error) {
	var out []timeentry.TimeEntry
	for _, e := range m.entries {
		if !f.Admin && e.UserID != f.ActorID {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *mockEntryRepository) GetByID(id string) (*timeentry.TimeEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.New("time entry not found")
	}
	return e, nil
}

func (m *mockEntryRepository) GetOwned(id, userID string) (*timeentry.TimeEntry, error) {
	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return nil, errors.New("time entry not found")
	}
	return e, nil
}

func (m *mockEntryRepository) Create(e *timeentry.TimeEntry) error {
	if m.createError != nil {
		return m.createError
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockEntryRepository) Update(e *timeentry.TimeEntry) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockEntryRepository) Delete(id string) (bool, error) {
	if _, ok := m.entries[id]; !ok {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

func (m *mockEntryRepository) GetCustomer(customerID string) (*timeentry.CustomerRef, error) {
	c, ok := m.customers[customerID]
	if !ok {
		return nil, errors.New("customer not found")
	}
	return c, nil
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

var _ = Describe("TimeEntryService", func() {
	var (
		service  *timeentry.Service
		mockRepo *mockEntryRepository
		engineer *auth.User
		admin    *auth.User
	)

	BeforeEach(func() {
		mockRepo = newMockEntryRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timeentry.NewService(mockRepo, logger)

		engineer = &auth.User{ID: "user-1", Roles: access.RoleSet{access.RoleEngineer}}
		admin = &auth.User{ID: "admin-1", Roles: access.RoleSet{access.RoleAdmin}}

		mockRepo.customers["cust-1"] = &timeentry.CustomerRef{
			ID:        "cust-1",
			Name:      "Acme Corp",
			Assignees: []string{"user-1"},
		}
	})

	Describe("Create", func() {
		It("should create a draft entry with explicit hours", func() {
			entry, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID:  "cust-1",
				Date:        "2025-01-15",
				Hours:       floatPtr(2.0),
				Description: "Backend work",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Status).To(Equal(timeentry.StatusDraft))
			Expect(entry.Hours).To(Equal(2.0))
			Expect(entry.CustomerName).To(Equal("Acme Corp"))
			Expect(entry.SyncedAt).ToNot(BeNil())
		})

		It("should round explicit hours to the nearest half hour", func() {
			entry, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-1",
				Date:       "2025-01-15",
				Hours:      floatPtr(1.3),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Hours).To(Equal(1.5))
		})

		It("should compute hours from a start and end pair", func() {
			entry, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-1",
				Date:       "2025-01-15",
				StartTime:  strPtr("09:00"),
				EndTime:    strPtr("12:30"),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Hours).To(Equal(3.5))
		})

		It("should fail when neither hours nor a time pair is given", func() {
			_, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-1",
				Date:       "2025-01-15",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeHoursRequired))
		})

		It("should reject entries below the minimum hours", func() {
			_, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-1",
				Date:       "2025-01-15",
				Hours:      floatPtr(0.25),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeMinimumHours))
		})

		It("should reject a raw span below the minimum even though it rounds up", func() {
			_, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-1",
				Date:       "2025-01-15",
				StartTime:  strPtr("09:00"),
				EndTime:    strPtr("09:24"),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeMinimumHours))
		})

		It("should deny booking against a customer the actor is not assigned to", func() {
			mockRepo.customers["cust-2"] = &timeentry.CustomerRef{ID: "cust-2", Name: "Other"}

			_, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-2",
				Date:       "2025-01-15",
				Hours:      floatPtr(1.0),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeCustomerAccessDenied))
		})

		It("should let admins book against any customer", func() {
			mockRepo.customers["cust-2"] = &timeentry.CustomerRef{ID: "cust-2", Name: "Other"}

			entry, err := service.Create(admin, timeentry.CreateTimeEntryDTO{
				CustomerID: "cust-2",
				Date:       "2025-01-15",
				Hours:      floatPtr(1.0),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.UserID).To(Equal("admin-1"))
		})

		It("should return not found for an unknown customer", func() {
			_, err := service.Create(engineer, timeentry.CreateTimeEntryDTO{
				CustomerID: "missing",
				Date:       "2025-01-15",
				Hours:      floatPtr(1.0),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeCustomerNotFound))
		})
	})

	Describe("CreateQuick", func() {
		It("should book against today and force draft status", func() {
			entry, err := service.CreateQuick(engineer, timeentry.QuickEntryDTO{
				CustomerID:  "cust-1",
				Hours:       floatPtr(3.0),
				Description: "Quick booking",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Status).To(Equal(timeentry.StatusDraft))
			Expect(entry.Date).To(Equal(time.Now().UTC().Format("2006-01-02")))
		})

		It("should require hours", func() {
			_, err := service.CreateQuick(engineer, timeentry.QuickEntryDTO{
				CustomerID: "cust-1",
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Update", func() {
		var existing *timeentry.TimeEntry

		BeforeEach(func() {
			existing = &timeentry.TimeEntry{
				ID:         "entry-1",
				UserID:     "user-1",
				CustomerID: "cust-1",
				Date:       "2025-01-10",
				Hours:      2.0,
				Status:     timeentry.StatusDraft,
			}
			mockRepo.entries["entry-1"] = existing
		})

		It("should merge provided fields", func() {
			updated, err := service.Update(engineer, "entry-1", timeentry.UpdateTimeEntryDTO{
				Description: strPtr("Updated work"),
				Status:      strPtr(timeentry.StatusSubmitted),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Description).To(Equal("Updated work"))
			Expect(updated.Status).To(Equal(timeentry.StatusSubmitted))
			Expect(updated.Hours).To(Equal(2.0))
		})

		It("should recompute hours from a complete time pair", func() {
			updated, err := service.Update(engineer, "entry-1", timeentry.UpdateTimeEntryDTO{
				StartTime: strPtr("10:00"),
				EndTime:   strPtr("13:00"),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Hours).To(Equal(3.0))
		})

		It("should reject a partial time pair", func() {
			_, err := service.Update(engineer, "entry-1", timeentry.UpdateTimeEntryDTO{
				StartTime: strPtr("10:00"),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeTimePairNeeded))
		})

		It("should deny updates by other engineers", func() {
			other := &auth.User{ID: "user-2", Roles: access.RoleSet{access.RoleEngineer}}

			_, err := service.Update(other, "entry-1", timeentry.UpdateTimeEntryDTO{
				Description: strPtr("not mine"),
			})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeTimeEntryAccessDenied))
		})

		It("should allow an account manager assigned to the entry's customer", func() {
			manager := &auth.User{ID: "am-1", Roles: access.RoleSet{access.RoleAccountManager}}
			mockRepo.customers["cust-1"].Assignees = []string{"user-1", "am-1"}

			updated, err := service.Update(manager, "entry-1", timeentry.UpdateTimeEntryDTO{
				Status: strPtr(timeentry.StatusApproved),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(timeentry.StatusApproved))
		})

		It("should return not found for a missing entry", func() {
			_, err := service.Update(engineer, "missing", timeentry.UpdateTimeEntryDTO{})

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeTimeEntryNotFound))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			mockRepo.entries["entry-1"] = &timeentry.TimeEntry{
				ID:         "entry-1",
				UserID:     "user-1",
				CustomerID: "cust-1",
			}
		})

		It("should delete an owned entry", func() {
			err := service.Delete(engineer, "entry-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.entries).ToNot(HaveKey("entry-1"))
		})

		It("should deny deleting another user's entry", func() {
			other := &auth.User{ID: "user-2", Roles: access.RoleSet{access.RoleEngineer}}
			err := service.Delete(other, "entry-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Sync", func() {
		It("should process each entry independently", func() {
			resp, err := service.Sync(engineer, timeentry.SyncDTO{Entries: []timeentry.SyncEntryDTO{
				{CustomerID: "cust-1", Date: "2025-01-10", Hours: floatPtr(2.0), Description: "first"},
				{CustomerID: "", Date: "2025-01-11", Hours: floatPtr(1.0)},
				{CustomerID: "cust-1", Date: "2025-01-12", Hours: floatPtr(3.5), Description: "third"},
			}})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Synced).To(Equal(2))
			Expect(resp.Errors).To(Equal(1))
			Expect(resp.Results).To(HaveLen(3))
			Expect(resp.Results[0].Status).To(Equal(timeentry.SyncCreated))
			Expect(resp.Results[1].Status).To(Equal(timeentry.SyncError))
			Expect(resp.Results[2].Status).To(Equal(timeentry.SyncCreated))
		})

		It("should update entries the actor already owns", func() {
			mockRepo.entries["entry-1"] = &timeentry.TimeEntry{
				ID:         "entry-1",
				UserID:     "user-1",
				CustomerID: "cust-1",
				Hours:      1.0,
			}

			resp, err := service.Sync(engineer, timeentry.SyncDTO{Entries: []timeentry.SyncEntryDTO{
				{ID: strPtr("entry-1"), CustomerID: "cust-1", Date: "2025-01-10", Hours: floatPtr(4.0), Description: "revised"},
			}})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Results[0].Status).To(Equal(timeentry.SyncUpdated))
			Expect(mockRepo.entries["entry-1"].Hours).To(Equal(4.0))
			Expect(mockRepo.entries["entry-1"].Description).To(Equal("revised"))
		})

		It("should report entries below the minimum as errors", func() {
			resp, err := service.Sync(engineer, timeentry.SyncDTO{Entries: []timeentry.SyncEntryDTO{
				{CustomerID: "cust-1", Date: "2025-01-10", Hours: floatPtr(0.25)},
			}})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Errors).To(Equal(1))
			Expect(resp.Results[0].Error).To(ContainSubstring("0.5"))
		})

		It("should report unknown customers as errors", func() {
			resp, err := service.Sync(engineer, timeentry.SyncDTO{Entries: []timeentry.SyncEntryDTO{
				{CustomerID: "missing", Date: "2025-01-10", Hours: floatPtr(2.0)},
			}})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Errors).To(Equal(1))
			Expect(resp.Results[0].Error).To(ContainSubstring("unknown customer"))
		})

		It("should create synced entries as drafts", func() {
			resp, err := service.Sync(engineer, timeentry.SyncDTO{Entries: []timeentry.SyncEntryDTO{
				{CustomerID: "cust-1", Date: "2025-01-10", Hours: floatPtr(2.0)},
			}})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Results[0].Entry.Status).To(Equal(timeentry.StatusDraft))
		})
	})
})
