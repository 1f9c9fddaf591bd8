package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/timhq/tim/internal/customer"
)

func TestCustomerRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CustomerRepository Suite")
}

type sqliteUser struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func (sqliteUser) TableName() string { return "users" }

type sqliteSchedule struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	ScheduleConfig string `gorm:"column:schedule_config"`
}

func (sqliteSchedule) TableName() string { return "working_schedules" }

type sqliteEntry struct {
	ID         string `gorm:"primaryKey"`
	UserID     string
	CustomerID string
	Date       string
	Hours      float64
	Status     string
}

func (sqliteEntry) TableName() string { return "time_entries" }

var _ = Describe("CustomerRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	strPtr := func(s string) *string { return &s }

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteUser{}, &sqliteSchedule{}, &sqliteEntry{}, &customer.Customer{}, &customer.Assignment{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&sqliteUser{ID: "am-1", Name: "Mara Manager"}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&sqliteUser{ID: "user-1", Name: "Eli Engineer"}).Error).NotTo(HaveOccurred())

		repo = NewRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	seed := func(id, name, status string, assignees ...string) {
		c := &customer.Customer{
			ID:              id,
			Name:            name,
			Status:          status,
			CreatedBy:       "am-1",
			CreatedAt:       time.Now().UTC(),
			UpdatedAt:       time.Now().UTC(),
			AssignedUserIDs: assignees,
		}
		Expect(repo.Create(c)).NotTo(HaveOccurred())
	}

	Describe("List", func() {
		BeforeEach(func() {
			seed("cust-1", "Acme Corp", "active", "user-1")
			seed("cust-2", "Globex", "active")
			seed("cust-3", "Initech", "archived", "user-1")
		})

		It("should return every customer for admins", func() {
			customers, total, err := repo.List(customer.ListFilter{Admin: true, Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(customers).To(HaveLen(3))
		})

		It("should return only assigned customers for non-admins", func() {
			customers, total, err := repo.List(customer.ListFilter{ActorID: "user-1", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(customers[0].Name).To(Equal("Acme Corp"))
			Expect(customers[1].Name).To(Equal("Initech"))
		})

		It("should return nothing for a user with no assignments", func() {
			customers, total, err := repo.List(customer.ListFilter{ActorID: "nobody", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
			Expect(customers).To(BeEmpty())
		})

		It("should apply the status filter to rows and count alike", func() {
			customers, total, err := repo.List(customer.ListFilter{Admin: true, Status: "archived", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(customers[0].ID).To(Equal("cust-3"))
		})

		It("should search case-insensitively by name", func() {
			customers, total, err := repo.List(customer.ListFilter{Admin: true, Search: "acme", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(customers[0].Name).To(Equal("Acme Corp"))
		})

		It("should attach assignee ids to each row", func() {
			customers, _, err := repo.List(customer.ListFilter{Admin: true, Limit: 50})
			Expect(err).NotTo(HaveOccurred())

			byID := map[string][]string{}
			for _, c := range customers {
				byID[c.ID] = c.AssignedUserIDs
			}
			Expect(byID["cust-1"]).To(Equal([]string{"user-1"}))
			Expect(byID["cust-2"]).To(Equal([]string{}))
		})
	})

	Describe("GetByID", func() {
		It("should load assignees, manager name and schedule config", func() {
			Expect(db.Create(&sqliteSchedule{
				ID:             "sched-1",
				Name:           "Standard Week",
				ScheduleConfig: `{"workingDays":["monday"]}`,
			}).Error).NotTo(HaveOccurred())

			c := &customer.Customer{
				ID:                "cust-1",
				Name:              "Acme Corp",
				Status:            "active",
				AccountManagerID:  strPtr("am-1"),
				WorkingScheduleID: strPtr("sched-1"),
				CreatedBy:         "am-1",
				AssignedUserIDs:   []string{"user-1"},
			}
			Expect(repo.Create(c)).NotTo(HaveOccurred())

			got, err := repo.GetByID("cust-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AssignedUserIDs).To(Equal([]string{"user-1"}))
			Expect(got.AccountManagerName).NotTo(BeNil())
			Expect(*got.AccountManagerName).To(Equal("Mara Manager"))
			Expect(got.WorkingScheduleName).NotTo(BeNil())
			Expect(*got.WorkingScheduleName).To(Equal("Standard Week"))
			Expect(got.WorkingScheduleConfig).To(HaveKey("workingDays"))
		})

		It("should return an error for an unknown id", func() {
			_, err := repo.GetByID("missing")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("should replace the assignment rows", func() {
			seed("cust-1", "Acme Corp", "active", "user-1")

			got, err := repo.GetByID("cust-1")
			Expect(err).NotTo(HaveOccurred())

			got.AssignedUserIDs = []string{"am-1"}
			Expect(repo.Update(got)).NotTo(HaveOccurred())

			assignees, err := repo.GetAssignees("cust-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(assignees).To(Equal([]string{"am-1"}))
		})
	})

	Describe("Archive", func() {
		It("should keep the row with archived status", func() {
			seed("cust-1", "Acme Corp", "active")

			found, err := repo.Archive("cust-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())

			got, err := repo.GetByID("cust-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(customer.StatusArchived))
		})

		It("should report a missing row", func() {
			found, err := repo.Archive("missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("ExistingUserIDs", func() {
		It("should return only ids present in the users table", func() {
			found, err := repo.ExistingUserIDs([]string{"user-1", "ghost"})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal([]string{"user-1"}))
		})
	})

	Describe("UserStats", func() {
		It("should aggregate hours and entry counts per user", func() {
			seed("cust-1", "Acme Corp", "active", "user-1")
			entries := []sqliteEntry{
				{ID: "e1", UserID: "user-1", CustomerID: "cust-1", Date: "2025-01-10", Hours: 2.0, Status: "approved"},
				{ID: "e2", UserID: "user-1", CustomerID: "cust-1", Date: "2025-01-11", Hours: 3.5, Status: "draft"},
				{ID: "e3", UserID: "am-1", CustomerID: "cust-1", Date: "2025-01-11", Hours: 1.0, Status: "draft"},
			}
			Expect(db.Create(&entries).Error).NotTo(HaveOccurred())

			stats, err := repo.UserStats("cust-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(2))

			byUser := map[string]customer.UserStat{}
			for _, s := range stats {
				byUser[s.UserID] = s
			}
			Expect(byUser["user-1"].TotalHours).To(Equal(5.5))
			Expect(byUser["user-1"].EntryCount).To(Equal(int64(2)))
			Expect(byUser["am-1"].TotalHours).To(Equal(1.0))
		})
	})

	Describe("StatEntries", func() {
		It("should bound the window inclusively", func() {
			seed("cust-1", "Acme Corp", "active")
			entries := []sqliteEntry{
				{ID: "e1", UserID: "user-1", CustomerID: "cust-1", Date: "2025-01-09", Hours: 1.0, Status: "draft"},
				{ID: "e2", UserID: "user-1", CustomerID: "cust-1", Date: "2025-01-10", Hours: 2.0, Status: "draft"},
				{ID: "e3", UserID: "user-1", CustomerID: "cust-1", Date: "2025-01-11", Hours: 3.0, Status: "draft"},
			}
			Expect(db.Create(&entries).Error).NotTo(HaveOccurred())

			rows, err := repo.StatEntries("cust-1", "2025-01-10", "2025-01-10")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Hours).To(Equal(2.0))
		})
	})
})
