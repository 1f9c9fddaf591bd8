package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/timhq/tim/internal/timeentry"
)

func TestTimeEntryRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TimeEntryRepository Suite")
}

type sqliteCustomer struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func (sqliteCustomer) TableName() string { return "customers" }

type sqliteAssignment struct {
	CustomerID string `gorm:"primaryKey"`
	UserID     string `gorm:"primaryKey"`
}

func (sqliteAssignment) TableName() string { return "customer_assignments" }

var _ = Describe("TimeEntryRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteCustomer{}, &sqliteAssignment{}, &timeentry.TimeEntry{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&sqliteCustomer{ID: "cust-1", Name: "Acme Corp"}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&sqliteCustomer{ID: "cust-2", Name: "Globex"}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&sqliteAssignment{CustomerID: "cust-2", UserID: "am-1"}).Error).NotTo(HaveOccurred())

		repo = NewRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	seed := func(id, userID, customerID, date, status string, hours float64) {
		e := &timeentry.TimeEntry{
			ID:         id,
			UserID:     userID,
			CustomerID: customerID,
			Date:       date,
			Hours:      hours,
			Status:     status,
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		}
		Expect(repo.Create(e)).NotTo(HaveOccurred())
	}

	Describe("List", func() {
		BeforeEach(func() {
			seed("e1", "user-1", "cust-1", "2025-01-10", "approved", 8)
			seed("e2", "user-1", "cust-1", "2025-01-12", "draft", 4)
			seed("e3", "user-2", "cust-2", "2025-01-11", "approved", 2)
		})

		It("should return every entry for admins, newest date first", func() {
			entries, total, err := repo.List(timeentry.ListFilter{Admin: true, Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(entries[0].ID).To(Equal("e2"))
			Expect(entries[1].ID).To(Equal("e3"))
			Expect(entries[2].ID).To(Equal("e1"))
		})

		It("should scope non-admins to owned and assigned-customer entries", func() {
			entries, total, err := repo.List(timeentry.ListFilter{ActorID: "am-1", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(entries[0].ID).To(Equal("e3"))
		})

		It("should include entries the actor owns on unassigned customers", func() {
			entries, total, err := repo.List(timeentry.ListFilter{ActorID: "user-1", Limit: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(entries).To(HaveLen(2))
		})

		It("should bound the date range inclusively", func() {
			entries, total, err := repo.List(timeentry.ListFilter{
				Admin:     true,
				StartDate: "2025-01-11",
				EndDate:   "2025-01-12",
				Limit:     50,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(entries[0].ID).To(Equal("e2"))
			Expect(entries[1].ID).To(Equal("e3"))
		})

		It("should apply customer and status filters to rows and count alike", func() {
			entries, total, err := repo.List(timeentry.ListFilter{
				Admin:      true,
				CustomerID: "cust-1",
				Status:     "draft",
				Limit:      50,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(entries[0].ID).To(Equal("e2"))
		})

		It("should attach customer names to the page", func() {
			entries, _, err := repo.List(timeentry.ListFilter{Admin: true, Limit: 50})
			Expect(err).NotTo(HaveOccurred())

			names := map[string]string{}
			for _, e := range entries {
				names[e.ID] = e.CustomerName
			}
			Expect(names["e1"]).To(Equal("Acme Corp"))
			Expect(names["e3"]).To(Equal("Globex"))
		})

		It("should page past the end without error", func() {
			entries, total, err := repo.List(timeentry.ListFilter{Admin: true, Limit: 50, Offset: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("GetOwned", func() {
		BeforeEach(func() {
			seed("e1", "user-1", "cust-1", "2025-01-10", "draft", 8)
		})

		It("should return the entry for its owner", func() {
			e, err := repo.GetOwned("e1", "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Hours).To(Equal(8.0))
		})

		It("should not return another user's entry", func() {
			_, err := repo.GetOwned("e1", "user-2")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should report whether a row was removed", func() {
			seed("e1", "user-1", "cust-1", "2025-01-10", "draft", 8)

			removed, err := repo.Delete("e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			removed, err = repo.Delete("e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeFalse())
		})
	})

	Describe("GetCustomer", func() {
		It("should return the customer with its assignees", func() {
			ref, err := repo.GetCustomer("cust-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(ref.Name).To(Equal("Globex"))
			Expect(ref.Assignees).To(Equal([]string{"am-1"}))
		})

		It("should return gorm.ErrRecordNotFound for an unknown id", func() {
			_, err := repo.GetCustomer("missing")
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
		})
	})
})
