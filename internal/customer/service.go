package customer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/auth"
)

// ListFilter is the repository-level shape of a list request. ActorID is
// ignored when Admin is set.
type ListFilter struct {
	ActorID string
	Admin   bool
	Status  string
	Search  string
	Limit   int
	Offset  int
}

// StatEntry is one time entry row inside a stats window.
type StatEntry struct {
	Hours  float64
	Status string
}

type Repository interface {
	List(f ListFilter) ([]Customer, int64, error)
	GetByID(id string) (*Customer, error)
	GetAssignees(customerID string) ([]string, error)
	ExistingUserIDs(ids []string) ([]string, error)
	Create(c *Customer) error
	Update(c *Customer) error
	Archive(id string) (bool, error)
	StatEntries(customerID, startDate, endDate string) ([]StatEntry, error)
	UserStats(customerID string) ([]UserStat, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the customers visible to the actor. Admins see everything;
// everyone else only customers they are assigned to.
func (s *Service) List(actor *auth.User, q ListQuery) ([]Customer, int64, error) {
	customers, total, err := s.repo.List(ListFilter{
		ActorID: actor.ID,
		Admin:   actor.Roles.IsAdmin(),
		Status:  q.Status,
		Search:  q.Search,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list customers", err)
	}
	return customers, total, nil
}

func (s *Service) Get(actor *auth.User, customerID string) (*Customer, error) {
	c, err := s.ensureAccess(actor, customerID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create validates the assigned user ids against the users table; any
// unknown id fails the whole request with the offending ids in details.
func (s *Service) Create(actor *auth.User, dto CreateCustomerDTO) (*Customer, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkUserIDs(dto.AssignedUserIDs); err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusActive
	}

	now := time.Now().UTC()
	c := &Customer{
		ID:                uuid.NewString(),
		Name:              dto.Name,
		ContactInfo:       dto.ContactInfo,
		BillingInfo:       dto.BillingInfo,
		AccountManagerID:  dto.AccountManagerID,
		LeadingEngineerID: dto.LeadingEngineerID,
		WorkingScheduleID: dto.WorkingScheduleID,
		Status:            status,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
		AssignedUserIDs:   dto.AssignedUserIDs,
	}
	if c.AssignedUserIDs == nil {
		c.AssignedUserIDs = []string{}
	}

	if err := s.repo.Create(c); err != nil {
		return nil, internal.NewInternalError("failed to create customer", err)
	}

	s.logger.Info("customer created", "customer_id", c.ID, "created_by", actor.ID)
	return c, nil
}

// Update merges the provided fields over the existing record.
func (s *Service) Update(actor *auth.User, customerID string, dto UpdateCustomerDTO) (*Customer, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.ensureAccess(actor, customerID)
	if err != nil {
		return nil, err
	}

	if dto.AssignedUserIDs != nil {
		if err := s.checkUserIDs(dto.AssignedUserIDs); err != nil {
			return nil, err
		}
		existing.AssignedUserIDs = dto.AssignedUserIDs
	}

	if dto.Name != nil {
		existing.Name = *dto.Name
	}
	if dto.ContactInfo != nil {
		existing.ContactInfo = dto.ContactInfo
	}
	if dto.BillingInfo != nil {
		existing.BillingInfo = dto.BillingInfo
	}
	if dto.AccountManagerID != nil {
		existing.AccountManagerID = dto.AccountManagerID
	}
	if dto.LeadingEngineerID != nil {
		existing.LeadingEngineerID = dto.LeadingEngineerID
	}
	if dto.WorkingScheduleID != nil {
		existing.WorkingScheduleID = dto.WorkingScheduleID
	}
	if dto.Status != nil {
		existing.Status = *dto.Status
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(existing); err != nil {
		return nil, internal.NewInternalError("failed to update customer", err)
	}
	return existing, nil
}

// Archive is the delete operation: status flips to archived, the row stays.
func (s *Service) Archive(actor *auth.User, customerID string) error {
	if _, err := s.ensureAccess(actor, customerID); err != nil {
		return err
	}

	found, err := s.repo.Archive(customerID)
	if err != nil {
		return internal.NewInternalError("failed to archive customer", err)
	}
	if !found {
		return internal.ErrCustomerNotFound
	}

	s.logger.Info("customer archived", "customer_id", customerID, "by", actor.ID)
	return nil
}

// Stats aggregates the customer's time entries, optionally bounded by an
// inclusive date window.
func (s *Service) Stats(actor *auth.User, customerID, startDate, endDate string) (*Stats, error) {
	if _, err := s.ensureAccess(actor, customerID); err != nil {
		return nil, err
	}

	entries, err := s.repo.StatEntries(customerID, startDate, endDate)
	if err != nil {
		return nil, internal.NewInternalError("failed to load customer stats", err)
	}

	var totalHours float64
	statusCounts := map[string]int64{}
	for _, e := range entries {
		totalHours += e.Hours
		statusCounts[e.Status]++
	}

	totalEntries := int64(len(entries))
	var avg float64
	if totalEntries > 0 {
		avg = totalHours / float64(totalEntries)
	}

	userStats, err := s.repo.UserStats(customerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load customer user stats", err)
	}
	if userStats == nil {
		userStats = []UserStat{}
	}

	return &Stats{
		TotalHours:           totalHours,
		TotalEntries:         totalEntries,
		AverageHoursPerEntry: avg,
		StatusCounts:         statusCounts,
		UserStats:            userStats,
		DateRange:            DateRange{StartDate: startDate, EndDate: endDate},
	}, nil
}

// ensureAccess loads the customer and applies the row-level check: admins
// always pass, everyone else must be in the assignment list.
func (s *Service) ensureAccess(actor *auth.User, customerID string) (*Customer, error) {
	c, err := s.repo.GetByID(customerID)
	if err != nil {
		return nil, internal.ErrCustomerNotFound
	}

	if !actor.Roles.IsAdmin() && !access.CanAccessCustomer(actor.ID, c.AssignedUserIDs) {
		return nil, internal.ErrCustomerAccessDenied
	}
	return c, nil
}

func (s *Service) checkUserIDs(ids []string) *internal.AppError {
	if len(ids) == 0 {
		return nil
	}

	existing, err := s.repo.ExistingUserIDs(ids)
	if err != nil {
		return internal.NewInternalError("failed to validate assigned users", err)
	}

	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	var invalid []string
	for _, id := range ids {
		if !known[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return internal.NewValidationError("Invalid assigned user IDs", nil).
			WithDetails(invalid).
			WithCode(internal.ErrCodeInvalidUserIDs)
	}
	return nil
}
