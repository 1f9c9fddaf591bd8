package timeentry

import (
	"fmt"
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
	ActorID    string
	Admin      bool
	StartDate  string
	EndDate    string
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}

// CustomerRef is the slice of a customer record the entry paths need for
// access checks and response assembly.
type CustomerRef struct {
	ID        string
	Name      string
	Assignees []string
}

type Repository interface {
	List(f ListFilter) ([]TimeEntry, int64, error)
	GetByID(id string) (*TimeEntry, error)
	GetOwned(id, userID string) (*TimeEntry, error)
	Create(e *TimeEntry) error
	Update(e *TimeEntry) error
	Delete(id string) (bool, error)
	GetCustomer(customerID string) (*CustomerRef, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns entries visible to the actor: everything for admins, own
// plus assigned-customer entries for everyone else.
func (s *Service) List(actor *auth.User, q ListQuery) ([]TimeEntry, int64, error) {
	entries, total, err := s.repo.List(ListFilter{
		ActorID:    actor.ID,
		Admin:      actor.Roles.IsAdmin(),
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		CustomerID: q.CustomerID,
		Status:     q.Status,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list time entries", err)
	}
	return entries, total, nil
}

// Create books a new entry. Hours come either explicitly or from a
// start/end pair; the raw value must clear the minimum before rounding.
func (s *Service) Create(actor *auth.User, dto CreateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.customerForWrite(actor, dto.CustomerID)
	if err != nil {
		return nil, err
	}

	var raw float64
	switch {
	case dto.Hours != nil:
		raw = *dto.Hours
	case dto.StartTime == nil || dto.EndTime == nil:
		return nil, internal.ErrHoursRequired
	default:
		raw, err = ComputeHours(dto.Date, *dto.StartTime, *dto.EndTime)
		if err != nil {
			return nil, err
		}
	}

	rounded, err := ValidateAndRound(raw)
	if err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusDraft
	}

	now := time.Now().UTC()
	entry := &TimeEntry{
		ID:           uuid.NewString(),
		UserID:       actor.ID,
		CustomerID:   dto.CustomerID,
		Date:         dto.Date,
		StartTime:    dto.StartTime,
		EndTime:      dto.EndTime,
		Hours:        rounded,
		Description:  dto.Description,
		Status:       status,
		LocationData: dto.LocationData,
		Attachments:  dto.Attachments,
		SyncedAt:     &now,
		CreatedAt:    now,
		UpdatedAt:    now,
		CustomerName: cust.Name,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, internal.NewInternalError("failed to create time entry", err)
	}

	s.logger.Info("time entry created", "entry_id", entry.ID, "user_id", actor.ID, "hours", entry.Hours)
	return entry, nil
}

// CreateQuick is the mobile fast path: hours only, booked against today,
// always a draft.
func (s *Service) CreateQuick(actor *auth.User, dto QuickEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.customerForWrite(actor, dto.CustomerID)
	if err != nil {
		return nil, err
	}

	rounded, err := ValidateAndRound(*dto.Hours)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &TimeEntry{
		ID:           uuid.NewString(),
		UserID:       actor.ID,
		CustomerID:   dto.CustomerID,
		Date:         now.Format(dateLayout),
		Hours:        rounded,
		Description:  dto.Description,
		Status:       StatusDraft,
		SyncedAt:     &now,
		CreatedAt:    now,
		UpdatedAt:    now,
		CustomerName: cust.Name,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, internal.NewInternalError("failed to create time entry", err)
	}
	return entry, nil
}

// Update merges the provided fields. Hours are only recomputed when the
// caller supplies hours or a complete time pair.
func (s *Service) Update(actor *auth.User, entryID string, dto UpdateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.entryForWrite(actor, entryID)
	if err != nil {
		return nil, err
	}

	var recomputed *float64
	if dto.Hours != nil {
		recomputed = dto.Hours
	} else if dto.StartTime != nil || dto.EndTime != nil {
		if dto.StartTime == nil || dto.EndTime == nil {
			return nil, internal.ErrTimePairNeeded
		}
		date := existing.Date
		if dto.Date != nil {
			date = *dto.Date
		}
		raw, err := ComputeHours(date, *dto.StartTime, *dto.EndTime)
		if err != nil {
			return nil, err
		}
		recomputed = &raw
	}

	if recomputed != nil {
		rounded, err := ValidateAndRound(*recomputed)
		if err != nil {
			return nil, err
		}
		existing.Hours = rounded
	}

	if dto.CustomerID != nil {
		existing.CustomerID = *dto.CustomerID
	}
	if dto.Date != nil {
		existing.Date = *dto.Date
	}
	if dto.StartTime != nil {
		existing.StartTime = dto.StartTime
	}
	if dto.EndTime != nil {
		existing.EndTime = dto.EndTime
	}
	if dto.Description != nil {
		existing.Description = *dto.Description
	}
	if dto.Status != nil {
		existing.Status = *dto.Status
	}
	if dto.LocationData != nil {
		existing.LocationData = dto.LocationData
	}
	if dto.Attachments != nil {
		existing.Attachments = dto.Attachments
	}

	now := time.Now().UTC()
	existing.UpdatedAt = now
	existing.SyncedAt = &now

	if err := s.repo.Update(existing); err != nil {
		return nil, internal.NewInternalError("failed to update time entry", err)
	}
	return existing, nil
}

// Delete removes the entry permanently.
func (s *Service) Delete(actor *auth.User, entryID string) error {
	if _, err := s.entryForWrite(actor, entryID); err != nil {
		return err
	}

	found, err := s.repo.Delete(entryID)
	if err != nil {
		return internal.NewInternalError("failed to delete time entry", err)
	}
	if !found {
		return internal.ErrTimeEntryNotFound
	}
	return nil
}

// Sync processes an offline batch in order. Each entry succeeds or fails on
// its own; a bad entry never aborts the rest of the batch.
func (s *Service) Sync(actor *auth.User, dto SyncDTO) (*SyncResponse, error) {
	results := make([]SyncResult, 0, len(dto.Entries))
	synced, failed := 0, 0

	for _, item := range dto.Entries {
		result := s.syncOne(actor, item)
		if result.Status == SyncError {
			failed++
		} else {
			synced++
		}
		results = append(results, result)
	}

	return &SyncResponse{Synced: synced, Errors: failed, Results: results}, nil
}

func (s *Service) syncOne(actor *auth.User, item SyncEntryDTO) SyncResult {
	resultID := "unknown"
	if item.ID != nil {
		resultID = *item.ID
	}

	if item.CustomerID == "" || !datePattern.MatchString(item.Date) || item.Hours == nil {
		return SyncResult{ID: resultID, Status: SyncError, Error: "customerId, date and hours are required"}
	}
	if *item.Hours < MinimumHours {
		return SyncResult{ID: resultID, Status: SyncError, Error: internal.ErrMinimumHours.Message}
	}

	now := time.Now().UTC()

	// Entries the actor already owns are updated in place.
	if item.ID != nil {
		if existing, err := s.repo.GetOwned(*item.ID, actor.ID); err == nil {
			existing.Hours = RoundToHalfHour(*item.Hours)
			existing.Description = item.Description
			existing.SyncedAt = &now
			existing.UpdatedAt = now
			if err := s.repo.Update(existing); err != nil {
				return SyncResult{ID: *item.ID, Status: SyncError, Error: err.Error()}
			}
			return SyncResult{ID: *item.ID, Status: SyncUpdated, Entry: existing}
		}
	}

	if _, err := s.repo.GetCustomer(item.CustomerID); err != nil {
		return SyncResult{ID: resultID, Status: SyncError, Error: fmt.Sprintf("unknown customer %s", item.CustomerID)}
	}

	entry := &TimeEntry{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		CustomerID:  item.CustomerID,
		Date:        item.Date,
		Hours:       RoundToHalfHour(*item.Hours),
		Description: item.Description,
		Status:      StatusDraft,
		SyncedAt:    &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(entry); err != nil {
		return SyncResult{ID: resultID, Status: SyncError, Error: err.Error()}
	}
	return SyncResult{ID: entry.ID, Status: SyncCreated, Entry: entry}
}

// customerForWrite resolves the customer and applies the booking access
// check: admins always pass, everyone else needs an assignment.
func (s *Service) customerForWrite(actor *auth.User, customerID string) (*CustomerRef, error) {
	cust, err := s.repo.GetCustomer(customerID)
	if err != nil {
		return nil, internal.ErrCustomerNotFound
	}
	if !actor.Roles.IsAdmin() && !access.CanAccessCustomer(actor.ID, cust.Assignees) {
		return nil, internal.ErrCustomerAccessDenied
	}
	return cust, nil
}

// entryForWrite loads the entry and applies the mutation check: owner,
// admin, or an account manager assigned to the entry's customer.
func (s *Service) entryForWrite(actor *auth.User, entryID string) (*TimeEntry, error) {
	entry, err := s.repo.GetByID(entryID)
	if err != nil {
		return nil, internal.ErrTimeEntryNotFound
	}

	if actor.Roles.IsAdmin() {
		return entry, nil
	}

	cust, err := s.repo.GetCustomer(entry.CustomerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load entry customer", err)
	}
	if !access.CanMutateEntry(actor.ID, actor.Roles, entry.UserID, cust.Assignees) {
		return nil, internal.ErrTimeEntryAccessDenied
	}
	return entry, nil
}
