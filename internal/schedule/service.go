package schedule

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/auth"
)

type Repository interface {
	List(actorID string, admin bool, limit, offset int) ([]Schedule, int64, error)
	GetByID(id string) (*Schedule, error)
	Create(s *Schedule) error
	Update(s *Schedule) error
	Delete(id string) error
	CountCustomersUsing(scheduleID string) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the actor's schedules; admins see everyone's.
func (s *Service) List(actor *auth.User, limit, offset int) ([]Schedule, int64, error) {
	schedules, total, err := s.repo.List(actor.ID, actor.Roles.IsAdmin(), limit, offset)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list working schedules", err)
	}
	return schedules, total, nil
}

func (s *Service) Get(actor *auth.User, scheduleID string) (*Schedule, error) {
	return s.ensureAccess(actor, scheduleID)
}

func (s *Service) Create(actor *auth.User, dto CreateScheduleDTO) (*Schedule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sched := &Schedule{
		ID:             uuid.NewString(),
		Name:           dto.Name,
		Timezone:       dto.Timezone,
		ScheduleConfig: dto.ScheduleConfig,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(sched); err != nil {
		return nil, internal.NewInternalError("failed to create working schedule", err)
	}

	s.logger.Info("working schedule created", "schedule_id", sched.ID, "created_by", actor.ID)
	return sched, nil
}

func (s *Service) Update(actor *auth.User, scheduleID string, dto UpdateScheduleDTO) (*Schedule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.ensureAccess(actor, scheduleID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		existing.Name = *dto.Name
	}
	if dto.Timezone != nil {
		existing.Timezone = *dto.Timezone
	}
	if dto.ScheduleConfig != nil {
		existing.ScheduleConfig = dto.ScheduleConfig
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(existing); err != nil {
		return nil, internal.NewInternalError("failed to update working schedule", err)
	}
	return existing, nil
}

// Delete removes the schedule unless any customer still references it.
func (s *Service) Delete(actor *auth.User, scheduleID string) error {
	if _, err := s.ensureAccess(actor, scheduleID); err != nil {
		return err
	}

	inUse, err := s.repo.CountCustomersUsing(scheduleID)
	if err != nil {
		return internal.NewInternalError("failed to check schedule usage", err)
	}
	if inUse > 0 {
		return internal.NewBusinessRuleError(
			"Cannot delete schedule: it is being used by customers",
			internal.ErrCodeScheduleInUse,
		).WithDetails(map[string]int64{"customerCount": inUse})
	}

	if err := s.repo.Delete(scheduleID); err != nil {
		return internal.NewInternalError("failed to delete working schedule", err)
	}
	return nil
}

// ensureAccess loads the schedule and applies the creator-or-admin rule.
func (s *Service) ensureAccess(actor *auth.User, scheduleID string) (*Schedule, error) {
	sched, err := s.repo.GetByID(scheduleID)
	if err != nil {
		return nil, internal.ErrScheduleNotFound
	}
	if !actor.Roles.IsAdmin() && sched.CreatedBy != actor.ID {
		return nil, internal.ErrScheduleAccessDenied
	}
	return sched, nil
}
