package postgres

import (
	"gorm.io/gorm"

	"github.com/timhq/tim/internal/schedule"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(actorID string, admin bool, limit, offset int) ([]schedule.Schedule, int64, error) {
	base := r.db.Model(&schedule.Schedule{})
	if !admin {
		base = base.Where("created_by = ?", actorID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var schedules []schedule.Schedule
	err := base.Session(&gorm.Session{}).
		Order("name").
		Limit(limit).
		Offset(offset).
		Find(&schedules).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachCreatorNames(schedules); err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

func (r *Repository) GetByID(id string) (*schedule.Schedule, error) {
	var s schedule.Schedule
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}

	one := []schedule.Schedule{s}
	if err := r.attachCreatorNames(one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *Repository) Create(s *schedule.Schedule) error {
	return r.db.Create(s).Error
}

func (r *Repository) Update(s *schedule.Schedule) error {
	return r.db.Save(s).Error
}

func (r *Repository) Delete(id string) error {
	return r.db.Delete(&schedule.Schedule{}, "id = ?", id).Error
}

func (r *Repository) CountCustomersUsing(scheduleID string) (int64, error) {
	var count int64
	err := r.db.Table("customers").
		Where("working_schedule_id = ?", scheduleID).
		Count(&count).Error
	return count, err
}

func (r *Repository) attachCreatorNames(schedules []schedule.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	idSet := map[string]bool{}
	for _, s := range schedules {
		idSet[s.CreatedBy] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var rows []struct {
		ID   string
		Name string
	}
	err := r.db.Table("users").Select("id, name").Where("id IN ?", ids).Scan(&rows).Error
	if err != nil {
		return err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	for i := range schedules {
		schedules[i].CreatedByName = names[schedules[i].CreatedBy]
	}
	return nil
}
