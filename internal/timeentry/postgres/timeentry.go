package postgres

import (
	"gorm.io/gorm"

	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/timeentry"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(f timeentry.ListFilter) ([]timeentry.TimeEntry, int64, error) {
	base := r.db.Model(&timeentry.TimeEntry{})
	if !f.Admin {
		base = base.Scopes(access.VisibleTimeEntries(f.ActorID))
	}
	if f.StartDate != "" {
		base = base.Where("time_entries.date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		base = base.Where("time_entries.date <= ?", f.EndDate)
	}
	if f.CustomerID != "" {
		base = base.Where("time_entries.customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		base = base.Where("time_entries.status = ?", f.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []timeentry.TimeEntry
	err := base.Session(&gorm.Session{}).
		Order("time_entries.date DESC, time_entries.created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachCustomerNames(entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *Repository) GetByID(id string) (*timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry
	if err := r.db.First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) GetOwned(id, userID string) (*timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry
	if err := r.db.First(&e, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) Create(e *timeentry.TimeEntry) error {
	return r.db.Create(e).Error
}

func (r *Repository) Update(e *timeentry.TimeEntry) error {
	return r.db.Save(e).Error
}

func (r *Repository) Delete(id string) (bool, error) {
	result := r.db.Delete(&timeentry.TimeEntry{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetCustomer(customerID string) (*timeentry.CustomerRef, error) {
	var row struct {
		ID   string
		Name string
	}
	err := r.db.Table("customers").
		Select("id, name").
		Where("id = ?", customerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var assignees []string
	err = r.db.Table("customer_assignments").
		Where("customer_id = ?", customerID).
		Pluck("user_id", &assignees).Error
	if err != nil {
		return nil, err
	}

	return &timeentry.CustomerRef{ID: row.ID, Name: row.Name, Assignees: assignees}, nil
}

// attachCustomerNames resolves customer names for a page of entries in a
// single query.
func (r *Repository) attachCustomerNames(entries []timeentry.TimeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	idSet := map[string]bool{}
	for _, e := range entries {
		idSet[e.CustomerID] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var rows []struct {
		ID   string
		Name string
	}
	err := r.db.Table("customers").Select("id, name").Where("id IN ?", ids).Scan(&rows).Error
	if err != nil {
		return err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	for i := range entries {
		entries[i].CustomerName = names[entries[i].CustomerID]
	}
	return nil
}
