package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/customer"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(f customer.ListFilter) ([]customer.Customer, int64, error) {
	base := r.db.Model(&customer.Customer{})
	if !f.Admin {
		base = base.Scopes(access.VisibleCustomers(f.ActorID))
	}
	if f.Status != "" {
		base = base.Where("customers.status = ?", f.Status)
	}
	if f.Search != "" {
		base = base.Where("LOWER(customers.name) LIKE LOWER(?)", "%"+f.Search+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []customer.Customer
	err := base.Session(&gorm.Session{}).
		Order("customers.name").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachAssignees(customers); err != nil {
		return nil, 0, err
	}
	if err := r.attachNames(customers); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *Repository) GetByID(id string) (*customer.Customer, error) {
	var c customer.Customer
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}

	assignees, err := r.GetAssignees(c.ID)
	if err != nil {
		return nil, err
	}
	c.AssignedUserIDs = assignees

	one := []customer.Customer{c}
	if err := r.attachNames(one); err != nil {
		return nil, err
	}
	c = one[0]

	if c.WorkingScheduleID != nil {
		var row struct {
			Name           string
			ScheduleConfig string
		}
		err := r.db.Table("working_schedules").
			Select("name, schedule_config").
			Where("id = ?", *c.WorkingScheduleID).
			Scan(&row).Error
		if err == nil && row.Name != "" {
			c.WorkingScheduleName = &row.Name
			c.WorkingScheduleConfig = decodeJSONObject(row.ScheduleConfig)
		}
	}
	return &c, nil
}

func (r *Repository) GetAssignees(customerID string) ([]string, error) {
	var ids []string
	err := r.db.Table("customer_assignments").
		Where("customer_id = ?", customerID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ExistingUserIDs(ids []string) ([]string, error) {
	var found []string
	err := r.db.Table("users").
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *Repository) Create(c *customer.Customer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return replaceAssignments(tx, c.ID, c.AssignedUserIDs)
	})
}

func (r *Repository) Update(c *customer.Customer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		return replaceAssignments(tx, c.ID, c.AssignedUserIDs)
	})
}

func (r *Repository) Archive(id string) (bool, error) {
	result := r.db.Model(&customer.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     customer.StatusArchived,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) StatEntries(customerID, startDate, endDate string) ([]customer.StatEntry, error) {
	q := r.db.Table("time_entries").
		Select("hours, status").
		Where("customer_id = ?", customerID)
	if startDate != "" {
		q = q.Where("date >= ?", startDate)
	}
	if endDate != "" {
		q = q.Where("date <= ?", endDate)
	}

	var entries []customer.StatEntry
	if err := q.Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) UserStats(customerID string) ([]customer.UserStat, error) {
	var stats []customer.UserStat
	err := r.db.Table("time_entries te").
		Select("u.id AS user_id, u.name AS name, SUM(te.hours) AS total_hours, COUNT(te.id) AS entry_count").
		Joins("JOIN users u ON te.user_id = u.id").
		Where("te.customer_id = ?", customerID).
		Group("u.id, u.name").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func replaceAssignments(tx *gorm.DB, customerID string, userIDs []string) error {
	if err := tx.Where("customer_id = ?", customerID).Delete(&customer.Assignment{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]customer.Assignment, len(userIDs))
	for i, uid := range userIDs {
		rows[i] = customer.Assignment{CustomerID: customerID, UserID: uid}
	}
	return tx.Create(&rows).Error
}

func (r *Repository) attachAssignees(customers []customer.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	ids := make([]string, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}

	var rows []customer.Assignment
	if err := r.db.Where("customer_id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	byCustomer := make(map[string][]string, len(customers))
	for _, row := range rows {
		byCustomer[row.CustomerID] = append(byCustomer[row.CustomerID], row.UserID)
	}
	for i := range customers {
		assigned := byCustomer[customers[i].ID]
		if assigned == nil {
			assigned = []string{}
		}
		customers[i].AssignedUserIDs = assigned
	}
	return nil
}

func decodeJSONObject(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// attachNames resolves account manager and leading engineer names in one
// users query across the page.
func (r *Repository) attachNames(customers []customer.Customer) error {
	idSet := map[string]bool{}
	for _, c := range customers {
		if c.AccountManagerID != nil {
			idSet[*c.AccountManagerID] = true
		}
		if c.LeadingEngineerID != nil {
			idSet[*c.LeadingEngineerID] = true
		}
	}
	if len(idSet) == 0 {
		return nil
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

	for i := range customers {
		if id := customers[i].AccountManagerID; id != nil {
			if name, ok := names[*id]; ok {
				n := name
				customers[i].AccountManagerName = &n
			}
		}
		if id := customers[i].LeadingEngineerID; id != nil {
			if name, ok := names[*id]; ok {
				n := name
				customers[i].LeadingEngineerName = &n
			}
		}
	}
	return nil
}
