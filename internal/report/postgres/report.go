package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/customer"
	"github.com/timhq/tim/internal/report"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `time_entries.id, time_entries.user_id, time_entries.customer_id,
time_entries.date, time_entries.hours, time_entries.description, time_entries.status,
time_entries.created_at, c.name AS customer_name, u.name AS user_name,
c.billing_info AS billing_info`

type entryScan struct {
	ID           string
	UserID       string
	CustomerID   string
	Date         string
	Hours        float64
	Description  string
	Status       string
	CreatedAt    time.Time
	CustomerName string
	UserName     string
	BillingInfo  string
}

func (s entryScan) toRow() report.EntryRow {
	row := report.EntryRow{
		ID:           s.ID,
		UserID:       s.UserID,
		CustomerID:   s.CustomerID,
		Date:         s.Date,
		Hours:        s.Hours,
		Description:  s.Description,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
		CustomerName: s.CustomerName,
		UserName:     s.UserName,
	}
	if s.BillingInfo != "" {
		var info customer.BillingInfo
		if err := json.Unmarshal([]byte(s.BillingInfo), &info); err == nil {
			row.HourlyRate = info.Rate()
		}
	}
	return row
}

func (r *Repository) Entries(f report.Filter) ([]report.EntryRow, error) {
	var scans []entryScan
	err := r.query(f).
		Order("time_entries.date DESC, time_entries.created_at DESC").
		Scan(&scans).Error
	if err != nil {
		return nil, err
	}
	return toRows(scans), nil
}

func (r *Repository) EntriesPage(f report.Filter, limit, offset int) ([]report.EntryRow, int64, error) {
	var total int64
	if err := r.query(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scans []entryScan
	err := r.query(f).
		Order("time_entries.date DESC, time_entries.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&scans).Error
	if err != nil {
		return nil, 0, err
	}
	return toRows(scans), total, nil
}

func (r *Repository) GetCustomer(id string) (*customer.Customer, error) {
	var c customer.Customer
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) query(f report.Filter) *gorm.DB {
	q := r.db.Table("time_entries").
		Select(selectColumns).
		Joins("JOIN customers c ON time_entries.customer_id = c.id").
		Joins("JOIN users u ON time_entries.user_id = u.id")

	if !f.Admin {
		q = q.Scopes(access.VisibleTimeEntries(f.ActorID))
	}
	if f.StartDate != "" {
		q = q.Where("time_entries.date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("time_entries.date <= ?", f.EndDate)
	}
	if f.CustomerID != "" {
		q = q.Where("time_entries.customer_id = ?", f.CustomerID)
	}
	if f.UserID != "" {
		q = q.Where("time_entries.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("time_entries.status = ?", f.Status)
	}
	return q
}

func toRows(scans []entryScan) []report.EntryRow {
	rows := make([]report.EntryRow, len(scans))
	for i, s := range scans {
		rows[i] = s.toRow()
	}
	return rows
}
