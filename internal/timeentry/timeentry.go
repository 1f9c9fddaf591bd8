// Package timeentry implements the core time tracking records: hour
// computation and rounding, entry CRUD and the offline batch sync used by
// the mobile clients.
package timeentry

import (
	"time"
)

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// TimeEntry is one tracked block of work. Date is an ISO calendar day,
// start/end are optional HH:MM bounds; Hours is always the rounded value.
type TimeEntry struct {
	ID           string                 `json:"id" gorm:"primaryKey"`
	UserID       string                 `json:"userId"`
	CustomerID   string                 `json:"customerId"`
	Date         string                 `json:"date"`
	StartTime    *string                `json:"startTime,omitempty"`
	EndTime      *string                `json:"endTime,omitempty"`
	Hours        float64                `json:"hours"`
	Description  string                 `json:"description"`
	Status       string                 `json:"status"`
	LocationData map[string]interface{} `json:"locationData,omitempty" gorm:"serializer:json"`
	Attachments  []interface{}          `json:"attachments,omitempty" gorm:"serializer:json"`
	SyncedAt     *time.Time             `json:"syncedAt,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`

	// Joined from customers for responses.
	CustomerName string `json:"customerName,omitempty" gorm:"-"`
}

func (TimeEntry) TableName() string { return "time_entries" }
