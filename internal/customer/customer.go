// Package customer manages customer records, their user assignments and
// per-customer statistics. Customers are never hard-deleted; archiving is
// the terminal state.
package customer

import (
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// BillingInfo is stored as a JSON blob. HourlyRate drives every earnings
// figure in the reports.
type BillingInfo struct {
	HourlyRate   *float64 `json:"hourlyRate,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	PaymentTerms string   `json:"paymentTerms,omitempty"`
}

// Rate returns the current hourly rate, zero when unset.
func (b *BillingInfo) Rate() float64 {
	if b == nil || b.HourlyRate == nil {
		return 0
	}
	return *b.HourlyRate
}

type Customer struct {
	ID                string                 `json:"id" gorm:"primaryKey"`
	Name              string                 `json:"name"`
	ContactInfo       map[string]interface{} `json:"contactInfo,omitempty" gorm:"serializer:json"`
	BillingInfo       *BillingInfo           `json:"billingInfo,omitempty" gorm:"serializer:json"`
	AccountManagerID  *string                `json:"accountManagerId,omitempty"`
	LeadingEngineerID *string                `json:"leadingEngineerId,omitempty"`
	WorkingScheduleID *string                `json:"workingScheduleId,omitempty"`
	Status            string                 `json:"status"`
	CreatedBy         string                 `json:"createdBy"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`

	// Maintained through the customer_assignments join table.
	AssignedUserIDs []string `json:"assignedUserIds" gorm:"-"`

	// Joined for responses, never persisted here.
	AccountManagerName    *string                `json:"accountManagerName,omitempty" gorm:"-"`
	LeadingEngineerName   *string                `json:"leadingEngineerName,omitempty" gorm:"-"`
	WorkingScheduleName   *string                `json:"workingScheduleName,omitempty" gorm:"-"`
	WorkingScheduleConfig map[string]interface{} `json:"workingScheduleConfig,omitempty" gorm:"-"`
}

func (Customer) TableName() string { return "customers" }

// Assignment is one row of the customer_assignments join table backing the
// row-level visibility filters.
type Assignment struct {
	CustomerID string `gorm:"primaryKey"`
	UserID     string `gorm:"primaryKey"`
}

func (Assignment) TableName() string { return "customer_assignments" }

// UserStat is one user's aggregate within a customer's stats window.
type UserStat struct {
	UserID     string  `json:"id"`
	Name       string  `json:"name"`
	TotalHours float64 `json:"totalHours"`
	EntryCount int64   `json:"entryCount"`
}

// Stats is the response body of the customer statistics endpoint.
type Stats struct {
	TotalHours           float64          `json:"totalHours"`
	TotalEntries         int64            `json:"totalEntries"`
	AverageHoursPerEntry float64          `json:"averageHoursPerEntry"`
	StatusCounts         map[string]int64 `json:"statusCounts"`
	UserStats            []UserStat       `json:"userStats"`
	DateRange            DateRange        `json:"dateRange"`
}

type DateRange struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}
