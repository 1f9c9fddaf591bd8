package timeentry

import (
	"regexp"

	"github.com/timhq/tim/internal"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

type CreateTimeEntryDTO struct {
	CustomerID   string                 `json:"customerId"`
	Date         string                 `json:"date"`
	Hours        *float64               `json:"hours"`
	StartTime    *string                `json:"startTime"`
	EndTime      *string                `json:"endTime"`
	Description  string                 `json:"description"`
	Status       string                 `json:"status"`
	LocationData map[string]interface{} `json:"locationData"`
	Attachments  []interface{}          `json:"attachments"`
}

func (d CreateTimeEntryDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.CustomerID == "" {
		fields = append(fields, internal.FieldError{Field: "customerId", Message: "valid customer ID required"})
	}
	if !datePattern.MatchString(d.Date) {
		fields = append(fields, internal.FieldError{Field: "date", Message: "valid date required"})
	}
	if d.StartTime != nil && !timePattern.MatchString(*d.StartTime) {
		fields = append(fields, internal.FieldError{Field: "startTime", Message: "start time must be in HH:MM format"})
	}
	if d.EndTime != nil && !timePattern.MatchString(*d.EndTime) {
		fields = append(fields, internal.FieldError{Field: "endTime", Message: "end time must be in HH:MM format"})
	}
	if len(d.Description) > 1000 {
		fields = append(fields, internal.FieldError{Field: "description", Message: "description too long"})
	}
	if d.Status != "" && !ValidStatus(d.Status) {
		fields = append(fields, internal.FieldError{Field: "status", Message: "invalid status"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

type QuickEntryDTO struct {
	CustomerID  string   `json:"customerId"`
	Hours       *float64 `json:"hours"`
	Description string   `json:"description"`
}

func (d QuickEntryDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.CustomerID == "" {
		fields = append(fields, internal.FieldError{Field: "customerId", Message: "valid customer ID required"})
	}
	if d.Hours == nil {
		fields = append(fields, internal.FieldError{Field: "hours", Message: "minimum 0.5 hours required"})
	}
	if len(d.Description) > 500 {
		fields = append(fields, internal.FieldError{Field: "description", Message: "description too long"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

type UpdateTimeEntryDTO struct {
	CustomerID   *string                `json:"customerId"`
	Date         *string                `json:"date"`
	Hours        *float64               `json:"hours"`
	StartTime    *string                `json:"startTime"`
	EndTime      *string                `json:"endTime"`
	Description  *string                `json:"description"`
	Status       *string                `json:"status"`
	LocationData map[string]interface{} `json:"locationData"`
	Attachments  []interface{}          `json:"attachments"`
}

func (d UpdateTimeEntryDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.Date != nil && !datePattern.MatchString(*d.Date) {
		fields = append(fields, internal.FieldError{Field: "date", Message: "valid date required"})
	}
	if d.StartTime != nil && !timePattern.MatchString(*d.StartTime) {
		fields = append(fields, internal.FieldError{Field: "startTime", Message: "start time must be in HH:MM format"})
	}
	if d.EndTime != nil && !timePattern.MatchString(*d.EndTime) {
		fields = append(fields, internal.FieldError{Field: "endTime", Message: "end time must be in HH:MM format"})
	}
	if d.Description != nil && len(*d.Description) > 1000 {
		fields = append(fields, internal.FieldError{Field: "description", Message: "description too long"})
	}
	if d.Status != nil && !ValidStatus(*d.Status) {
		fields = append(fields, internal.FieldError{Field: "status", Message: "invalid status"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

// SyncEntryDTO is one element of an offline sync batch. Entries carrying an
// id the actor owns are updated, everything else is created fresh.
type SyncEntryDTO struct {
	ID          *string  `json:"id"`
	CustomerID  string   `json:"customerId"`
	Date        string   `json:"date"`
	Hours       *float64 `json:"hours"`
	Description string   `json:"description"`
}

type SyncDTO struct {
	Entries []SyncEntryDTO `json:"entries"`
}

const (
	SyncCreated = "created"
	SyncUpdated = "updated"
	SyncError   = "error"
)

// SyncResult reports one entry's outcome; batch order is preserved.
type SyncResult struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	Entry  *TimeEntry `json:"entry,omitempty"`
	Error  string     `json:"error,omitempty"`
}

type SyncResponse struct {
	Synced  int          `json:"synced"`
	Errors  int          `json:"errors"`
	Results []SyncResult `json:"results"`
}

// ListQuery carries the list endpoint's filters.
type ListQuery struct {
	StartDate  string
	EndDate    string
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}
