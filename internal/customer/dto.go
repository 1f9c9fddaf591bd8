package customer

import (
	"github.com/timhq/tim/internal"
)

type CreateCustomerDTO struct {
	Name              string                 `json:"name"`
	ContactInfo       map[string]interface{} `json:"contactInfo"`
	BillingInfo       *BillingInfo           `json:"billingInfo"`
	AssignedUserIDs   []string               `json:"assignedUserIds"`
	AccountManagerID  *string                `json:"accountManagerId"`
	LeadingEngineerID *string                `json:"leadingEngineerId"`
	WorkingScheduleID *string                `json:"workingScheduleId"`
	Status            string                 `json:"status"`
}

func (d CreateCustomerDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if len(d.Name) < 1 || len(d.Name) > 255 {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name must be 1-255 characters"})
	}
	if d.Status != "" && !ValidStatus(d.Status) {
		fields = append(fields, internal.FieldError{Field: "status", Message: "invalid status"})
	}
	if d.BillingInfo != nil && d.BillingInfo.HourlyRate != nil && *d.BillingInfo.HourlyRate < 0 {
		fields = append(fields, internal.FieldError{Field: "billingInfo.hourlyRate", Message: "hourly rate must not be negative"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

type UpdateCustomerDTO struct {
	Name              *string                `json:"name"`
	ContactInfo       map[string]interface{} `json:"contactInfo"`
	BillingInfo       *BillingInfo           `json:"billingInfo"`
	AssignedUserIDs   []string               `json:"assignedUserIds"`
	AccountManagerID  *string                `json:"accountManagerId"`
	LeadingEngineerID *string                `json:"leadingEngineerId"`
	WorkingScheduleID *string                `json:"workingScheduleId"`
	Status            *string                `json:"status"`
}

func (d UpdateCustomerDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.Name != nil && (len(*d.Name) < 1 || len(*d.Name) > 255) {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name must be 1-255 characters"})
	}
	if d.Status != nil && !ValidStatus(*d.Status) {
		fields = append(fields, internal.FieldError{Field: "status", Message: "invalid status"})
	}
	if d.BillingInfo != nil && d.BillingInfo.HourlyRate != nil && *d.BillingInfo.HourlyRate < 0 {
		fields = append(fields, internal.FieldError{Field: "billingInfo.hourlyRate", Message: "hourly rate must not be negative"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	return nil
}

// ListQuery carries the list endpoint's filters.
type ListQuery struct {
	Status string
	Search string
	Limit  int
	Offset int
}
