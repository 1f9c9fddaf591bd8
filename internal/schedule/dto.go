package schedule

import (
	"github.com/timhq/tim/internal"
)

type CreateScheduleDTO struct {
	Name           string `json:"name"`
	Timezone       string `json:"timezone"`
	ScheduleConfig Config `json:"scheduleConfig"`
}

func (d CreateScheduleDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if len(d.Name) < 1 || len(d.Name) > 255 {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name must be 1-255 characters"})
	}
	if len(d.Timezone) < 1 || len(d.Timezone) > 50 {
		fields = append(fields, internal.FieldError{Field: "timezone", Message: "timezone is required"})
	}
	if d.ScheduleConfig == nil {
		fields = append(fields, internal.FieldError{Field: "scheduleConfig", Message: "schedule config must be an object"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	if !d.ScheduleConfig.HasWorkingDays() {
		return internal.NewBusinessRuleError(
			"Invalid schedule config: workingDays array is required",
			internal.ErrCodeInvalidScheduleConfig,
		)
	}
	return nil
}

type UpdateScheduleDTO struct {
	Name           *string `json:"name"`
	Timezone       *string `json:"timezone"`
	ScheduleConfig Config  `json:"scheduleConfig"`
}

func (d UpdateScheduleDTO) Validate() *internal.AppError {
	var fields []internal.FieldError
	if d.Name != nil && (len(*d.Name) < 1 || len(*d.Name) > 255) {
		fields = append(fields, internal.FieldError{Field: "name", Message: "name must be 1-255 characters"})
	}
	if d.Timezone != nil && (len(*d.Timezone) < 1 || len(*d.Timezone) > 50) {
		fields = append(fields, internal.FieldError{Field: "timezone", Message: "timezone is required"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("Validation error", fields)
	}
	if d.ScheduleConfig != nil && !d.ScheduleConfig.HasWorkingDays() {
		return internal.NewBusinessRuleError(
			"Invalid schedule config: workingDays array is required",
			internal.ErrCodeInvalidScheduleConfig,
		)
	}
	return nil
}
