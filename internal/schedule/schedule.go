// Package schedule manages working schedules: descriptive weekly templates
// attached to customers. They are metadata only and never enforced against
// time entries.
package schedule

import (
	"time"
)

// Config is the JSON schedule blob. WorkingDays is the only structurally
// required key; day definitions stay free-form.
type Config map[string]interface{}

// HasWorkingDays reports whether the config carries the required
// workingDays array.
func (c Config) HasWorkingDays() bool {
	raw, ok := c["workingDays"]
	if !ok {
		return false
	}
	_, isArray := raw.([]interface{})
	return isArray
}

type Schedule struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	ScheduleConfig Config    `json:"scheduleConfig" gorm:"serializer:json;column:schedule_config"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Joined from users for responses.
	CreatedByName string `json:"createdByName,omitempty" gorm:"-"`
}

func (Schedule) TableName() string { return "working_schedules" }

// Timezones is the fixed set offered to clients.
var Timezones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Asia/Tokyo",
	"Asia/Shanghai",
	"Australia/Sydney",
	"Pacific/Auckland",
}
