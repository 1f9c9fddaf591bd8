// Package access centralizes role checks and the row-level visibility
// filters applied to every customer and time-entry query. All list, count
// and aggregate paths must go through the same scopes; a query that skips
// them leaks rows across customers.
package access

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleAccountManager Role = "account_manager"
	RoleEngineer       Role = "engineer"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleAccountManager, RoleEngineer:
		return true
	}
	return false
}

// RoleSet is a user's unordered role collection. Roles are non-exclusive;
// a user may hold several at once.
type RoleSet []Role

func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

func (rs RoleSet) HasAny(roles ...Role) bool {
	for _, required := range roles {
		if rs.Has(required) {
			return true
		}
	}
	return false
}

func (rs RoleSet) IsAdmin() bool {
	return rs.Has(RoleAdmin)
}

// CanManageCustomers reports whether the holder may create, update or
// archive customer records.
func (rs RoleSet) CanManageCustomers() bool {
	return rs.HasAny(RoleAdmin, RoleAccountManager)
}

// ExemptFromAssignmentGate reports whether the holder may use the
// application without any customer assignment.
func (rs RoleSet) ExemptFromAssignmentGate() bool {
	return rs.HasAny(RoleAdmin, RoleAccountManager)
}

func (rs RoleSet) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// VisibleTimeEntries restricts a time_entries query for a non-admin actor:
// rows they own, or rows against customers they are assigned to. Admins
// must not pass through here; callers skip the scope for them.
func VisibleTimeEntries(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"time_entries.user_id = ? OR time_entries.customer_id IN (?)",
			userID,
			assignedCustomerIDs(db, userID),
		)
	}
}

// VisibleCustomers restricts a customers query for a non-admin actor to the
// customers they are assigned to.
func VisibleCustomers(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("customers.id IN (?)", assignedCustomerIDs(db, userID))
	}
}

func assignedCustomerIDs(db *gorm.DB, userID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Table("customer_assignments").
		Select("customer_id").
		Where("user_id = ?", userID)
}

// CanMutateEntry is the per-row write check: owner, or an account manager
// assigned to the entry's customer. Admin short-circuits before this.
func CanMutateEntry(actorID string, roles RoleSet, entryOwnerID string, customerAssignees []string) bool {
	if entryOwnerID == actorID {
		return true
	}
	if roles.Has(RoleAccountManager) {
		for _, id := range customerAssignees {
			if id == actorID {
				return true
			}
		}
	}
	return false
}

// CanAccessCustomer is the per-row customer check for non-admins:
// membership in the customer's assignment list.
func CanAccessCustomer(actorID string, customerAssignees []string) bool {
	for _, id := range customerAssignees {
		if id == actorID {
			return true
		}
	}
	return false
}
