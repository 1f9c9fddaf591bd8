// Package report aggregates time entries into the dashboard, the filterable
// report with CSV export, and per-customer breakdowns. Every aggregate path
// goes through the same visibility filter as the plain listings.
package report

import (
	"time"

	"github.com/timhq/tim/internal/customer"
)

// EntryRow is one joined time entry as the reporting queries consume it:
// the entry itself plus the customer/user names and the customer's current
// hourly rate.
type EntryRow struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CustomerID   string    `json:"customerId"`
	Date         string    `json:"date"`
	Hours        float64   `json:"hours"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	CustomerName string    `json:"customerName"`
	UserName     string    `json:"userName"`
	HourlyRate   float64   `json:"hourlyRate"`
}

// Earnings values an entry at the customer's current rate. Historical rate
// changes are not tracked; past entries re-price when the rate changes.
func (e EntryRow) Earnings() float64 {
	return e.Hours * e.HourlyRate
}

type Period struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type Summary struct {
	TotalHours    float64 `json:"totalHours"`
	TotalEarnings float64 `json:"totalEarnings"`
	TotalEntries  int     `json:"totalEntries"`
	TotalCount    int64   `json:"totalCount,omitempty"`
}

type StatusStat struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Hours  float64 `json:"hours"`
}

type CustomerStat struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	TotalHours float64 `json:"totalHours"`
	EntryCount int64   `json:"entryCount"`
}

type MonthStat struct {
	Month      string  `json:"month"`
	TotalHours float64 `json:"totalHours"`
	EntryCount int64   `json:"entryCount"`
}

type Dashboard struct {
	Period        Period         `json:"period"`
	Summary       Summary        `json:"summary"`
	StatusStats   []StatusStat   `json:"statusStats"`
	TopCustomers  []CustomerStat `json:"topCustomers"`
	RecentEntries []EntryRow     `json:"recentEntries"`
	MonthlyTrend  []MonthStat    `json:"monthlyTrend"`
}

// CustomerUserStat is one user's aggregate inside a customer report.
type CustomerUserStat struct {
	UserID       string  `json:"userId"`
	UserName     string  `json:"userName"`
	TotalHours   float64 `json:"totalHours"`
	TotalEntries int     `json:"totalEntries"`
	AverageHours float64 `json:"averageHours"`
}

// CustomerMonthStat is one month of a customer report, priced at the
// customer's current rate.
type CustomerMonthStat struct {
	Month         string  `json:"month"`
	TotalHours    float64 `json:"totalHours"`
	TotalEntries  int     `json:"totalEntries"`
	TotalEarnings float64 `json:"totalEarnings"`
}

type CustomerReportSummary struct {
	TotalHours           float64 `json:"totalHours"`
	TotalEarnings        float64 `json:"totalEarnings"`
	TotalEntries         int     `json:"totalEntries"`
	AverageHoursPerEntry float64 `json:"averageHoursPerEntry"`
}

type CustomerRef struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	BillingInfo *customer.BillingInfo `json:"billingInfo"`
}

type CustomerReport struct {
	Customer     CustomerRef           `json:"customer"`
	Period       Period                `json:"period"`
	Summary      CustomerReportSummary `json:"summary"`
	UserStats    []CustomerUserStat    `json:"userStats"`
	StatusStats  map[string]int        `json:"statusStats"`
	MonthlyStats []CustomerMonthStat   `json:"monthlyStats"`
	TimeEntries  []EntryRow            `json:"timeEntries"`
}
