package report

import (
	"log/slog"
	"sort"
	"time"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/auth"
	"github.com/timhq/tim/internal/customer"
)

// Filter is the shared filter shape of every reporting query. ActorID is
// ignored when Admin is set.
type Filter struct {
	ActorID    string
	Admin      bool
	StartDate  string
	EndDate    string
	CustomerID string
	UserID     string
	Status     string
}

type Repository interface {
	// Entries returns all matching rows ordered by date desc, created_at
	// desc. No pagination; callers bound the window instead.
	Entries(f Filter) ([]EntryRow, error)
	// EntriesPage returns one page plus the full filtered count.
	EntriesPage(f Filter, limit, offset int) ([]EntryRow, int64, error)
	GetCustomer(id string) (*customer.Customer, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

const dateLayout = "2006-01-02"

// Dashboard builds the overview for the actor's visible entries. The window
// defaults to the trailing 30 days.
func (s *Service) Dashboard(actor *auth.User, startDate, endDate string) (*Dashboard, error) {
	now := time.Now().UTC()
	if startDate == "" {
		startDate = now.AddDate(0, 0, -30).Format(dateLayout)
	}
	if endDate == "" {
		endDate = now.Format(dateLayout)
	}

	f := Filter{
		ActorID:   actor.ID,
		Admin:     actor.Roles.IsAdmin(),
		StartDate: startDate,
		EndDate:   endDate,
	}
	rows, err := s.repo.Entries(f)
	if err != nil {
		return nil, internal.NewInternalError("failed to load dashboard entries", err)
	}

	var totalHours, totalEarnings float64
	statusAgg := map[string]*StatusStat{}
	customerAgg := map[string]*CustomerStat{}
	for _, row := range rows {
		totalHours += row.Hours
		totalEarnings += row.Earnings()

		st, ok := statusAgg[row.Status]
		if !ok {
			st = &StatusStat{Status: row.Status}
			statusAgg[row.Status] = st
		}
		st.Count++
		st.Hours += row.Hours

		cs, ok := customerAgg[row.CustomerID]
		if !ok {
			cs = &CustomerStat{ID: row.CustomerID, Name: row.CustomerName}
			customerAgg[row.CustomerID] = cs
		}
		cs.TotalHours += row.Hours
		cs.EntryCount++
	}

	statusStats := make([]StatusStat, 0, len(statusAgg))
	for _, st := range statusAgg {
		statusStats = append(statusStats, *st)
	}
	sort.Slice(statusStats, func(i, j int) bool { return statusStats[i].Status < statusStats[j].Status })

	topCustomers := make([]CustomerStat, 0, len(customerAgg))
	for _, cs := range customerAgg {
		topCustomers = append(topCustomers, *cs)
	}
	sort.Slice(topCustomers, func(i, j int) bool { return topCustomers[i].TotalHours > topCustomers[j].TotalHours })
	if len(topCustomers) > 5 {
		topCustomers = topCustomers[:5]
	}

	recent := rows
	if len(recent) > 10 {
		recent = recent[:10]
	}

	trend, err := s.monthlyTrend(actor, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Period: Period{StartDate: startDate, EndDate: endDate},
		Summary: Summary{
			TotalHours:    totalHours,
			TotalEarnings: totalEarnings,
			TotalEntries:  len(rows),
		},
		StatusStats:   statusStats,
		TopCustomers:  topCustomers,
		RecentEntries: recent,
		MonthlyTrend:  trend,
	}, nil
}

// monthlyTrend groups the trailing six calendar months of visible entries,
// oldest month first.
func (s *Service) monthlyTrend(actor *auth.User, now time.Time) ([]MonthStat, error) {
	sixMonthsStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)
	rows, err := s.repo.Entries(Filter{
		ActorID:   actor.ID,
		Admin:     actor.Roles.IsAdmin(),
		StartDate: sixMonthsStart.Format(dateLayout),
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to load monthly trend", err)
	}

	byMonth := map[string]*MonthStat{}
	for _, row := range rows {
		if len(row.Date) < 7 {
			continue
		}
		month := row.Date[:7]
		ms, ok := byMonth[month]
		if !ok {
			ms = &MonthStat{Month: month}
			byMonth[month] = ms
		}
		ms.TotalHours += row.Hours
		ms.EntryCount++
	}

	trend := make([]MonthStat, 0, len(byMonth))
	for _, ms := range byMonth {
		trend = append(trend, *ms)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })
	return trend, nil
}

// TimeEntriesReport is the paginated filterable report. The summary covers
// the returned page only, while totalCount spans the whole filtered set;
// this asymmetry is long-standing API behavior the clients depend on.
func (s *Service) TimeEntriesReport(actor *auth.User, f Filter, limit, offset int) ([]EntryRow, Summary, int64, error) {
	f.ActorID = actor.ID
	f.Admin = actor.Roles.IsAdmin()

	rows, total, err := s.repo.EntriesPage(f, limit, offset)
	if err != nil {
		return nil, Summary{}, 0, internal.NewInternalError("failed to load time entries report", err)
	}

	var totalHours, totalEarnings float64
	for _, row := range rows {
		totalHours += row.Hours
		totalEarnings += row.Earnings()
	}

	return rows, Summary{
		TotalHours:    totalHours,
		TotalEarnings: totalEarnings,
		TotalEntries:  len(rows),
		TotalCount:    total,
	}, total, nil
}

// ExportRows returns the full filtered set for CSV export, newest first.
func (s *Service) ExportRows(actor *auth.User, f Filter) ([]EntryRow, error) {
	f.ActorID = actor.ID
	f.Admin = actor.Roles.IsAdmin()

	rows, err := s.repo.Entries(f)
	if err != nil {
		return nil, internal.NewInternalError("failed to load export entries", err)
	}
	return rows, nil
}

// CustomerReport aggregates one customer's entries within an optional
// window: per-user stats, status histogram and a monthly breakdown sorted
// newest month first.
func (s *Service) CustomerReport(actor *auth.User, customerID, startDate, endDate string) (*CustomerReport, error) {
	cust, err := s.repo.GetCustomer(customerID)
	if err != nil {
		return nil, internal.ErrCustomerNotFound
	}

	rows, err := s.repo.Entries(Filter{
		Admin:      true, // scoped to one customer below, not to the actor
		CustomerID: customerID,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to load customer report", err)
	}

	rate := cust.BillingInfo.Rate()

	var totalHours float64
	userAgg := map[string]*CustomerUserStat{}
	statusStats := map[string]int{}
	monthAgg := map[string]*CustomerMonthStat{}
	for _, row := range rows {
		totalHours += row.Hours

		us, ok := userAgg[row.UserID]
		if !ok {
			us = &CustomerUserStat{UserID: row.UserID, UserName: row.UserName}
			userAgg[row.UserID] = us
		}
		us.TotalHours += row.Hours
		us.TotalEntries++

		statusStats[row.Status]++

		if len(row.Date) >= 7 {
			month := row.Date[:7]
			ms, ok := monthAgg[month]
			if !ok {
				ms = &CustomerMonthStat{Month: month}
				monthAgg[month] = ms
			}
			ms.TotalHours += row.Hours
			ms.TotalEntries++
			ms.TotalEarnings += row.Hours * rate
		}
	}

	userStats := make([]CustomerUserStat, 0, len(userAgg))
	for _, us := range userAgg {
		if us.TotalEntries > 0 {
			us.AverageHours = us.TotalHours / float64(us.TotalEntries)
		}
		userStats = append(userStats, *us)
	}
	sort.Slice(userStats, func(i, j int) bool { return userStats[i].UserName < userStats[j].UserName })

	monthlyStats := make([]CustomerMonthStat, 0, len(monthAgg))
	for _, ms := range monthAgg {
		monthlyStats = append(monthlyStats, *ms)
	}
	sort.Slice(monthlyStats, func(i, j int) bool { return monthlyStats[i].Month > monthlyStats[j].Month })

	var avg float64
	if len(rows) > 0 {
		avg = totalHours / float64(len(rows))
	}

	return &CustomerReport{
		Customer: CustomerRef{ID: cust.ID, Name: cust.Name, BillingInfo: cust.BillingInfo},
		Period:   Period{StartDate: startDate, EndDate: endDate},
		Summary: CustomerReportSummary{
			TotalHours:           totalHours,
			TotalEarnings:        totalHours * rate,
			TotalEntries:         len(rows),
			AverageHoursPerEntry: avg,
		},
		UserStats:    userStats,
		StatusStats:  statusStats,
		MonthlyStats: monthlyStats,
		TimeEntries:  rows,
	}, nil
}
