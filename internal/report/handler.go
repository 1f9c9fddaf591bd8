package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/auth"
	"github.com/timhq/tim/internal/timeentry"
	"github.com/timhq/tim/internal/transport"
	"github.com/timhq/tim/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	dashboard, err := h.Service.Dashboard(
		actor,
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
	)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"dashboard": dashboard})
}

func (h *Handler) TimeEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	f, appErr := filterFromQuery(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	limit := h.QueryInt(r, "limit", 100, 1, 1000)
	offset := h.QueryInt(r, "offset", 0, 0, 1<<30)

	rows, summary, total, err := h.Service.TimeEntriesReport(actor, f, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"timeEntries": rows,
		"summary":     summary,
		"pagination":  transport.NewPagination(total, limit, offset),
		"filters": map[string]string{
			"startDate":  f.StartDate,
			"endDate":    f.EndDate,
			"customerId": f.CustomerID,
			"userId":     f.UserID,
			"status":     f.Status,
		},
	})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	f, appErr := filterFromQuery(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	rows, err := h.Service.ExportRows(actor, f)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("time-entries-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(WriteCSV(rows))); err != nil {
		h.Logger.Error("failed to write CSV export", "error", err)
	}
}

func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	rep, err := h.Service.CustomerReport(
		actor,
		chi.URLParam(r, "customerId"),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
	)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rep)
}

func filterFromQuery(r *http.Request) (Filter, *internal.AppError) {
	status := r.URL.Query().Get("status")
	if status != "" && !timeentry.ValidStatus(status) {
		return Filter{}, internal.NewValidationError("Validation error", []internal.FieldError{
			{Field: "status", Message: "invalid status"},
		})
	}
	return Filter{
		StartDate:  r.URL.Query().Get("startDate"),
		EndDate:    r.URL.Query().Get("endDate"),
		CustomerID: r.URL.Query().Get("customerId"),
		UserID:     r.URL.Query().Get("userId"),
		Status:     status,
	}, nil
}
