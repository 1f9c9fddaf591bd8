package timeentry

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/auth"
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !ValidStatus(status) {
		h.WriteAppError(w, internal.NewValidationError("Validation error", []internal.FieldError{
			{Field: "status", Message: "invalid status"},
		}))
		return
	}

	q := ListQuery{
		StartDate:  r.URL.Query().Get("startDate"),
		EndDate:    r.URL.Query().Get("endDate"),
		CustomerID: r.URL.Query().Get("customerId"),
		Status:     status,
		Limit:      h.QueryInt(r, "limit", 50, 1, 100),
		Offset:     h.QueryInt(r, "offset", 0, 0, 1<<30),
	}

	entries, total, err := h.Service.List(actor, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"timeEntries": entries,
		"pagination":  transport.NewPagination(total, q.Limit, q.Offset),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto CreateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	entry, err := h.Service.Create(actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{"timeEntry": entry})
}

func (h *Handler) CreateQuick(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto QuickEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	entry, err := h.Service.CreateQuick(actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{"timeEntry": entry})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto UpdateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	entry, err := h.Service.Update(actor, chi.URLParam(r, "timeEntryId"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"timeEntry": entry})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	if err := h.Service.Delete(actor, chi.URLParam(r, "timeEntryId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Time entry deleted successfully"})
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto SyncDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}
	if dto.Entries == nil {
		h.WriteAppError(w, internal.NewValidationError("Validation error", []internal.FieldError{
			{Field: "entries", Message: "entries must be an array"},
		}))
		return
	}

	resp, err := h.Service.Sync(actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
