package customer

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
		Status: status,
		Search: r.URL.Query().Get("search"),
		Limit:  h.QueryInt(r, "limit", 50, 1, 100),
		Offset: h.QueryInt(r, "offset", 0, 0, 1<<30),
	}

	customers, total, err := h.Service.List(actor, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"customers":  customers,
		"pagination": transport.NewPagination(total, q.Limit, q.Offset),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	c, err := h.Service.Get(actor, chi.URLParam(r, "customerId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"customer": c})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto CreateCustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	c, err := h.Service.Create(actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{"customer": c})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	var dto UpdateCustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	c, err := h.Service.Update(actor, chi.URLParam(r, "customerId"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"customer": c})
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	if err := h.Service.Archive(actor, chi.URLParam(r, "customerId")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Customer archived successfully"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}

	stats, err := h.Service.Stats(
		actor,
		chi.URLParam(r, "customerId"),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
	)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}
