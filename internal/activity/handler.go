package activity

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/backoffice-crm/backoffice-crm/internal/auth"
	"github.com/backoffice-crm/backoffice-crm/internal/transport"
	"github.com/backoffice-crm/backoffice-crm/pkg/logger"
)

type ServiceAPI interface {
	Create(p *auth.Principal, dto CreateActivityDTO) (*Activity, error)
	List(p *auth.Principal, limit, offset int) ([]*Activity, error)
	Get(p *auth.Principal, id int64) (*Activity, error)
	Update(p *auth.Principal, id int64, dto UpdateActivityDTO) (*Activity, error)
	Delete(p *auth.Principal, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || p == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}

func (h *Handler) idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// CreateActivity handles POST /activities
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateActivityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity, err := h.Service.Create(p, dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, activity)
}

// ListActivities handles GET /activities
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	activities, err := h.Service.List(p, limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, activities)
}

// GetActivity handles GET /activities/{id}
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, okID := h.idParam(r)
	if !okID {
		h.WriteError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	activity, err := h.Service.Get(p, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, activity)
}

// UpdateActivity handles PUT /activities/{id}
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, okID := h.idParam(r)
	if !okID {
		h.WriteError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	var dto UpdateActivityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity, err := h.Service.Update(p, id, dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, activity)
}

// DeleteActivity handles DELETE /activities/{id}
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, okID := h.idParam(r)
	if !okID {
		h.WriteError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	if err := h.Service.Delete(p, id); err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
