package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	"github.com/frahmantamala/admission-portal/internal/transport"
	"github.com/frahmantamala/admission-portal/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListAccessLogs(filter AccessLogFilter) ([]*acDatamodel.AccessLog, error)
	ListSessionLogs(userID int64, limit, offset int) ([]*acDatamodel.SessionLog, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.Default()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) requireAuditRead(w http.ResponseWriter, r *http.Request) bool {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !user.HasAnyPermission([]string{"system_admin", "system_read"}) {
		h.HandleServiceError(w, internal.ErrInsufficientAccess)
		return false
	}
	return true
}

func (h *Handler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuditRead(w, r) {
		return
	}

	filter := AccessLogFilter{Limit: 100}
	q := r.URL.Query()

	if v := q.Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if v := q.Get("endpoint_path"); v != "" {
		filter.EndpointPath = v
	}
	if v := q.Get("success"); v != "" {
		success := v == "true"
		filter.Success = &success
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}
	if v := q.Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	logs, err := h.Service.ListAccessLogs(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) ListSessionLogs(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuditRead(w, r) {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	limit := 100
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			offset = o
		}
	}

	logs, err := h.Service.ListSessionLogs(userID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/access-logs", h.ListAccessLogs)
		r.Get("/users/{id}/sessions", h.ListSessionLogs)
	})
}
