package stage

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/admission-portal/internal"
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/admission-portal/internal/transport"
	"github.com/frahmantamala/admission-portal/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateStage(dto CreateStageDTO, createdBy int64) (*stageDatamodel.Stage, error)
	UpdateStage(id int64, dto UpdateStageDTO) (*stageDatamodel.Stage, error)
	ActivateStage(id int64) (*stageDatamodel.Stage, error)
	DeactivateStage(id int64) (*stageDatamodel.Stage, error)
	CurrentStage() (*stageDatamodel.Stage, error)
	GetStageByID(id int64) (*stageDatamodel.Stage, error)
	GetAllStages() ([]*stageDatamodel.Stage, error)
	StageInfo() (*StageInfoResponse, error)
	IsRegistrationAllowed(role userDatamodel.Role) (bool, error)
	InitializeDefaultStages(createdBy int64) (int, error)
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

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (*internal.CurrentUser, bool) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	if !user.HasAnyPermission([]string{"system_admin"}) {
		h.HandleServiceError(w, internal.ErrInsufficientAccess)
		return nil, false
	}
	return user, true
}

// ---------------- Public routes ----------------

// GetCurrentStage is unauthenticated: registration front pages poll it.
func (h *Handler) GetCurrentStage(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.StageInfo()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) CheckRegistration(w http.ResponseWriter, r *http.Request) {
	roleStr := chi.URLParam(r, "role")
	role, err := userDatamodel.ParseRole(roleStr)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role")
		return
	}

	allowed, err := h.Service.IsRegistrationAllowed(role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := RegistrationCheckResponse{
		Role:                role.String(),
		RegistrationAllowed: allowed,
	}
	if current, err := h.Service.CurrentStage(); err == nil && current != nil {
		resp.CurrentStage = current.Name
		resp.Message = BehaviorFor(current.StageType).Message
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// ---------------- Admin routes ----------------

func (h *Handler) CreateStage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto CreateStageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stage, err := h.Service.CreateStage(dto, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, stage)
}

func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	stages, err := h.Service.GetAllStages()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stages)
}

func (h *Handler) GetStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid stage ID")
		return
	}

	stage, err := h.Service.GetStageByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stage)
}

func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid stage ID")
		return
	}

	var dto UpdateStageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stage, err := h.Service.UpdateStage(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stage)
}

func (h *Handler) ActivateStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid stage ID")
		return
	}

	stage, err := h.Service.ActivateStage(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stage)
}

func (h *Handler) DeactivateStage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid stage ID")
		return
	}

	stage, err := h.Service.DeactivateStage(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stage)
}

func (h *Handler) InitializeDefaults(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	created, err := h.Service.InitializeDefaultStages(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int{"stages_created": created})
}

// RegisterRoutes mounts the stage surface: the two public lookups plus the
// admin management routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stages", func(r chi.Router) {
		r.Get("/current", h.GetCurrentStage)
		r.Get("/check-registration/{role}", h.CheckRegistration)

		r.Post("/", h.CreateStage)
		r.Get("/", h.ListStages)
		r.Get("/{id}", h.GetStage)
		r.Patch("/{id}", h.UpdateStage)
		r.Post("/{id}/activate", h.ActivateStage)
		r.Post("/{id}/deactivate", h.DeactivateStage)
		r.Post("/initialize-defaults", h.InitializeDefaults)
	})
}
