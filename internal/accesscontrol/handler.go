package accesscontrol

import (
	"encoding/json"
	"fmt"
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
	CreatePermission(dto CreatePermissionDTO, createdBy int64) (*acDatamodel.Permission, error)
	GetPermissions(limit, offset int, activeOnly bool) ([]*acDatamodel.Permission, error)
	GetPermissionByID(id int64) (*acDatamodel.Permission, error)
	UpdatePermission(id int64, dto UpdatePermissionDTO) (*acDatamodel.Permission, error)

	CreateRole(dto CreateRoleDTO, createdBy int64) (*acDatamodel.Role, error)
	GetRoles(limit, offset int, activeOnly bool) ([]*acDatamodel.Role, error)
	GetRoleByID(id int64) (*acDatamodel.Role, error)
	UpdateRole(id int64, dto UpdateRoleDTO) (*acDatamodel.Role, error)

	AssignPermissionToRole(roleID, permissionID, grantedBy int64, expiresAt *time.Time) (*acDatamodel.RolePermission, error)
	RemovePermissionFromRole(roleID, permissionID int64) error
	AssignRoleToUser(userID, roleID, assignedBy int64, expiresAt *time.Time) (*acDatamodel.UserRoleAssignment, error)
	RemoveRoleFromUser(userID, roleID int64) error
	BulkAssignRole(userIDs []int64, roleID, assignedBy int64, expiresAt *time.Time) []BulkRoleAssignmentResult
	BulkAssignPermission(roleIDs []int64, permissionID, grantedBy int64, expiresAt *time.Time) []BulkPermissionAssignmentResult

	CreateEndpointRule(dto CreateEndpointRuleDTO, createdBy int64) (*acDatamodel.EndpointAccessRule, error)
	GetEndpointRules(limit, offset int, activeOnly bool) ([]*acDatamodel.EndpointAccessRule, error)
	UpdateEndpointRule(id int64, dto UpdateEndpointRuleDTO) (*acDatamodel.EndpointAccessRule, error)

	EffectiveRoles(userID int64) (StringSet, error)
	EffectivePermissions(userID int64) (StringSet, error)
	CheckPermission(userID int64, resource, action, resourceID string) (bool, error)

	InitializeDefaultPermissions() (int, error)
	InitializeDefaultRoles() (int, error)
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

// requireAny rejects the request unless the caller holds one of the named
// permissions. Management routes are self-protected here rather than via the
// endpoint registry, so a wiped registry cannot open the admin surface.
func (h *Handler) requireAny(w http.ResponseWriter, r *http.Request, permissions ...string) (*internal.CurrentUser, bool) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	if !user.HasAnyPermission(permissions) {
		h.HandleServiceError(w, internal.ErrInsufficientAccess)
		return nil, false
	}
	return user, true
}

func (h *Handler) parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

func (h *Handler) pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// ---------------- Permissions ----------------

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin")
	if !ok {
		return
	}

	var dto CreatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	permission, err := h.Service.CreatePermission(dto, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, permission)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	limit, offset := h.parsePagination(r)
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	permissions, err := h.Service.GetPermissions(limit, offset, activeOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permissions)
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	id, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission ID")
		return
	}

	permission, err := h.Service.GetPermissionByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permission)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin"); !ok {
		return
	}

	id, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission ID")
		return
	}

	var dto UpdatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	permission, err := h.Service.UpdatePermission(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permission)
}

// ---------------- Roles ----------------

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin")
	if !ok {
		return
	}

	var dto CreateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.CreateRole(dto, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	limit, offset := h.parsePagination(r)
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	roles, err := h.Service.GetRoles(limit, offset, activeOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	id, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role ID")
		return
	}

	role, err := h.Service.GetRoleByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin"); !ok {
		return
	}

	id, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role ID")
		return
	}

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.UpdateRole(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

// ---------------- Grants ----------------

func (h *Handler) AssignPermissionToRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin")
	if !ok {
		return
	}

	roleID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role ID")
		return
	}

	var dto AssignPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	grant, err := h.Service.AssignPermissionToRole(roleID, dto.PermissionID, user.ID, dto.ExpiresAt)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) RemovePermissionFromRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin"); !ok {
		return
	}

	roleID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role ID")
		return
	}
	permissionID, err := h.pathID(r, "permissionID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid permission ID")
		return
	}

	if err := h.Service.RemovePermissionFromRole(roleID, permissionID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "permission removed from role"})
}

func (h *Handler) AssignRoleToUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin", "user_admin")
	if !ok {
		return
	}

	userID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	assignment, err := h.Service.AssignRoleToUser(userID, dto.RoleID, user.ID, dto.ExpiresAt)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) RemoveRoleFromUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "user_admin"); !ok {
		return
	}

	userID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	roleID, err := h.pathID(r, "roleID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role ID")
		return
	}

	if err := h.Service.RemoveRoleFromUser(userID, roleID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "role removed from user"})
}

func (h *Handler) BulkAssignRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin", "user_admin")
	if !ok {
		return
	}

	var dto BulkAssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	results := h.Service.BulkAssignRole(dto.UserIDs, dto.RoleID, user.ID, dto.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) BulkAssignPermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin")
	if !ok {
		return
	}

	var dto BulkAssignPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	results := h.Service.BulkAssignPermission(dto.RoleIDs, dto.PermissionID, user.ID, dto.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ---------------- Endpoint rules ----------------

func (h *Handler) CreateEndpointRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAny(w, r, "system_admin")
	if !ok {
		return
	}

	var dto CreateEndpointRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.Service.CreateEndpointRule(dto, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) ListEndpointRules(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	limit, offset := h.parsePagination(r)
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	rules, err := h.Service.GetEndpointRules(limit, offset, activeOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) UpdateEndpointRule(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin"); !ok {
		return
	}

	id, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	var dto UpdateEndpointRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.Service.UpdateEndpointRule(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rule)
}

// ---------------- Introspection ----------------

func (h *Handler) GetUserEffectiveAccess(w http.ResponseWriter, r *http.Request) {
	caller, ok := internal.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	// Users may inspect themselves; everything else needs admin reach.
	if userID != caller.ID && !caller.HasAnyPermission([]string{"system_admin", "user_admin", "system_read"}) {
		h.HandleServiceError(w, internal.ErrInsufficientAccess)
		return
	}

	roles, err := h.Service.EffectiveRoles(userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	permissions, err := h.Service.EffectivePermissions(userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, EffectiveAccessResponse{
		UserID:      userID,
		Roles:       roles.Values(),
		Permissions: permissions.Values(),
	})
}

func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin", "system_read"); !ok {
		return
	}

	var dto PermissionCheckDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	allowed, err := h.Service.CheckPermission(dto.UserID, dto.Resource, dto.Action, dto.ResourceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	checked := fmt.Sprintf("%s_%s", dto.Resource, dto.Action)
	h.WriteJSON(w, http.StatusOK, PermissionCheckResult{
		UserID:  dto.UserID,
		Allowed: allowed,
		Checked: checked,
	})
}

func (h *Handler) InitializeDefaults(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAny(w, r, "system_admin"); !ok {
		return
	}

	permissionsCreated, err := h.Service.InitializeDefaultPermissions()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	rolesCreated, err := h.Service.InitializeDefaultRoles()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int{
		"permissions_created": permissionsCreated,
		"roles_created":       rolesCreated,
	})
}

// RegisterRoutes mounts the access-control admin surface.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/access-control", func(r chi.Router) {
		r.Route("/permissions", func(r chi.Router) {
			r.Post("/", h.CreatePermission)
			r.Get("/", h.ListPermissions)
			r.Get("/{id}", h.GetPermission)
			r.Patch("/{id}", h.UpdatePermission)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Post("/", h.CreateRole)
			r.Get("/", h.ListRoles)
			r.Get("/{id}", h.GetRole)
			r.Patch("/{id}", h.UpdateRole)
			r.Post("/{id}/permissions", h.AssignPermissionToRole)
			r.Delete("/{id}/permissions/{permissionID}", h.RemovePermissionFromRole)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/{id}/roles", h.AssignRoleToUser)
			r.Delete("/{id}/roles/{roleID}", h.RemoveRoleFromUser)
			r.Get("/{id}/effective-access", h.GetUserEffectiveAccess)
		})

		r.Route("/endpoint-rules", func(r chi.Router) {
			r.Post("/", h.CreateEndpointRule)
			r.Get("/", h.ListEndpointRules)
			r.Patch("/{id}", h.UpdateEndpointRule)
		})

		r.Post("/bulk/assign-role", h.BulkAssignRole)
		r.Post("/bulk/assign-permission", h.BulkAssignPermission)
		r.Post("/check-permission", h.CheckPermission)
		r.Post("/initialize-defaults", h.InitializeDefaults)
	})
}
