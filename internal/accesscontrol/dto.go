package accesscontrol

import (
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

// CreatePermissionDTO is the request payload for registering a permission.
type CreatePermissionDTO struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description,omitempty"`
	ResourceType string `json:"resource_type" validate:"required"`
	Action       string `json:"action" validate:"required"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

func (dto CreatePermissionDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if dto.ResourceType == "" {
		return internal.NewValidationError("resource_type is required", internal.ErrCodeValidationFailed)
	}
	if dto.Action == "" {
		return internal.NewValidationError("action is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdatePermissionDTO struct {
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CreateRoleDTO struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description,omitempty"`
	IsSystemRole bool   `json:"is_system_role,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

func (dto CreateRoleDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateRoleDTO struct {
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AssignPermissionDTO grants one permission to one role, optionally expiring.
type AssignPermissionDTO struct {
	PermissionID int64      `json:"permission_id" validate:"required"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (dto AssignPermissionDTO) Validate() error {
	if dto.PermissionID <= 0 {
		return internal.NewValidationError("permission_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type AssignRoleDTO struct {
	RoleID    int64      `json:"role_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (dto AssignRoleDTO) Validate() error {
	if dto.RoleID <= 0 {
		return internal.NewValidationError("role_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type BulkAssignRoleDTO struct {
	UserIDs   []int64    `json:"user_ids" validate:"required,min=1"`
	RoleID    int64      `json:"role_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (dto BulkAssignRoleDTO) Validate() error {
	if len(dto.UserIDs) == 0 {
		return internal.NewValidationError("user_ids must not be empty", internal.ErrCodeValidationFailed)
	}
	if dto.RoleID <= 0 {
		return internal.NewValidationError("role_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type BulkAssignPermissionDTO struct {
	RoleIDs      []int64    `json:"role_ids" validate:"required,min=1"`
	PermissionID int64      `json:"permission_id" validate:"required"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (dto BulkAssignPermissionDTO) Validate() error {
	if len(dto.RoleIDs) == 0 {
		return internal.NewValidationError("role_ids must not be empty", internal.ErrCodeValidationFailed)
	}
	if dto.PermissionID <= 0 {
		return internal.NewValidationError("permission_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type CreateEndpointRuleDTO struct {
	EndpointPath        string                 `json:"endpoint_path" validate:"required"`
	HTTPMethod          string                 `json:"http_method" validate:"required"`
	RequiredPermissions acDatamodel.StringList `json:"required_permissions,omitempty"`
	RequiredRoles       acDatamodel.StringList `json:"required_roles,omitempty"`
	IsPublic            bool                   `json:"is_public,omitempty"`
}

func (dto CreateEndpointRuleDTO) Validate() error {
	if dto.EndpointPath == "" {
		return internal.NewValidationError("endpoint_path is required", internal.ErrCodeValidationFailed)
	}
	if dto.HTTPMethod == "" {
		return internal.NewValidationError("http_method is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateEndpointRuleDTO struct {
	RequiredPermissions acDatamodel.StringList `json:"required_permissions,omitempty"`
	RequiredRoles       acDatamodel.StringList `json:"required_roles,omitempty"`
	IsPublic            *bool                  `json:"is_public,omitempty"`
	IsActive            *bool                  `json:"is_active,omitempty"`
}

// PermissionCheckDTO is the introspection payload: "would this user pass the
// tiered check for resource/action".
type PermissionCheckDTO struct {
	UserID     int64  `json:"user_id" validate:"required"`
	Resource   string `json:"resource" validate:"required"`
	Action     string `json:"action" validate:"required"`
	ResourceID string `json:"resource_id,omitempty"`
}

func (dto PermissionCheckDTO) Validate() error {
	if dto.UserID <= 0 {
		return internal.NewValidationError("user_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.Resource == "" {
		return internal.NewValidationError("resource is required", internal.ErrCodeValidationFailed)
	}
	if dto.Action == "" {
		return internal.NewValidationError("action is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type PermissionCheckResult struct {
	UserID  int64  `json:"user_id"`
	Allowed bool   `json:"allowed"`
	Checked string `json:"checked"`
}

type EffectiveAccessResponse struct {
	UserID      int64    `json:"user_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}
