package accesscontrol

import (
	"time"

	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

// Repository is the grant store: permissions, roles, the two grant shapes and
// the endpoint access rules.
type Repository interface {
	CreatePermission(p *acDatamodel.Permission) error
	GetPermissionByID(id int64) (*acDatamodel.Permission, error)
	GetPermissionByName(name string) (*acDatamodel.Permission, error)
	GetPermissionsByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Permission, error)
	ListPermissions(limit, offset int, activeOnly bool) ([]*acDatamodel.Permission, error)
	UpdatePermission(p *acDatamodel.Permission) error

	CreateRole(r *acDatamodel.Role) error
	GetRoleByID(id int64) (*acDatamodel.Role, error)
	GetRoleByName(name string) (*acDatamodel.Role, error)
	GetRolesByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Role, error)
	ListRoles(limit, offset int, activeOnly bool) ([]*acDatamodel.Role, error)
	UpdateRole(r *acDatamodel.Role) error

	CreateRolePermission(rp *acDatamodel.RolePermission) error
	FindEffectiveRolePermission(roleID, permissionID int64, now time.Time) (*acDatamodel.RolePermission, error)
	RolePermissionsForRoles(roleIDs []int64, now time.Time) ([]*acDatamodel.RolePermission, error)
	DeactivateRolePermission(id int64) error

	CreateUserRoleAssignment(ur *acDatamodel.UserRoleAssignment) error
	FindEffectiveUserRole(userID, roleID int64, now time.Time) (*acDatamodel.UserRoleAssignment, error)
	UserRoleAssignmentsForUser(userID int64, now time.Time) ([]*acDatamodel.UserRoleAssignment, error)
	DeactivateUserRoleAssignment(id int64) error

	GetActiveEndpointRule(path, method string) (*acDatamodel.EndpointAccessRule, error)
	CreateEndpointRule(rule *acDatamodel.EndpointAccessRule) error
	ListEndpointRules(limit, offset int, activeOnly bool) ([]*acDatamodel.EndpointAccessRule, error)
	GetEndpointRuleByID(id int64) (*acDatamodel.EndpointAccessRule, error)
	UpdateEndpointRule(rule *acDatamodel.EndpointAccessRule) error
}

// IdentityStore is the external identity collaborator: the evaluator only
// needs existence and the active flag.
type IdentityStore interface {
	GetUserByID(id int64) (*userDatamodel.User, error)
}

// StringSet is the result shape of the effective permission/role queries.
type StringSet map[string]struct{}

func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s StringSet) Values() []string {
	values := make([]string, 0, len(s))
	for name := range s {
		values = append(values, name)
	}
	return values
}

// BulkRoleAssignmentResult is the per-target outcome of a bulk role assign.
// A failed target never rolls back the others.
type BulkRoleAssignmentResult struct {
	UserID     int64  `json:"user_id"`
	Success    bool   `json:"success"`
	UserRoleID int64  `json:"user_role_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type BulkPermissionAssignmentResult struct {
	RoleID           int64  `json:"role_id"`
	Success          bool   `json:"success"`
	RolePermissionID int64  `json:"role_permission_id,omitempty"`
	Error            string `json:"error,omitempty"`
}
