package accesscontrol

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

// Service owns grant management and the authorization evaluator. It reads the
// grant store uncached on every call so concurrent grant changes are visible
// on the very next request.
type Service struct {
	repo     Repository
	identity IdentityStore
	logger   *slog.Logger
}

func NewService(repo Repository, identity IdentityStore, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		logger:   logger,
	}
}

// ---------------- Permission management ----------------

func (s *Service) CreatePermission(dto CreatePermissionDTO, createdBy int64) (*acDatamodel.Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetPermissionByName(dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up permission", err)
	}
	if existing != nil {
		return nil, internal.ErrPermissionExists
	}

	permission := &acDatamodel.Permission{
		Name:         dto.Name,
		Description:  dto.Description,
		ResourceType: acDatamodel.ResourceType(dto.ResourceType),
		Action:       acDatamodel.Action(dto.Action),
		IsActive:     dto.IsActive == nil || *dto.IsActive,
	}

	if err := s.repo.CreatePermission(permission); err != nil {
		s.logger.Error("failed to create permission", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create permission", err)
	}

	s.logger.Info("permission created", "name", permission.Name, "created_by", createdBy)
	return permission, nil
}

func (s *Service) GetPermissions(limit, offset int, activeOnly bool) ([]*acDatamodel.Permission, error) {
	permissions, err := s.repo.ListPermissions(limit, offset, activeOnly)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return permissions, nil
}

func (s *Service) GetPermissionByID(id int64) (*acDatamodel.Permission, error) {
	permission, err := s.repo.GetPermissionByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get permission", err)
	}
	if permission == nil {
		return nil, internal.ErrPermissionNotFound
	}
	return permission, nil
}

func (s *Service) UpdatePermission(id int64, dto UpdatePermissionDTO) (*acDatamodel.Permission, error) {
	permission, err := s.GetPermissionByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Description != nil {
		permission.Description = *dto.Description
	}
	if dto.IsActive != nil {
		permission.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdatePermission(permission); err != nil {
		s.logger.Error("failed to update permission", "error", err, "permission_id", id)
		return nil, internal.NewInternalError("failed to update permission", err)
	}
	return permission, nil
}

// ---------------- Role management ----------------

func (s *Service) CreateRole(dto CreateRoleDTO, createdBy int64) (*acDatamodel.Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetRoleByName(dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if existing != nil {
		return nil, internal.ErrRoleExists
	}

	role := &acDatamodel.Role{
		Name:         dto.Name,
		Description:  dto.Description,
		IsSystemRole: dto.IsSystemRole,
		IsActive:     dto.IsActive == nil || *dto.IsActive,
	}

	if err := s.repo.CreateRole(role); err != nil {
		s.logger.Error("failed to create role", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "name", role.Name, "created_by", createdBy)
	return role, nil
}

func (s *Service) GetRoles(limit, offset int, activeOnly bool) ([]*acDatamodel.Role, error) {
	roles, err := s.repo.ListRoles(limit, offset, activeOnly)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) GetRoleByID(id int64) (*acDatamodel.Role, error) {
	role, err := s.repo.GetRoleByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get role", err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}
	return role, nil
}

func (s *Service) UpdateRole(id int64, dto UpdateRoleDTO) (*acDatamodel.Role, error) {
	role, err := s.GetRoleByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Description != nil {
		role.Description = *dto.Description
	}
	if dto.IsActive != nil {
		role.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateRole(role); err != nil {
		s.logger.Error("failed to update role", "error", err, "role_id", id)
		return nil, internal.NewInternalError("failed to update role", err)
	}
	return role, nil
}

// ---------------- Grants ----------------

// AssignPermissionToRole inserts a role-permission grant. Conflict when an
// effective grant already links the pair.
func (s *Service) AssignPermissionToRole(roleID, permissionID, grantedBy int64, expiresAt *time.Time) (*acDatamodel.RolePermission, error) {
	role, err := s.repo.GetRoleByID(roleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	permission, err := s.repo.GetPermissionByID(permissionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up permission", err)
	}
	if permission == nil {
		return nil, internal.ErrPermissionNotFound
	}

	existing, err := s.repo.FindEffectiveRolePermission(roleID, permissionID, time.Now())
	if err != nil {
		return nil, internal.NewInternalError("failed to look up existing grant", err)
	}
	if existing != nil {
		return nil, internal.ErrGrantExists
	}

	grant := &acDatamodel.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
		GrantedBy:    &grantedBy,
		GrantedAt:    time.Now(),
		ExpiresAt:    expiresAt,
		IsActive:     true,
	}

	if err := s.repo.CreateRolePermission(grant); err != nil {
		s.logger.Error("failed to assign permission to role", "error", err, "role_id", roleID, "permission_id", permissionID)
		return nil, internal.NewInternalError("failed to assign permission to role", err)
	}

	s.logger.Info("permission assigned to role",
		"permission", permission.Name,
		"role", role.Name,
		"granted_by", grantedBy)
	return grant, nil
}

// RemovePermissionFromRole soft-revokes the effective grant; the row stays.
func (s *Service) RemovePermissionFromRole(roleID, permissionID int64) error {
	grant, err := s.repo.FindEffectiveRolePermission(roleID, permissionID, time.Now())
	if err != nil {
		return internal.NewInternalError("failed to look up grant", err)
	}
	if grant == nil {
		return internal.ErrGrantNotFound
	}

	if err := s.repo.DeactivateRolePermission(grant.ID); err != nil {
		s.logger.Error("failed to revoke role permission", "error", err, "grant_id", grant.ID)
		return internal.NewInternalError("failed to revoke grant", err)
	}

	s.logger.Info("permission removed from role", "role_id", roleID, "permission_id", permissionID)
	return nil
}

func (s *Service) AssignRoleToUser(userID, roleID, assignedBy int64, expiresAt *time.Time) (*acDatamodel.UserRoleAssignment, error) {
	user, err := s.identity.GetUserByID(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}

	role, err := s.repo.GetRoleByID(roleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	existing, err := s.repo.FindEffectiveUserRole(userID, roleID, time.Now())
	if err != nil {
		return nil, internal.NewInternalError("failed to look up existing assignment", err)
	}
	if existing != nil {
		return nil, internal.ErrGrantExists
	}

	assignment := &acDatamodel.UserRoleAssignment{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: &assignedBy,
		AssignedAt: time.Now(),
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}

	if err := s.repo.CreateUserRoleAssignment(assignment); err != nil {
		s.logger.Error("failed to assign role to user", "error", err, "user_id", userID, "role_id", roleID)
		return nil, internal.NewInternalError("failed to assign role to user", err)
	}

	s.logger.Info("role assigned to user",
		"role", role.Name,
		"user_id", userID,
		"assigned_by", assignedBy)
	return assignment, nil
}

func (s *Service) RemoveRoleFromUser(userID, roleID int64) error {
	assignment, err := s.repo.FindEffectiveUserRole(userID, roleID, time.Now())
	if err != nil {
		return internal.NewInternalError("failed to look up assignment", err)
	}
	if assignment == nil {
		return internal.ErrGrantNotFound
	}

	if err := s.repo.DeactivateUserRoleAssignment(assignment.ID); err != nil {
		s.logger.Error("failed to revoke user role", "error", err, "assignment_id", assignment.ID)
		return internal.NewInternalError("failed to revoke assignment", err)
	}

	s.logger.Info("role removed from user", "user_id", userID, "role_id", roleID)
	return nil
}

// BulkAssignRole processes every target independently: one bad user id does
// not roll back grants that already succeeded.
func (s *Service) BulkAssignRole(userIDs []int64, roleID, assignedBy int64, expiresAt *time.Time) []BulkRoleAssignmentResult {
	results := make([]BulkRoleAssignmentResult, 0, len(userIDs))
	for _, userID := range userIDs {
		assignment, err := s.AssignRoleToUser(userID, roleID, assignedBy, expiresAt)
		if err != nil {
			results = append(results, BulkRoleAssignmentResult{UserID: userID, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkRoleAssignmentResult{UserID: userID, Success: true, UserRoleID: assignment.ID})
	}
	return results
}

func (s *Service) BulkAssignPermission(roleIDs []int64, permissionID, grantedBy int64, expiresAt *time.Time) []BulkPermissionAssignmentResult {
	results := make([]BulkPermissionAssignmentResult, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		grant, err := s.AssignPermissionToRole(roleID, permissionID, grantedBy, expiresAt)
		if err != nil {
			results = append(results, BulkPermissionAssignmentResult{RoleID: roleID, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkPermissionAssignmentResult{RoleID: roleID, Success: true, RolePermissionID: grant.ID})
	}
	return results
}

// ---------------- Endpoint access rules ----------------

func (s *Service) CreateEndpointRule(dto CreateEndpointRuleDTO, createdBy int64) (*acDatamodel.EndpointAccessRule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rule := &acDatamodel.EndpointAccessRule{
		EndpointPath:        dto.EndpointPath,
		HTTPMethod:          dto.HTTPMethod,
		RequiredPermissions: dto.RequiredPermissions,
		RequiredRoles:       dto.RequiredRoles,
		IsPublic:            dto.IsPublic,
		IsActive:            true,
	}

	if err := s.repo.CreateEndpointRule(rule); err != nil {
		s.logger.Error("failed to create endpoint rule", "error", err, "path", dto.EndpointPath)
		return nil, internal.NewInternalError("failed to create endpoint rule", err)
	}

	s.logger.Info("endpoint rule created", "path", rule.EndpointPath, "method", rule.HTTPMethod, "created_by", createdBy)
	return rule, nil
}

func (s *Service) GetEndpointRules(limit, offset int, activeOnly bool) ([]*acDatamodel.EndpointAccessRule, error) {
	rules, err := s.repo.ListEndpointRules(limit, offset, activeOnly)
	if err != nil {
		s.logger.Error("failed to list endpoint rules", "error", err)
		return nil, internal.NewInternalError("failed to list endpoint rules", err)
	}
	return rules, nil
}

func (s *Service) UpdateEndpointRule(id int64, dto UpdateEndpointRuleDTO) (*acDatamodel.EndpointAccessRule, error) {
	rule, err := s.repo.GetEndpointRuleByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get endpoint rule", err)
	}
	if rule == nil {
		return nil, internal.NewNotFoundError("Endpoint rule not found", internal.ErrCodeGrantNotFound)
	}

	if dto.RequiredPermissions != nil {
		rule.RequiredPermissions = dto.RequiredPermissions
	}
	if dto.RequiredRoles != nil {
		rule.RequiredRoles = dto.RequiredRoles
	}
	if dto.IsPublic != nil {
		rule.IsPublic = *dto.IsPublic
	}
	if dto.IsActive != nil {
		rule.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateEndpointRule(rule); err != nil {
		s.logger.Error("failed to update endpoint rule", "error", err, "rule_id", id)
		return nil, internal.NewInternalError("failed to update endpoint rule", err)
	}
	return rule, nil
}

// ---------------- Bootstrap ----------------

type defaultPermission struct {
	Name         string
	Description  string
	ResourceType acDatamodel.ResourceType
	Action       acDatamodel.Action
}

var defaultPermissions = []defaultPermission{
	{"user_read", "Read user data", acDatamodel.ResourceUser, acDatamodel.ActionRead},
	{"user_write", "Create/update user data", acDatamodel.ResourceUser, acDatamodel.ActionWrite},
	{"user_delete", "Delete user data", acDatamodel.ResourceUser, acDatamodel.ActionDelete},
	{"user_admin", "Full user administration", acDatamodel.ResourceUser, acDatamodel.ActionAdmin},

	{"college_read", "Read college data", acDatamodel.ResourceCollege, acDatamodel.ActionRead},
	{"college_write", "Create/update college data", acDatamodel.ResourceCollege, acDatamodel.ActionWrite},
	{"college_approve", "Approve college data", acDatamodel.ResourceCollege, acDatamodel.ActionApprove},
	{"college_verify", "Verify college data", acDatamodel.ResourceCollege, acDatamodel.ActionVerify},
	{"college_admin", "Full college administration", acDatamodel.ResourceCollege, acDatamodel.ActionAdmin},

	{"student_read", "Read student data", acDatamodel.ResourceStudent, acDatamodel.ActionRead},
	{"student_write", "Create/update student data", acDatamodel.ResourceStudent, acDatamodel.ActionWrite},
	{"student_verify", "Verify student data", acDatamodel.ResourceStudent, acDatamodel.ActionVerify},
	{"student_admin", "Full student administration", acDatamodel.ResourceStudent, acDatamodel.ActionAdmin},

	{"system_admin", "Full system administration", acDatamodel.ResourceSystem, acDatamodel.ActionAdmin},
	{"system_read", "Read system data", acDatamodel.ResourceSystem, acDatamodel.ActionRead},
}

type defaultRole struct {
	Name        string
	Description string
}

var defaultRoles = []defaultRole{
	{"super_admin", "Super Administrator with full access"},
	{"admin", "Administrator with management access"},
	{"college_admin", "College Administrator"},
	{"student", "Student user"},
	{"viewer", "Read-only user"},
}

// InitializeDefaultPermissions seeds the well-known permission set. Safe to
// call repeatedly: existing names are skipped.
func (s *Service) InitializeDefaultPermissions() (int, error) {
	created := 0
	for _, dp := range defaultPermissions {
		existing, err := s.repo.GetPermissionByName(dp.Name)
		if err != nil {
			return created, internal.NewInternalError("failed to look up permission", err)
		}
		if existing != nil {
			continue
		}

		permission := &acDatamodel.Permission{
			Name:         dp.Name,
			Description:  dp.Description,
			ResourceType: dp.ResourceType,
			Action:       dp.Action,
			IsActive:     true,
		}
		if err := s.repo.CreatePermission(permission); err != nil {
			return created, internal.NewInternalError("failed to create default permission", err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("default permissions initialized", "created", created)
	}
	return created, nil
}

func (s *Service) InitializeDefaultRoles() (int, error) {
	created := 0
	for _, dr := range defaultRoles {
		existing, err := s.repo.GetRoleByName(dr.Name)
		if err != nil {
			return created, internal.NewInternalError("failed to look up role", err)
		}
		if existing != nil {
			continue
		}

		role := &acDatamodel.Role{
			Name:         dr.Name,
			Description:  dr.Description,
			IsSystemRole: true,
			IsActive:     true,
		}
		if err := s.repo.CreateRole(role); err != nil {
			return created, internal.NewInternalError("failed to create default role", err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("default roles initialized", "created", created)
	}
	return created, nil
}
