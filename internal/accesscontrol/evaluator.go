package accesscontrol

import (
	"fmt"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
)

// EffectiveRoles resolves the role names a user holds right now: assignments
// that are active and unexpired, pointing at roles that are themselves active.
// The store is read on every call; there is no cache to invalidate, so a
// revoked grant stops counting on the next request.
func (s *Service) EffectiveRoles(userID int64) (StringSet, error) {
	now := time.Now()

	assignments, err := s.repo.UserRoleAssignmentsForUser(userID, now)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user role assignments", err)
	}

	roleIDs := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if a.Effective(now) {
			roleIDs = append(roleIDs, a.RoleID)
		}
	}

	names := make(StringSet, len(roleIDs))
	if len(roleIDs) == 0 {
		return names, nil
	}

	roles, err := s.repo.GetRolesByIDs(roleIDs, true)
	if err != nil {
		return nil, internal.NewInternalError("failed to load roles", err)
	}
	for _, r := range roles {
		names[r.Name] = struct{}{}
	}
	return names, nil
}

// EffectivePermissions resolves the permission names reachable from a user's
// effective roles. Every hop in the chain must be active, and both grant
// shapes must be unexpired.
func (s *Service) EffectivePermissions(userID int64) (StringSet, error) {
	now := time.Now()

	assignments, err := s.repo.UserRoleAssignmentsForUser(userID, now)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user role assignments", err)
	}

	roleIDs := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if a.Effective(now) {
			roleIDs = append(roleIDs, a.RoleID)
		}
	}

	permissions := make(StringSet)
	if len(roleIDs) == 0 {
		return permissions, nil
	}

	activeRoles, err := s.repo.GetRolesByIDs(roleIDs, true)
	if err != nil {
		return nil, internal.NewInternalError("failed to load roles", err)
	}
	activeRoleIDs := make([]int64, 0, len(activeRoles))
	for _, r := range activeRoles {
		activeRoleIDs = append(activeRoleIDs, r.ID)
	}
	if len(activeRoleIDs) == 0 {
		return permissions, nil
	}

	grants, err := s.repo.RolePermissionsForRoles(activeRoleIDs, now)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role permissions", err)
	}

	permissionIDs := make([]int64, 0, len(grants))
	for _, g := range grants {
		if g.Effective(now) {
			permissionIDs = append(permissionIDs, g.PermissionID)
		}
	}
	if len(permissionIDs) == 0 {
		return permissions, nil
	}

	perms, err := s.repo.GetPermissionsByIDs(permissionIDs, true)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}
	for _, p := range perms {
		permissions[p.Name] = struct{}{}
	}
	return permissions, nil
}

// CheckPermission runs the tiered lookup for a resource/action pair. Tiers are
// tried most-specific first:
//
//	{resource}_{action}_{resourceID}   instance scope, only when resourceID set
//	{resource}_{action}                type scope
//	{resource}_admin                   resource-admin override
//
// Any store failure denies: a broken grant store must never grant access.
func (s *Service) CheckPermission(userID int64, resource, action, resourceID string) (bool, error) {
	permissions, err := s.EffectivePermissions(userID)
	if err != nil {
		return false, err
	}

	if resourceID != "" {
		if permissions.Has(fmt.Sprintf("%s_%s_%s", resource, action, resourceID)) {
			return true, nil
		}
	}
	if permissions.Has(fmt.Sprintf("%s_%s", resource, action)) {
		return true, nil
	}
	if permissions.Has(fmt.Sprintf("%s_admin", resource)) {
		return true, nil
	}
	return false, nil
}

// CheckEndpointAccess applies the endpoint registry to an already-resolved
// identity. Unregistered endpoints are allowed: the registry is an opt-in
// restriction layer on top of the tiered checks, not a second gate for every
// route.
func (s *Service) CheckEndpointAccess(user *internal.CurrentUser, path, method string) (bool, error) {
	rule, err := s.repo.GetActiveEndpointRule(path, method)
	if err != nil {
		return false, internal.NewInternalError("failed to load endpoint rule", err)
	}
	if rule == nil {
		return true, nil
	}
	if rule.IsPublic {
		return true, nil
	}

	if len(rule.RequiredPermissions) > 0 {
		for _, required := range rule.RequiredPermissions {
			if user.HasPermission(required) {
				return true, nil
			}
		}
	}

	if len(rule.RequiredRoles) > 0 {
		for _, required := range rule.RequiredRoles {
			for _, held := range user.Roles {
				if held == required {
					return true, nil
				}
			}
			if user.Role == required {
				return true, nil
			}
		}
	}

	// A rule with no requirements restricts nothing.
	if len(rule.RequiredPermissions) == 0 && len(rule.RequiredRoles) == 0 {
		return true, nil
	}
	return false, nil
}

// ResolveCurrentUser builds the request identity the gate stores in the
// context: the base record plus the effective roles and permissions.
func (s *Service) ResolveCurrentUser(userID int64) (*internal.CurrentUser, error) {
	user, err := s.identity.GetUserByID(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	roles, err := s.EffectiveRoles(userID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.EffectivePermissions(userID)
	if err != nil {
		return nil, err
	}

	return &internal.CurrentUser{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role.String(),
		Roles:       roles.Values(),
		Permissions: permissions.Values(),
	}, nil
}
