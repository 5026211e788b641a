package accesscontrol_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/admission-portal/internal"
	"github.com/frahmantamala/admission-portal/internal/accesscontrol"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

func TestAccessControl(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AccessControl Suite")
}

// Mock grant store for testing
type mockRepository struct {
	permissions     map[int64]*acDatamodel.Permission
	roles           map[int64]*acDatamodel.Role
	rolePermissions map[int64]*acDatamodel.RolePermission
	userRoles       map[int64]*acDatamodel.UserRoleAssignment
	endpointRules   []*acDatamodel.EndpointAccessRule

	failWith error

	nextPermissionID int64
	nextRoleID       int64
	nextGrantID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		permissions:      make(map[int64]*acDatamodel.Permission),
		roles:            make(map[int64]*acDatamodel.Role),
		rolePermissions:  make(map[int64]*acDatamodel.RolePermission),
		userRoles:        make(map[int64]*acDatamodel.UserRoleAssignment),
		nextPermissionID: 1,
		nextRoleID:       1,
		nextGrantID:      1,
	}
}

func (m *mockRepository) CreatePermission(p *acDatamodel.Permission) error {
	if m.failWith != nil {
		return m.failWith
	}
	p.ID = m.nextPermissionID
	m.nextPermissionID++
	m.permissions[p.ID] = p
	return nil
}

func (m *mockRepository) GetPermissionByID(id int64) (*acDatamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.permissions[id], nil
}

func (m *mockRepository) GetPermissionByName(name string) (*acDatamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, p := range m.permissions {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) GetPermissionsByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.Permission
	for _, id := range ids {
		p, ok := m.permissions[id]
		if !ok {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepository) ListPermissions(limit, offset int, activeOnly bool) ([]*acDatamodel.Permission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.Permission
	for _, p := range m.permissions {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepository) UpdatePermission(p *acDatamodel.Permission) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.permissions[p.ID] = p
	return nil
}

func (m *mockRepository) CreateRole(r *acDatamodel.Role) error {
	if m.failWith != nil {
		return m.failWith
	}
	r.ID = m.nextRoleID
	m.nextRoleID++
	m.roles[r.ID] = r
	return nil
}

func (m *mockRepository) GetRoleByID(id int64) (*acDatamodel.Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.roles[id], nil
}

func (m *mockRepository) GetRoleByName(name string) (*acDatamodel.Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, r := range m.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) GetRolesByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.Role
	for _, id := range ids {
		r, ok := m.roles[id]
		if !ok {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepository) ListRoles(limit, offset int, activeOnly bool) ([]*acDatamodel.Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.Role
	for _, r := range m.roles {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepository) UpdateRole(r *acDatamodel.Role) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.roles[r.ID] = r
	return nil
}

func (m *mockRepository) CreateRolePermission(rp *acDatamodel.RolePermission) error {
	if m.failWith != nil {
		return m.failWith
	}
	rp.ID = m.nextGrantID
	m.nextGrantID++
	m.rolePermissions[rp.ID] = rp
	return nil
}

func (m *mockRepository) FindEffectiveRolePermission(roleID, permissionID int64, now time.Time) (*acDatamodel.RolePermission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, rp := range m.rolePermissions {
		if rp.RoleID == roleID && rp.PermissionID == permissionID && rp.Effective(now) {
			return rp, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) RolePermissionsForRoles(roleIDs []int64, now time.Time) ([]*acDatamodel.RolePermission, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.RolePermission
	for _, rp := range m.rolePermissions {
		for _, roleID := range roleIDs {
			if rp.RoleID == roleID && rp.Effective(now) {
				out = append(out, rp)
			}
		}
	}
	return out, nil
}

func (m *mockRepository) DeactivateRolePermission(id int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	if rp, ok := m.rolePermissions[id]; ok {
		rp.IsActive = false
	}
	return nil
}

func (m *mockRepository) CreateUserRoleAssignment(ur *acDatamodel.UserRoleAssignment) error {
	if m.failWith != nil {
		return m.failWith
	}
	ur.ID = m.nextGrantID
	m.nextGrantID++
	m.userRoles[ur.ID] = ur
	return nil
}

func (m *mockRepository) FindEffectiveUserRole(userID, roleID int64, now time.Time) (*acDatamodel.UserRoleAssignment, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, ur := range m.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID && ur.Effective(now) {
			return ur, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) UserRoleAssignmentsForUser(userID int64, now time.Time) ([]*acDatamodel.UserRoleAssignment, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.UserRoleAssignment
	for _, ur := range m.userRoles {
		if ur.UserID == userID && ur.Effective(now) {
			out = append(out, ur)
		}
	}
	return out, nil
}

func (m *mockRepository) DeactivateUserRoleAssignment(id int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	if ur, ok := m.userRoles[id]; ok {
		ur.IsActive = false
	}
	return nil
}

func (m *mockRepository) GetActiveEndpointRule(path, method string) (*acDatamodel.EndpointAccessRule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, rule := range m.endpointRules {
		if rule.EndpointPath == path && rule.HTTPMethod == method && rule.IsActive {
			return rule, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateEndpointRule(rule *acDatamodel.EndpointAccessRule) error {
	if m.failWith != nil {
		return m.failWith
	}
	rule.ID = m.nextGrantID
	m.nextGrantID++
	m.endpointRules = append(m.endpointRules, rule)
	return nil
}

func (m *mockRepository) ListEndpointRules(limit, offset int, activeOnly bool) ([]*acDatamodel.EndpointAccessRule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.EndpointAccessRule
	for _, rule := range m.endpointRules {
		if activeOnly && !rule.IsActive {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

func (m *mockRepository) GetEndpointRuleByID(id int64) (*acDatamodel.EndpointAccessRule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, rule := range m.endpointRules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) UpdateEndpointRule(rule *acDatamodel.EndpointAccessRule) error {
	if m.failWith != nil {
		return m.failWith
	}
	for i, existing := range m.endpointRules {
		if existing.ID == rule.ID {
			m.endpointRules[i] = rule
		}
	}
	return nil
}

type mockIdentityStore struct {
	users    map[int64]*userDatamodel.User
	failWith error
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{users: make(map[int64]*userDatamodel.User)}
}

func (m *mockIdentityStore) GetUserByID(id int64) (*userDatamodel.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.users[id], nil
}

var _ = Describe("AccessControlService", func() {
	var (
		repo     *mockRepository
		identity *mockIdentityStore
		service  *accesscontrol.Service
		lg       *slog.Logger
	)

	BeforeEach(func() {
		repo = newMockRepository()
		identity = newMockIdentityStore()
		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = accesscontrol.NewService(repo, identity, lg)

		identity.users[1] = &userDatamodel.User{ID: 1, Email: "admin@portal.test", Role: userDatamodel.RoleAdmin, IsActive: true}
		identity.users[2] = &userDatamodel.User{ID: 2, Email: "student@portal.test", Role: userDatamodel.RoleStudent, IsActive: true}
	})

	// grantPermission wires user -> role -> permission through the store.
	grantPermission := func(userID int64, permissionName string) {
		permission := &acDatamodel.Permission{Name: permissionName, ResourceType: acDatamodel.ResourceStudent, Action: acDatamodel.ActionRead, IsActive: true}
		Expect(repo.CreatePermission(permission)).To(Succeed())

		role := &acDatamodel.Role{Name: permissionName + "_holder", IsActive: true}
		Expect(repo.CreateRole(role)).To(Succeed())

		Expect(repo.CreateRolePermission(&acDatamodel.RolePermission{
			RoleID: role.ID, PermissionID: permission.ID, GrantedAt: time.Now(), IsActive: true,
		})).To(Succeed())

		Expect(repo.CreateUserRoleAssignment(&acDatamodel.UserRoleAssignment{
			UserID: userID, RoleID: role.ID, AssignedAt: time.Now(), IsActive: true,
		})).To(Succeed())
	}

	Describe("CreatePermission", func() {
		It("creates a permission with active defaulting to true", func() {
			permission, err := service.CreatePermission(accesscontrol.CreatePermissionDTO{
				Name:         "student_read",
				ResourceType: "student",
				Action:       "read",
			}, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(permission.ID).NotTo(BeZero())
			Expect(permission.IsActive).To(BeTrue())
		})

		It("rejects a duplicate name with a conflict", func() {
			_, err := service.CreatePermission(accesscontrol.CreatePermissionDTO{
				Name: "student_read", ResourceType: "student", Action: "read",
			}, 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreatePermission(accesscontrol.CreatePermissionDTO{
				Name: "student_read", ResourceType: "student", Action: "read",
			}, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
		})

		It("rejects a payload without a name", func() {
			_, err := service.CreatePermission(accesscontrol.CreatePermissionDTO{
				ResourceType: "student", Action: "read",
			}, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("AssignRoleToUser", func() {
		var role *acDatamodel.Role

		BeforeEach(func() {
			role = &acDatamodel.Role{Name: "viewer", IsActive: true}
			Expect(repo.CreateRole(role)).To(Succeed())
		})

		It("creates an active assignment", func() {
			assignment, err := service.AssignRoleToUser(2, role.ID, 1, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(assignment.UserID).To(Equal(int64(2)))
			Expect(assignment.IsActive).To(BeTrue())
			Expect(*assignment.AssignedBy).To(Equal(int64(1)))
		})

		It("conflicts when an effective assignment already exists", func() {
			_, err := service.AssignRoleToUser(2, role.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AssignRoleToUser(2, role.ID, 1, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
		})

		It("allows re-assignment after the previous grant was revoked", func() {
			assignment, err := service.AssignRoleToUser(2, role.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.DeactivateUserRoleAssignment(assignment.ID)).To(Succeed())

			_, err = service.AssignRoleToUser(2, role.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("allows re-assignment after the previous grant expired", func() {
			expired := time.Now().Add(-time.Hour)
			Expect(repo.CreateUserRoleAssignment(&acDatamodel.UserRoleAssignment{
				UserID: 2, RoleID: role.ID, AssignedAt: time.Now().Add(-2 * time.Hour),
				ExpiresAt: &expired, IsActive: true,
			})).To(Succeed())

			_, err := service.AssignRoleToUser(2, role.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns not found for an unknown user", func() {
			_, err := service.AssignRoleToUser(99, role.ID, 1, nil)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("returns not found for an unknown role", func() {
			_, err := service.AssignRoleToUser(2, 999, 1, nil)
			Expect(err).To(Equal(internal.ErrRoleNotFound))
		})
	})

	Describe("RemoveRoleFromUser", func() {
		It("soft-revokes the assignment so history survives", func() {
			role := &acDatamodel.Role{Name: "viewer", IsActive: true}
			Expect(repo.CreateRole(role)).To(Succeed())
			assignment, err := service.AssignRoleToUser(2, role.ID, 1, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.RemoveRoleFromUser(2, role.ID)).To(Succeed())

			Expect(repo.userRoles[assignment.ID]).NotTo(BeNil())
			Expect(repo.userRoles[assignment.ID].IsActive).To(BeFalse())
		})

		It("returns not found when no effective assignment exists", func() {
			err := service.RemoveRoleFromUser(2, 42)
			Expect(err).To(Equal(internal.ErrGrantNotFound))
		})
	})

	Describe("BulkAssignRole", func() {
		It("reports per-target outcomes without rolling back successes", func() {
			role := &acDatamodel.Role{Name: "viewer", IsActive: true}
			Expect(repo.CreateRole(role)).To(Succeed())

			results := service.BulkAssignRole([]int64{2, 99, 1}, role.ID, 1, nil)

			Expect(results).To(HaveLen(3))
			Expect(results[0].Success).To(BeTrue())
			Expect(results[1].Success).To(BeFalse())
			Expect(results[1].Error).NotTo(BeEmpty())
			Expect(results[2].Success).To(BeTrue())

			// The failed middle target did not undo the first grant.
			roles, err := service.EffectiveRoles(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles.Has("viewer")).To(BeTrue())
		})
	})

	Describe("EffectivePermissions", func() {
		It("resolves permissions through active roles only", func() {
			grantPermission(2, "student_read")

			permissions, err := service.EffectivePermissions(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.Has("student_read")).To(BeTrue())
		})

		It("drops permissions reached through a deactivated role", func() {
			grantPermission(2, "student_read")
			for _, r := range repo.roles {
				r.IsActive = false
			}

			permissions, err := service.EffectivePermissions(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.Has("student_read")).To(BeFalse())
		})

		It("drops permissions whose grant has expired", func() {
			grantPermission(2, "student_read")
			expired := time.Now().Add(-time.Minute)
			for _, rp := range repo.rolePermissions {
				rp.ExpiresAt = &expired
			}

			permissions, err := service.EffectivePermissions(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.Has("student_read")).To(BeFalse())
		})

		It("drops deactivated permissions even when the grant is live", func() {
			grantPermission(2, "student_read")
			for _, p := range repo.permissions {
				p.IsActive = false
			}

			permissions, err := service.EffectivePermissions(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.Has("student_read")).To(BeFalse())
		})

		It("returns an empty set for a user with no grants", func() {
			permissions, err := service.EffectivePermissions(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions).To(BeEmpty())
		})
	})

	Describe("CheckPermission", func() {
		It("matches the exact resource_action permission", func() {
			grantPermission(2, "student_read")

			allowed, err := service.CheckPermission(2, "student", "read", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("matches the instance-scoped permission when a resource id is given", func() {
			grantPermission(2, "student_read_42")

			allowed, err := service.CheckPermission(2, "student", "read", "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = service.CheckPermission(2, "student", "read", "43")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("falls through to the resource admin permission", func() {
			grantPermission(2, "student_admin")

			allowed, err := service.CheckPermission(2, "student", "delete", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("denies when no tier matches", func() {
			grantPermission(2, "college_read")

			allowed, err := service.CheckPermission(2, "student", "read", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("fails closed when the grant store errors", func() {
			repo.failWith = errors.New("connection refused")

			allowed, err := service.CheckPermission(2, "student", "read", "")
			Expect(err).To(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("CheckEndpointAccess", func() {
		var user *internal.CurrentUser

		BeforeEach(func() {
			user = &internal.CurrentUser{
				ID: 2, Role: "student",
				Roles:       []string{"student"},
				Permissions: []string{"student_read"},
			}
		})

		It("allows unregistered endpoints", func() {
			allowed, err := service.CheckEndpointAccess(user, "/api/v1/anything", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("allows public endpoints regardless of identity", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/colleges", HTTPMethod: "GET", IsPublic: true, IsActive: true,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/colleges", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("allows when the user holds any required permission", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/students", HTTPMethod: "GET",
				RequiredPermissions: acDatamodel.StringList{"student_read", "student_admin"},
				IsActive:            true,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/students", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("allows when the user holds any required role", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/students", HTTPMethod: "POST",
				RequiredRoles: acDatamodel.StringList{"student"},
				IsActive:      true,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/students", "POST")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("denies when requirements exist and none are met", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/admin", HTTPMethod: "GET",
				RequiredPermissions: acDatamodel.StringList{"system_admin"},
				RequiredRoles:       acDatamodel.StringList{"super_admin"},
				IsActive:            true,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/admin", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("allows when a rule exists but restricts nothing", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/open", HTTPMethod: "GET", IsActive: true,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/open", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("ignores inactive rules", func() {
			Expect(repo.CreateEndpointRule(&acDatamodel.EndpointAccessRule{
				EndpointPath: "/api/v1/legacy", HTTPMethod: "GET",
				RequiredRoles: acDatamodel.StringList{"super_admin"},
				IsActive:      false,
			})).To(Succeed())

			allowed, err := service.CheckEndpointAccess(user, "/api/v1/legacy", "GET")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})
	})

	Describe("ResolveCurrentUser", func() {
		It("builds the identity with effective roles and permissions", func() {
			grantPermission(2, "student_read")

			current, err := service.ResolveCurrentUser(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.ID).To(Equal(int64(2)))
			Expect(current.Role).To(Equal("student"))
			Expect(current.Permissions).To(ContainElement("student_read"))
		})

		It("rejects an inactive user", func() {
			identity.users[2].IsActive = false

			_, err := service.ResolveCurrentUser(2)
			Expect(err).To(Equal(internal.ErrUserInactive))
		})

		It("rejects an unknown user", func() {
			_, err := service.ResolveCurrentUser(77)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})

	Describe("InitializeDefaultPermissions", func() {
		It("seeds the default set and is idempotent", func() {
			created, err := service.InitializeDefaultPermissions()
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeNumerically(">", 0))

			again, err := service.InitializeDefaultPermissions()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(BeZero())
		})
	})

	Describe("InitializeDefaultRoles", func() {
		It("seeds system roles and is idempotent", func() {
			created, err := service.InitializeDefaultRoles()
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(5))

			again, err := service.InitializeDefaultRoles()
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(BeZero())

			role, err := repo.GetRoleByName("super_admin")
			Expect(err).NotTo(HaveOccurred())
			Expect(role).NotTo(BeNil())
			Expect(role.IsSystemRole).To(BeTrue())
		})
	})
})
