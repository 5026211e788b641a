package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/admission-portal/internal/accesscontrol"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	"gorm.io/gorm"
)

// AccessControlRepository implements the accesscontrol.Repository interface
// using GORM. Lookups that miss return (nil, nil); the service layer decides
// whether a miss is an error.
type AccessControlRepository struct {
	db *gorm.DB
}

func NewAccessControlRepository(db *gorm.DB) accesscontrol.Repository {
	return &AccessControlRepository{db: db}
}

// ---------------- Permissions ----------------

func (r *AccessControlRepository) CreatePermission(p *acDatamodel.Permission) error {
	return r.db.Create(p).Error
}

func (r *AccessControlRepository) GetPermissionByID(id int64) (*acDatamodel.Permission, error) {
	var p acDatamodel.Permission
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *AccessControlRepository) GetPermissionByName(name string) (*acDatamodel.Permission, error) {
	var p acDatamodel.Permission
	err := r.db.Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *AccessControlRepository) GetPermissionsByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var permissions []*acDatamodel.Permission
	query := r.db.Where("id IN ?", ids)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&permissions).Error
	return permissions, err
}

func (r *AccessControlRepository) ListPermissions(limit, offset int, activeOnly bool) ([]*acDatamodel.Permission, error) {
	var permissions []*acDatamodel.Permission
	query := r.db.Order("name ASC").Limit(limit).Offset(offset)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&permissions).Error
	return permissions, err
}

func (r *AccessControlRepository) UpdatePermission(p *acDatamodel.Permission) error {
	p.UpdatedAt = time.Now()
	return r.db.Save(p).Error
}

// ---------------- Roles ----------------

func (r *AccessControlRepository) CreateRole(role *acDatamodel.Role) error {
	return r.db.Create(role).Error
}

func (r *AccessControlRepository) GetRoleByID(id int64) (*acDatamodel.Role, error) {
	var role acDatamodel.Role
	err := r.db.Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *AccessControlRepository) GetRoleByName(name string) (*acDatamodel.Role, error) {
	var role acDatamodel.Role
	err := r.db.Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *AccessControlRepository) GetRolesByIDs(ids []int64, activeOnly bool) ([]*acDatamodel.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []*acDatamodel.Role
	query := r.db.Where("id IN ?", ids)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&roles).Error
	return roles, err
}

func (r *AccessControlRepository) ListRoles(limit, offset int, activeOnly bool) ([]*acDatamodel.Role, error) {
	var roles []*acDatamodel.Role
	query := r.db.Order("name ASC").Limit(limit).Offset(offset)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&roles).Error
	return roles, err
}

func (r *AccessControlRepository) UpdateRole(role *acDatamodel.Role) error {
	role.UpdatedAt = time.Now()
	return r.db.Save(role).Error
}

// ---------------- Role permissions ----------------

func (r *AccessControlRepository) CreateRolePermission(rp *acDatamodel.RolePermission) error {
	return r.db.Create(rp).Error
}

func (r *AccessControlRepository) FindEffectiveRolePermission(roleID, permissionID int64, now time.Time) (*acDatamodel.RolePermission, error) {
	var rp acDatamodel.RolePermission
	err := r.db.
		Where("role_id = ? AND permission_id = ? AND is_active = ?", roleID, permissionID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&rp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rp, nil
}

func (r *AccessControlRepository) RolePermissionsForRoles(roleIDs []int64, now time.Time) ([]*acDatamodel.RolePermission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var grants []*acDatamodel.RolePermission
	err := r.db.
		Where("role_id IN ? AND is_active = ?", roleIDs, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&grants).Error
	return grants, err
}

func (r *AccessControlRepository) DeactivateRolePermission(id int64) error {
	return r.db.Model(&acDatamodel.RolePermission{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ---------------- User role assignments ----------------

func (r *AccessControlRepository) CreateUserRoleAssignment(ur *acDatamodel.UserRoleAssignment) error {
	return r.db.Create(ur).Error
}

func (r *AccessControlRepository) FindEffectiveUserRole(userID, roleID int64, now time.Time) (*acDatamodel.UserRoleAssignment, error) {
	var ur acDatamodel.UserRoleAssignment
	err := r.db.
		Where("user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&ur).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ur, nil
}

func (r *AccessControlRepository) UserRoleAssignmentsForUser(userID int64, now time.Time) ([]*acDatamodel.UserRoleAssignment, error) {
	var assignments []*acDatamodel.UserRoleAssignment
	err := r.db.
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&assignments).Error
	return assignments, err
}

func (r *AccessControlRepository) DeactivateUserRoleAssignment(id int64) error {
	return r.db.Model(&acDatamodel.UserRoleAssignment{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ---------------- Endpoint rules ----------------

func (r *AccessControlRepository) GetActiveEndpointRule(path, method string) (*acDatamodel.EndpointAccessRule, error) {
	var rule acDatamodel.EndpointAccessRule
	err := r.db.
		Where("endpoint_path = ? AND http_method = ? AND is_active = ?", path, method, true).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *AccessControlRepository) CreateEndpointRule(rule *acDatamodel.EndpointAccessRule) error {
	return r.db.Create(rule).Error
}

func (r *AccessControlRepository) ListEndpointRules(limit, offset int, activeOnly bool) ([]*acDatamodel.EndpointAccessRule, error) {
	var rules []*acDatamodel.EndpointAccessRule
	query := r.db.Order("endpoint_path ASC").Limit(limit).Offset(offset)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&rules).Error
	return rules, err
}

func (r *AccessControlRepository) GetEndpointRuleByID(id int64) (*acDatamodel.EndpointAccessRule, error) {
	var rule acDatamodel.EndpointAccessRule
	err := r.db.Where("id = ?", id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *AccessControlRepository) UpdateEndpointRule(rule *acDatamodel.EndpointAccessRule) error {
	rule.UpdatedAt = time.Now()
	return r.db.Save(rule).Error
}
