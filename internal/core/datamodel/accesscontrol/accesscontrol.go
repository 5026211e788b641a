package accesscontrol

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ResourceType string

const (
	ResourceUser    ResourceType = "user"
	ResourceCollege ResourceType = "college"
	ResourceStudent ResourceType = "student"
	ResourceAdmin   ResourceType = "admin"
	ResourceAuth    ResourceType = "auth"
	ResourceFile    ResourceType = "file"
	ResourceSystem  ResourceType = "system"
	ResourceStage   ResourceType = "stage"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionVerify  Action = "verify"
	ActionAdmin   Action = "admin"
)

type AuditAction string

const (
	AuditLogin       AuditAction = "login"
	AuditLogout      AuditAction = "logout"
	AuditCreate      AuditAction = "create"
	AuditRead        AuditAction = "read"
	AuditUpdate      AuditAction = "update"
	AuditDelete      AuditAction = "delete"
	AuditApprove     AuditAction = "approve"
	AuditReject      AuditAction = "reject"
	AuditVerify      AuditAction = "verify"
	AuditStageChange AuditAction = "stage_change"
)

// StringList stores a []string as a JSON column, portable across postgres and
// the sqlite driver used in repository tests.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}

type Permission struct {
	ID           int64        `gorm:"primaryKey"`
	Name         string       `gorm:"column:name;uniqueIndex;not null"`
	Description  string       `gorm:"column:description"`
	ResourceType ResourceType `gorm:"column:resource_type;not null"`
	Action       Action       `gorm:"column:action;not null"`
	IsActive     bool         `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string { return "permissions" }

type Role struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	Description  string    `gorm:"column:description"`
	IsSystemRole bool      `gorm:"column:is_system_role;default:false"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string { return "roles" }

// RolePermission is the role-to-permission grant. Rows are never deleted;
// revocation flips is_active so the granted_by/granted_at history survives.
type RolePermission struct {
	ID           int64      `gorm:"primaryKey"`
	RoleID       int64      `gorm:"column:role_id;not null"`
	PermissionID int64      `gorm:"column:permission_id;not null"`
	GrantedBy    *int64     `gorm:"column:granted_by"`
	GrantedAt    time.Time  `gorm:"column:granted_at"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsActive     bool       `gorm:"column:is_active;default:true"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// Effective reports whether the grant counts at the given instant.
func (rp *RolePermission) Effective(now time.Time) bool {
	return rp.IsActive && (rp.ExpiresAt == nil || rp.ExpiresAt.After(now))
}

// UserRoleAssignment is the user-to-role grant, same lifecycle as RolePermission.
type UserRoleAssignment struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null"`
	RoleID     int64      `gorm:"column:role_id;not null"`
	AssignedBy *int64     `gorm:"column:assigned_by"`
	AssignedAt time.Time  `gorm:"column:assigned_at"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	IsActive   bool       `gorm:"column:is_active;default:true"`
}

func (UserRoleAssignment) TableName() string { return "user_role_assignments" }

func (ur *UserRoleAssignment) Effective(now time.Time) bool {
	return ur.IsActive && (ur.ExpiresAt == nil || ur.ExpiresAt.After(now))
}

type EndpointAccessRule struct {
	ID                  int64      `gorm:"primaryKey"`
	EndpointPath        string     `gorm:"column:endpoint_path;not null"`
	HTTPMethod          string     `gorm:"column:http_method;not null"`
	RequiredPermissions StringList `gorm:"column:required_permissions;type:text"`
	RequiredRoles       StringList `gorm:"column:required_roles;type:text"`
	IsPublic            bool       `gorm:"column:is_public;default:false"`
	IsActive            bool       `gorm:"column:is_active;default:true"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (EndpointAccessRule) TableName() string { return "endpoint_access_rules" }

// AccessLog is append-only: one row per request, written by the gate, never
// updated afterwards.
type AccessLog struct {
	ID              int64         `gorm:"primaryKey"`
	UserID          *int64        `gorm:"column:user_id"`
	EndpointPath    string        `gorm:"column:endpoint_path;not null"`
	HTTPMethod      string        `gorm:"column:http_method;not null"`
	RequestIP       string        `gorm:"column:request_ip"`
	UserAgent       string        `gorm:"column:user_agent"`
	Action          AuditAction   `gorm:"column:action"`
	ResourceType    *ResourceType `gorm:"column:resource_type"`
	ResourceID      string        `gorm:"column:resource_id"`
	Success         bool          `gorm:"column:success"`
	ErrorMessage    string        `gorm:"column:error_message"`
	ResponseStatus  int           `gorm:"column:response_status"`
	ExecutionTimeMs int64         `gorm:"column:execution_time_ms"`
	Timestamp       time.Time     `gorm:"column:timestamp"`
}

func (AccessLog) TableName() string { return "access_logs" }

// SessionLog tracks issued credentials by token id so logout can revoke a
// token before its natural expiry, across server instances.
type SessionLog struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null"`
	TokenID    string     `gorm:"column:token_id;uniqueIndex;not null"`
	IPAddress  string     `gorm:"column:ip_address"`
	UserAgent  string     `gorm:"column:user_agent"`
	LoginTime  time.Time  `gorm:"column:login_time"`
	LogoutTime *time.Time `gorm:"column:logout_time"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	IsActive   bool       `gorm:"column:is_active;default:true"`
}

func (SessionLog) TableName() string { return "session_logs" }
