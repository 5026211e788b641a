package stage

import (
	"time"

	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

// Type names a workflow phase. The well-known phases below drive the behavior
// table in the stage service; administrators may create stages with new types,
// which fall back to the completed-phase behavior.
type Type string

const (
	TypeCollegeRegistration   Type = "college_registration"
	TypeStudentRegistration   Type = "student_registration"
	TypeApplicationProcessing Type = "application_processing"
	TypeResultsAllotment      Type = "results_allotment"
	TypeCompleted             Type = "completed"
)

// Stage is a workflow phase row. At most one row is active at any instant,
// enforced by a partial unique index plus the activate transaction. Rows are
// never deleted so the phase history stays auditable.
type Stage struct {
	ID               int64                    `gorm:"primaryKey"`
	StageType        Type                     `gorm:"column:stage_type;not null"`
	Name             string                   `gorm:"column:name;not null"`
	Description      string                   `gorm:"column:description"`
	IsActive         bool                     `gorm:"column:is_active;default:false"`
	StartDate        *time.Time               `gorm:"column:start_date"`
	EndDate          *time.Time               `gorm:"column:end_date"`
	AllowedRoles     acDatamodel.StringList   `gorm:"column:allowed_roles;type:text"`
	BlockedEndpoints acDatamodel.StringList   `gorm:"column:blocked_endpoints;type:text"`
	RequiredPerms    acDatamodel.StringList   `gorm:"column:required_permissions;type:text"`
	CreatedBy        *int64                   `gorm:"column:created_by"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Stage) TableName() string { return "stages" }
