package stage

import (
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
)

type CreateStageDTO struct {
	StageType           string                 `json:"stage_type" validate:"required"`
	Name                string                 `json:"name" validate:"required"`
	Description         string                 `json:"description,omitempty"`
	IsActive            bool                   `json:"is_active,omitempty"`
	StartDate           *time.Time             `json:"start_date,omitempty"`
	EndDate             *time.Time             `json:"end_date,omitempty"`
	AllowedRoles        acDatamodel.StringList `json:"allowed_roles,omitempty"`
	BlockedEndpoints    acDatamodel.StringList `json:"blocked_endpoints,omitempty"`
	RequiredPermissions acDatamodel.StringList `json:"required_permissions,omitempty"`
}

func (dto CreateStageDTO) Validate() error {
	if dto.StageType == "" {
		return internal.NewValidationError("stage_type is required", internal.ErrCodeValidationFailed)
	}
	if dto.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if dto.StartDate != nil && dto.EndDate != nil && dto.EndDate.Before(*dto.StartDate) {
		return internal.NewValidationError("end_date must not precede start_date", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateStageDTO struct {
	Name                *string                `json:"name,omitempty"`
	Description         *string                `json:"description,omitempty"`
	IsActive            *bool                  `json:"is_active,omitempty"`
	StartDate           *time.Time             `json:"start_date,omitempty"`
	EndDate             *time.Time             `json:"end_date,omitempty"`
	AllowedRoles        acDatamodel.StringList `json:"allowed_roles,omitempty"`
	BlockedEndpoints    acDatamodel.StringList `json:"blocked_endpoints,omitempty"`
	RequiredPermissions acDatamodel.StringList `json:"required_permissions,omitempty"`
}

// StageInfoResponse is the public shape of "where is the workflow right now".
type StageInfoResponse struct {
	CurrentStage   *stageDatamodel.Stage `json:"current_stage"`
	AllowedActions []string              `json:"allowed_actions"`
	BlockedActions []string              `json:"blocked_actions"`
	StageInfo      map[string]string     `json:"stage_info"`
}

type RegistrationCheckResponse struct {
	Role                string `json:"role"`
	RegistrationAllowed bool   `json:"registration_allowed"`
	CurrentStage        string `json:"current_stage,omitempty"`
	Message             string `json:"message,omitempty"`
}
