package stage

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

// Repository is the stage store. ActivateExclusive must run deactivate-all
// plus activate in a single transaction; the partial unique index on
// stages(is_active) backstops it, so two racing activations serialize and the
// last committed writer wins.
type Repository interface {
	Create(s *stageDatamodel.Stage) error
	GetByID(id int64) (*stageDatamodel.Stage, error)
	GetByType(t stageDatamodel.Type) (*stageDatamodel.Stage, error)
	GetActive() (*stageDatamodel.Stage, error)
	List() ([]*stageDatamodel.Stage, error)
	Update(s *stageDatamodel.Stage) error
	ActivateExclusive(id int64) error
	Deactivate(id int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateStage(dto CreateStageDTO, createdBy int64) (*stageDatamodel.Stage, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	stage := &stageDatamodel.Stage{
		StageType:        stageDatamodel.Type(dto.StageType),
		Name:             dto.Name,
		Description:      dto.Description,
		StartDate:        dto.StartDate,
		EndDate:          dto.EndDate,
		AllowedRoles:     dto.AllowedRoles,
		BlockedEndpoints: dto.BlockedEndpoints,
		RequiredPerms:    dto.RequiredPermissions,
		CreatedBy:        &createdBy,
	}

	if err := s.repo.Create(stage); err != nil {
		s.logger.Error("failed to create stage", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create stage", err)
	}

	// Activation goes through the exclusive path so the new stage displaces
	// whatever was active.
	if dto.IsActive {
		if err := s.repo.ActivateExclusive(stage.ID); err != nil {
			s.logger.Error("failed to activate stage", "error", err, "stage_id", stage.ID)
			return nil, internal.NewInternalError("failed to activate stage", err)
		}
		stage.IsActive = true
	}

	s.logger.Info("stage created", "name", stage.Name, "type", stage.StageType, "active", stage.IsActive, "created_by", createdBy)
	return stage, nil
}

func (s *Service) UpdateStage(id int64, dto UpdateStageDTO) (*stageDatamodel.Stage, error) {
	stage, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get stage", err)
	}
	if stage == nil {
		return nil, internal.ErrStageNotFound
	}

	if dto.Name != nil {
		stage.Name = *dto.Name
	}
	if dto.Description != nil {
		stage.Description = *dto.Description
	}
	if dto.StartDate != nil {
		stage.StartDate = dto.StartDate
	}
	if dto.EndDate != nil {
		stage.EndDate = dto.EndDate
	}
	if dto.AllowedRoles != nil {
		stage.AllowedRoles = dto.AllowedRoles
	}
	if dto.BlockedEndpoints != nil {
		stage.BlockedEndpoints = dto.BlockedEndpoints
	}
	if dto.RequiredPermissions != nil {
		stage.RequiredPerms = dto.RequiredPermissions
	}

	if err := s.repo.Update(stage); err != nil {
		s.logger.Error("failed to update stage", "error", err, "stage_id", id)
		return nil, internal.NewInternalError("failed to update stage", err)
	}

	// Flipping is_active is not a plain field update: activation must
	// displace the current phase atomically.
	if dto.IsActive != nil {
		if *dto.IsActive && !stage.IsActive {
			if err := s.repo.ActivateExclusive(stage.ID); err != nil {
				return nil, internal.NewInternalError("failed to activate stage", err)
			}
			stage.IsActive = true
		} else if !*dto.IsActive && stage.IsActive {
			if err := s.repo.Deactivate(stage.ID); err != nil {
				return nil, internal.NewInternalError("failed to deactivate stage", err)
			}
			stage.IsActive = false
		}
	}

	s.logger.Info("stage updated", "stage_id", id, "name", stage.Name)
	return stage, nil
}

func (s *Service) ActivateStage(id int64) (*stageDatamodel.Stage, error) {
	stage, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get stage", err)
	}
	if stage == nil {
		return nil, internal.ErrStageNotFound
	}

	if err := s.repo.ActivateExclusive(id); err != nil {
		s.logger.Error("failed to activate stage", "error", err, "stage_id", id)
		return nil, internal.NewInternalError("failed to activate stage", err)
	}
	stage.IsActive = true

	s.logger.Info("stage activated", "stage_id", id, "name", stage.Name)
	return stage, nil
}

func (s *Service) DeactivateStage(id int64) (*stageDatamodel.Stage, error) {
	stage, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get stage", err)
	}
	if stage == nil {
		return nil, internal.ErrStageNotFound
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate stage", "error", err, "stage_id", id)
		return nil, internal.NewInternalError("failed to deactivate stage", err)
	}
	stage.IsActive = false

	s.logger.Info("stage deactivated", "stage_id", id, "name", stage.Name)
	return stage, nil
}

// CurrentStage returns the active stage, or nil when the workflow is idle.
func (s *Service) CurrentStage() (*stageDatamodel.Stage, error) {
	stage, err := s.repo.GetActive()
	if err != nil {
		return nil, internal.NewInternalError("failed to get current stage", err)
	}
	return stage, nil
}

func (s *Service) GetStageByID(id int64) (*stageDatamodel.Stage, error) {
	stage, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get stage", err)
	}
	if stage == nil {
		return nil, internal.ErrStageNotFound
	}
	return stage, nil
}

func (s *Service) GetAllStages() ([]*stageDatamodel.Stage, error) {
	stages, err := s.repo.List()
	if err != nil {
		return nil, internal.NewInternalError("failed to list stages", err)
	}
	return stages, nil
}

// StageInfo reports the current phase with its behavior. With no active
// stage the response carries only the idle message.
func (s *Service) StageInfo() (*StageInfoResponse, error) {
	current, err := s.CurrentStage()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &StageInfoResponse{
			AllowedActions: []string{},
			BlockedActions: []string{},
			StageInfo:      map[string]string{"message": "No active stage"},
		}, nil
	}

	behavior := BehaviorFor(current.StageType)
	return &StageInfoResponse{
		CurrentStage:   current,
		AllowedActions: behavior.AllowedActions,
		BlockedActions: behavior.BlockedActions,
		StageInfo: map[string]string{
			"message":     behavior.Message,
			"description": behavior.Description,
			"next_stage":  behavior.NextStage,
		},
	}, nil
}

// IsRegistrationAllowed reports whether the given base role may register in
// the current phase. No active stage means no registration at all.
func (s *Service) IsRegistrationAllowed(role userDatamodel.Role) (bool, error) {
	current, err := s.CurrentStage()
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}

	behavior := BehaviorFor(current.StageType)
	for _, allowed := range behavior.RegistrationRoles {
		if allowed == role {
			return true, nil
		}
	}
	return false, nil
}

// BlockedStage reports whether the active stage blocks the endpoint path,
// returning the stage so callers can describe the block. No active stage
// blocks nothing.
func (s *Service) BlockedStage(endpointPath string) (*stageDatamodel.Stage, bool, error) {
	current, err := s.CurrentStage()
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, nil
	}
	return current, current.BlockedEndpoints.Contains(endpointPath), nil
}

// IsEndpointAllowed applies the current stage's endpoint and role
// restrictions. No active stage restricts nothing.
func (s *Service) IsEndpointAllowed(endpointPath string, userRoles []string) (bool, error) {
	current, blocked, err := s.BlockedStage(endpointPath)
	if err != nil {
		return false, err
	}
	if current == nil {
		return true, nil
	}

	if blocked {
		return false, nil
	}

	if len(current.AllowedRoles) > 0 {
		for _, role := range userRoles {
			if current.AllowedRoles.Contains(role) {
				return true, nil
			}
		}
		return false, nil
	}

	return true, nil
}

type defaultStage struct {
	StageType           stageDatamodel.Type
	Name                string
	Description         string
	AllowedRoles        acDatamodel.StringList
	BlockedEndpoints    acDatamodel.StringList
	RequiredPermissions acDatamodel.StringList
}

var defaultStages = []defaultStage{
	{
		StageType:           stageDatamodel.TypeCollegeRegistration,
		Name:                "College Registration",
		Description:         "Stage 1: Colleges can register and submit their details",
		AllowedRoles:        acDatamodel.StringList{"college"},
		BlockedEndpoints:    acDatamodel.StringList{"/api/v1/auth/register/student", "/api/v1/students/submit"},
		RequiredPermissions: acDatamodel.StringList{"college_write"},
	},
	{
		StageType:           stageDatamodel.TypeStudentRegistration,
		Name:                "Student Registration",
		Description:         "Stage 2: Students can register and submit their details",
		AllowedRoles:        acDatamodel.StringList{"student"},
		BlockedEndpoints:    acDatamodel.StringList{"/api/v1/auth/register/college", "/api/v1/colleges/submit"},
		RequiredPermissions: acDatamodel.StringList{"student_write"},
	},
	{
		StageType:           stageDatamodel.TypeApplicationProcessing,
		Name:                "Application Processing",
		Description:         "Stage 3: Applications are being processed and reviewed",
		AllowedRoles:        acDatamodel.StringList{"admin"},
		BlockedEndpoints:    acDatamodel.StringList{"/api/v1/auth/register"},
		RequiredPermissions: acDatamodel.StringList{"college_approve", "student_verify"},
	},
	{
		StageType:           stageDatamodel.TypeResultsAllotment,
		Name:                "Results and Allotment",
		Description:         "Stage 4: Results are published and allotments are made",
		AllowedRoles:        acDatamodel.StringList{"admin", "college", "student"},
		BlockedEndpoints:    acDatamodel.StringList{"/api/v1/auth/register", "/api/v1/colleges/submit", "/api/v1/students/submit"},
		RequiredPermissions: acDatamodel.StringList{"student_read", "college_read"},
	},
	{
		StageType:           stageDatamodel.TypeCompleted,
		Name:                "System Completed",
		Description:         "All stages completed",
		AllowedRoles:        acDatamodel.StringList{"admin"},
		BlockedEndpoints:    acDatamodel.StringList{"/api/v1/auth/register", "/api/v1/colleges/submit", "/api/v1/students/submit"},
		RequiredPermissions: acDatamodel.StringList{"system_read"},
	},
}

// InitializeDefaultStages seeds one row per well-known phase, none active.
// Existing types are left untouched, so reruns are safe.
func (s *Service) InitializeDefaultStages(createdBy int64) (int, error) {
	created := 0
	for _, ds := range defaultStages {
		existing, err := s.repo.GetByType(ds.StageType)
		if err != nil {
			return created, internal.NewInternalError("failed to look up stage", err)
		}
		if existing != nil {
			continue
		}

		stage := &stageDatamodel.Stage{
			StageType:        ds.StageType,
			Name:             ds.Name,
			Description:      ds.Description,
			AllowedRoles:     ds.AllowedRoles,
			BlockedEndpoints: ds.BlockedEndpoints,
			RequiredPerms:    ds.RequiredPermissions,
			CreatedBy:        &createdBy,
			CreatedAt:        time.Now(),
		}
		if err := s.repo.Create(stage); err != nil {
			return created, internal.NewInternalError("failed to create default stage", err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("default stages initialized", "created", created)
	}
	return created, nil
}
