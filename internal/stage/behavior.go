package stage

import (
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

// Behavior is the fixed per-phase policy: what the phase is for, which
// actions it opens and closes, and which base roles may register during it.
// Policy for the well-known phases is code, not data; only the stage rows
// themselves live in the database.
type Behavior struct {
	AllowedActions    []string
	BlockedActions    []string
	Message           string
	Description       string
	NextStage         string
	RegistrationRoles []userDatamodel.Role
}

var behaviors = map[stageDatamodel.Type]Behavior{
	stageDatamodel.TypeCollegeRegistration: {
		AllowedActions:    []string{"college_registration", "college_login", "college_profile_update"},
		BlockedActions:    []string{"student_registration", "student_login"},
		Message:           "College Registration Phase",
		Description:       "Colleges can register and submit their details",
		NextStage:         "Student Registration",
		RegistrationRoles: []userDatamodel.Role{userDatamodel.RoleCollege},
	},
	stageDatamodel.TypeStudentRegistration: {
		AllowedActions:    []string{"student_registration", "student_login", "student_profile_update"},
		BlockedActions:    []string{"college_registration", "college_login"},
		Message:           "Student Registration Phase",
		Description:       "Students can register and submit their details",
		NextStage:         "Application Processing",
		RegistrationRoles: []userDatamodel.Role{userDatamodel.RoleStudent},
	},
	stageDatamodel.TypeApplicationProcessing: {
		AllowedActions: []string{"application_processing", "admin_review"},
		BlockedActions: []string{"college_registration", "student_registration"},
		Message:        "Application Processing Phase",
		Description:    "Applications are being processed and reviewed",
		NextStage:      "Results and Allotment",
	},
	stageDatamodel.TypeResultsAllotment: {
		AllowedActions: []string{"results_view", "allotment_view"},
		BlockedActions: []string{"college_registration", "student_registration", "application_processing"},
		Message:        "Results and Allotment Phase",
		Description:    "Results are published and allotments are made",
		NextStage:      "Completed",
	},
	stageDatamodel.TypeCompleted: {
		AllowedActions: []string{"view_only"},
		BlockedActions: []string{"all_registration", "all_processing"},
		Message:        "System Completed",
		Description:    "All stages completed",
		NextStage:      "None",
	},
}

// BehaviorFor returns the policy of a phase type. Unknown types, such as
// admin-created custom stages, get the terminal view-only behavior.
func BehaviorFor(t stageDatamodel.Type) Behavior {
	if b, ok := behaviors[t]; ok {
		return b
	}
	return behaviors[stageDatamodel.TypeCompleted]
}
