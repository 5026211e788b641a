package user

import (
	"log/slog"

	"github.com/frahmantamala/admission-portal/internal"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetUserByID satisfies the identity collaborator contracts of the auth and
// access-control services. A miss is (nil, nil); callers decide severity.
func (s *Service) GetUserByID(id int64) (*userDatamodel.User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) GetUserByEmail(email string) (*userDatamodel.User, error) {
	return s.repo.GetByEmail(email)
}

// GetProfile is the /users/me lookup: it insists the user exists and is
// active.
func (s *Service) GetProfile(id int64) (*Profile, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	profile := ProfileFrom(user)
	return &profile, nil
}
