package postgres

import (
	"errors"
	"time"

	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	"github.com/frahmantamala/admission-portal/internal/stage"
	"gorm.io/gorm"
)

// StageRepository implements the stage.Repository interface using GORM.
type StageRepository struct {
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) stage.Repository {
	return &StageRepository{db: db}
}

func (r *StageRepository) Create(s *stageDatamodel.Stage) error {
	return r.db.Create(s).Error
}

func (r *StageRepository) GetByID(id int64) (*stageDatamodel.Stage, error) {
	var s stageDatamodel.Stage
	err := r.db.Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) GetByType(t stageDatamodel.Type) (*stageDatamodel.Stage, error) {
	var s stageDatamodel.Stage
	err := r.db.Where("stage_type = ?", t).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) GetActive() (*stageDatamodel.Stage, error) {
	var s stageDatamodel.Stage
	err := r.db.Where("is_active = ?", true).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) List() ([]*stageDatamodel.Stage, error) {
	var stages []*stageDatamodel.Stage
	err := r.db.Order("created_at ASC").Find(&stages).Error
	return stages, err
}

func (r *StageRepository) Update(s *stageDatamodel.Stage) error {
	s.UpdatedAt = time.Now()
	return r.db.Save(s).Error
}

// ActivateExclusive flips every stage off and the target on in one
// transaction. The clear must commit with the set, otherwise a crash in
// between could leave the workflow with no phase; the partial unique index on
// is_active rejects any interleaving that would yield two active rows.
func (r *StageRepository) ActivateExclusive(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&stageDatamodel.Stage{}).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}

		result := tx.Model(&stageDatamodel.Stage{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": true, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *StageRepository) Deactivate(id int64) error {
	return r.db.Model(&stageDatamodel.Stage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error
}
