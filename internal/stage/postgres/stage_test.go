package postgres

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	"github.com/frahmantamala/admission-portal/internal/stage"
)

func TestStageRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StageRepository Suite")
}

var _ = Describe("StageRepository", func() {
	var (
		db   *gorm.DB
		repo stage.Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&stageDatamodel.Stage{})
		Expect(err).NotTo(HaveOccurred())

		// Same guarantee the production schema carries.
		err = db.Exec("CREATE UNIQUE INDEX idx_stages_single_active ON stages (is_active) WHERE is_active").Error
		Expect(err).NotTo(HaveOccurred())

		repo = NewStageRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	seed := func(t stageDatamodel.Type, name string) *stageDatamodel.Stage {
		s := &stageDatamodel.Stage{
			StageType:        t,
			Name:             name,
			AllowedRoles:     acDatamodel.StringList{"college"},
			BlockedEndpoints: acDatamodel.StringList{"/api/v1/auth/register/student"},
		}
		Expect(repo.Create(s)).To(Succeed())
		return s
	}

	Describe("ActivateExclusive", func() {
		It("activates the target and deactivates everything else", func() {
			first := seed(stageDatamodel.TypeCollegeRegistration, "College Registration")
			second := seed(stageDatamodel.TypeStudentRegistration, "Student Registration")

			Expect(repo.ActivateExclusive(first.ID)).To(Succeed())
			Expect(repo.ActivateExclusive(second.ID)).To(Succeed())

			active, err := repo.GetActive()
			Expect(err).NotTo(HaveOccurred())
			Expect(active.ID).To(Equal(second.ID))

			var activeCount int64
			Expect(db.Model(&stageDatamodel.Stage{}).Where("is_active = ?", true).Count(&activeCount).Error).To(Succeed())
			Expect(activeCount).To(Equal(int64(1)))
		})

		It("fails for an unknown stage without dropping the current one", func() {
			first := seed(stageDatamodel.TypeCollegeRegistration, "College Registration")
			Expect(repo.ActivateExclusive(first.ID)).To(Succeed())

			err := repo.ActivateExclusive(999)
			Expect(err).To(HaveOccurred())

			// The transaction rolled back, so the prior stage is still active.
			active, err := repo.GetActive()
			Expect(err).NotTo(HaveOccurred())
			Expect(active).NotTo(BeNil())
			Expect(active.ID).To(Equal(first.ID))
		})

		It("rejects a raw second active row at the schema level", func() {
			first := seed(stageDatamodel.TypeCollegeRegistration, "College Registration")
			second := seed(stageDatamodel.TypeStudentRegistration, "Student Registration")
			Expect(repo.ActivateExclusive(first.ID)).To(Succeed())

			err := db.Model(&stageDatamodel.Stage{}).
				Where("id = ?", second.ID).
				Update("is_active", true).Error
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetActive", func() {
		It("returns nil with no active stage", func() {
			seed(stageDatamodel.TypeCollegeRegistration, "College Registration")

			active, err := repo.GetActive()
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeNil())
		})
	})

	Describe("GetByType", func() {
		It("round-trips the list columns", func() {
			seed(stageDatamodel.TypeCollegeRegistration, "College Registration")

			found, err := repo.GetByType(stageDatamodel.TypeCollegeRegistration)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.AllowedRoles).To(Equal(acDatamodel.StringList{"college"}))
			Expect(found.BlockedEndpoints).To(ContainElement("/api/v1/auth/register/student"))
		})
	})
})
