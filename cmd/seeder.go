package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/admission-portal/internal"
	"github.com/frahmantamala/admission-portal/internal/accesscontrol"
	acPostgres "github.com/frahmantamala/admission-portal/internal/accesscontrol/postgres"
	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/admission-portal/internal/stage"
	stagePostgres "github.com/frahmantamala/admission-portal/internal/stage/postgres"
	"github.com/frahmantamala/admission-portal/internal/user"
	userPostgres "github.com/frahmantamala/admission-portal/internal/user/postgres"
	"github.com/frahmantamala/admission-portal/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default admin user, permissions, roles and stages",
	Long: `Seed the database with everything a fresh deployment needs: the
built-in permissions and roles, the five workflow stages (all inactive),
and a bootstrap admin user holding the super_admin role.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		lg := logger.Default()
		userRepo := userPostgres.NewUserRepository(gormDB)
		accessRepo := acPostgres.NewAccessControlRepository(gormDB)
		stageRepo := stagePostgres.NewStageRepository(gormDB)

		userService := user.NewService(userRepo, lg)
		accessService := accesscontrol.NewService(accessRepo, userService, lg)
		stageService := stage.NewService(stageRepo, lg)

		admin, err := userRepo.GetByEmail("admin@admission.local")
		if err != nil {
			log.Fatalf("failed to look up admin user: %v", err)
		}
		if admin == nil {
			hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), cfg.Security.BCryptCost)
			if err != nil {
				log.Fatalf("failed to hash admin password: %v", err)
			}
			admin = &userDatamodel.User{
				Email:        "admin@admission.local",
				Name:         "System Administrator",
				PasswordHash: string(hash),
				Role:         userDatamodel.RoleAdmin,
				IsActive:     true,
			}
			if err := userRepo.Create(admin); err != nil {
				log.Fatalf("failed to create admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", admin.Email)
		} else {
			fmt.Println("admin user already exists; will ensure grants")
		}

		createdPerms, err := accessService.InitializeDefaultPermissions()
		if err != nil {
			log.Fatalf("failed to seed permissions: %v", err)
		}
		fmt.Printf("Seeded %d permissions\n", createdPerms)

		createdRoles, err := accessService.InitializeDefaultRoles()
		if err != nil {
			log.Fatalf("failed to seed roles: %v", err)
		}
		fmt.Printf("Seeded %d roles\n", createdRoles)

		superAdmin, err := accessRepo.GetRoleByName("super_admin")
		if err != nil || superAdmin == nil {
			log.Fatalf("super_admin role missing after seeding: %v", err)
		}

		// super_admin carries every built-in permission.
		perms, err := accessRepo.ListPermissions(100, 0, true)
		if err != nil {
			log.Fatalf("failed to list permissions: %v", err)
		}
		for _, p := range perms {
			if _, err := accessService.AssignPermissionToRole(superAdmin.ID, p.ID, admin.ID, nil); err != nil {
				if errors.Is(err, internal.ErrGrantExists) {
					continue
				}
				log.Fatalf("failed to grant %s to super_admin: %v", p.Name, err)
			}
		}
		fmt.Println("Granted all permissions to super_admin role")

		if _, err := accessService.AssignRoleToUser(admin.ID, superAdmin.ID, admin.ID, nil); err != nil && !errors.Is(err, internal.ErrGrantExists) {
			log.Fatalf("failed to assign super_admin to admin user: %v", err)
		}
		fmt.Println("Assigned super_admin role to admin user:", admin.Email)

		createdStages, err := stageService.InitializeDefaultStages(admin.ID)
		if err != nil {
			log.Fatalf("failed to seed stages: %v", err)
		}
		fmt.Printf("Seeded %d stages (none active; activate one via the API)\n", createdStages)
	},
}
