package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	"github.com/frahmantamala/admission-portal/internal/accesscontrol"
	acPostgres "github.com/frahmantamala/admission-portal/internal/accesscontrol/postgres"
	"github.com/frahmantamala/admission-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/admission-portal/internal/audit/postgres"
	"github.com/frahmantamala/admission-portal/internal/auth"
	"github.com/frahmantamala/admission-portal/internal/stage"
	stagePostgres "github.com/frahmantamala/admission-portal/internal/stage/postgres"
	"github.com/frahmantamala/admission-portal/internal/transport/middleware"
	"github.com/frahmantamala/admission-portal/internal/transport/rest"
	"github.com/frahmantamala/admission-portal/internal/transport/swagger"
	"github.com/frahmantamala/admission-portal/internal/user"
	userPostgres "github.com/frahmantamala/admission-portal/internal/user/postgres"
	"github.com/frahmantamala/admission-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var openAPISpecPath = "./api/openapi.yml"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := swagger.ValidateSpec(context.Background(), openAPISpecPath); err != nil {
		fmt.Fprintf(os.Stderr, "OpenAPI spec invalid: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	log := deps.Logger

	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	accessRepo := acPostgres.NewAccessControlRepository(deps.GormDB)
	stageRepo := stagePostgres.NewStageRepository(deps.GormDB)
	auditRepo := auditPostgres.NewAuditRepository(deps.GormDB)

	userService := user.NewService(userRepo, log)
	auditService := audit.NewService(auditRepo, log)
	accessService := accesscontrol.NewService(accessRepo, userService, log)
	stageService := stage.NewService(stageRepo, log)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userService, tokens, auditService, cfg.Security.BCryptCost, log)

	authHandler := auth.NewHandler(authService, middleware.ClientIP)
	userHandler := user.NewHandler(userService)
	accessHandler := accesscontrol.NewHandler(accessService)
	stageHandler := stage.NewHandler(stageService)
	auditHandler := audit.NewHandler(auditService)

	gate := middleware.NewAccessGate(authService, accessService, stageService, accessService, auditService, log)

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		gate,
		authHandler,
		userHandler,
		accessHandler,
		stageHandler,
		auditHandler,
		log,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.Default(),
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm opens gorm over the already-configured pool so repositories and
// raw sqlx queries share the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
