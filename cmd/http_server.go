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

	"github.com/backoffice-crm/backoffice-crm/internal"
	"github.com/backoffice-crm/backoffice-crm/internal/activity"
	activityPostgres "github.com/backoffice-crm/backoffice-crm/internal/activity/postgres"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
	authPostgres "github.com/backoffice-crm/backoffice-crm/internal/auth/postgres"
	"github.com/backoffice-crm/backoffice-crm/internal/role"
	rolePostgres "github.com/backoffice-crm/backoffice-crm/internal/role/postgres"
	"github.com/backoffice-crm/backoffice-crm/internal/transport/rest"
	"github.com/backoffice-crm/backoffice-crm/internal/transport/swagger"
	"github.com/backoffice-crm/backoffice-crm/internal/user"
	userPostgres "github.com/backoffice-crm/backoffice-crm/internal/user/postgres"
	"github.com/backoffice-crm/backoffice-crm/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

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
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	// Fail fast if the published API document is broken.
	if _, err := swagger.LoadSpec(context.Background(), "./api/openapi.yml"); err != nil {
		return nil, err
	}

	sqlDB, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokens, config.Security.BCryptCost, appLogger)
	authHandler := auth.NewHandler(authService)
	guard := auth.NewGuard(authService, appLogger)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, config.Security.BCryptCost, appLogger)
	userHandler := user.NewHandler(userService)

	roleRepo := rolePostgres.NewRoleRepository(gormDB)
	roleService := role.NewService(roleRepo, appLogger)
	roleHandler := role.NewHandler(roleService)

	activityRepo := activityPostgres.NewActivityRepository(gormDB)
	activityService := activity.NewService(activityRepo, userService, appLogger)
	activityHandler := activity.NewHandler(activityService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(
		router,
		sqlDB.DB,
		authHandler,
		guard,
		userHandler,
		roleHandler,
		activityHandler,
		config.Server.AllowedOrigins,
		appLogger,
	)

	return &Dependencies{
		Config: config,
		DB:     sqlDB,
		Router: router,
		Logger: appLogger,
	}, nil
}

// initDB opens a single connection pool via the pgx stdlib driver and
// layers gorm over it, so the ORM, migrations and health checks share
// the same pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	sqlDB, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to open gorm over db connection: %w", err)
	}

	return sqlDB, gormDB, nil
}
