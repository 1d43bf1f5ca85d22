package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tmh/registry/internal/config"
	"github.com/tmh/registry/internal/domain/announcement"
	"github.com/tmh/registry/internal/domain/geography"
	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/domain/registry"
	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/internal/platform/cache"
	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/internal/platform/middleware"
	"github.com/tmh/registry/internal/platform/reporting"
	"github.com/tmh/registry/internal/platform/validate"
)

const (
	version         = "0.1.0"
	migrationSchema = "public"
	cachePrefix     = "registry:"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "registry-server",
		Short: "Hernia mesh registry API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(hospitalCmd())
	rootCmd.AddCommand(announcementCmd())
	rootCmd.AddCommand(personnelCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// connect loads the configuration and opens the pool shared by every
// command.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

type services struct {
	personnel     *personnel.Service
	registry      *registry.Service
	geography     *geography.Service
	announcements *announcement.Service
	reports       *reporting.Service
}

func newServices(pool *pgxpool.Pool, c cache.Provider, announcementTTL time.Duration) *services {
	tx := db.NewTransactor(pool)
	people := personnel.NewService(
		personnel.NewUserRepoPG(pool),
		personnel.NewPersonnelRepoPG(pool),
		personnel.NewPreferredHospitalRepoPG(pool),
		tx,
	)
	reg := registry.NewService(registry.Repositories{
		Hospitals:  registry.NewHospitalRepoPG(pool),
		Patients:   registry.NewPatientRepoPG(pool),
		Mappings:   registry.NewMappingRepoPG(pool),
		Episodes:   registry.NewEpisodeRepoPG(pool),
		Discharges: registry.NewDischargeRepoPG(pool),
		FollowUps:  registry.NewFollowUpRepoPG(pool),
	}, people, tx)
	return &services{
		personnel:     people,
		registry:      reg,
		geography:     geography.NewService(geography.NewRepoPG(pool)),
		announcements: announcement.NewService(announcement.NewRepoPG(pool), c, announcementTTL),
		reports:       reporting.NewService(reporting.NewPGStore(pool)),
	}
}

// newEcho builds the server with its global middleware chain and the
// unauthenticated liveness endpoint.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, cfg.ShowStackTraces())

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.DevUserHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	return e
}

// useDevAuth reports whether requests are authenticated by the development
// header instead of a verified token.
func useDevAuth(cfg *config.Config) bool {
	return cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthJWKSURL == "" && len(cfg.SigningKey()) == 0
}

func authMiddleware(cfg *config.Config) (echo.MiddlewareFunc, error) {
	if useDevAuth(cfg) {
		return auth.DevAuthMiddleware(), nil
	}
	return auth.NewJWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: cfg.SigningKey(),
	})
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	return rl
}

// registerAPI mounts every domain under /api/v1 behind authentication,
// principal resolution, auditing and rate limiting.
func registerAPI(e *echo.Echo, authn echo.MiddlewareFunc, svcs *services, cfg *config.Config, logger zerolog.Logger) {
	api := e.Group("/api/v1",
		middleware.RateLimit(rateLimitConfig(cfg)),
		authn,
		personnel.LoadPrincipal(svcs.personnel),
		middleware.Audit(logger),
	)
	personnel.NewHandler(svcs.personnel).RegisterRoutes(api)
	registry.NewHandler(svcs.registry).RegisterRoutes(api)
	geography.NewHandler(svcs.geography).RegisterRoutes(api)
	announcement.NewHandler(svcs.announcements).RegisterRoutes(api)
	reporting.NewHandler(svcs.reports).RegisterRoutes(api)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var provider cache.Provider = cache.NoopProvider{}
	if cfg.RedisURL != "" {
		redisProvider, err := cache.NewRedisProvider(ctx, cfg.RedisURL, cachePrefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisProvider.Close()
		provider = redisProvider
		logger.Info().Msg("connected to redis")
	}

	authn, err := authMiddleware(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure authentication")
	}
	if useDevAuth(cfg) {
		logger.Warn().Msg("development auth enabled: unauthenticated requests act as a staff admin")
	}

	e := newEcho(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool))
	registerAPI(e, authn, newServices(pool, provider, cfg.AnnouncementCacheTTL), cfg, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			count, err := db.NewMigrator(pool, dir).Up(ctx, migrationSchema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			statuses, err := db.NewMigrator(pool, dir).Status(ctx, migrationSchema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printStatuses(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format(time.RFC3339)
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
