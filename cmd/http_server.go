package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/tenant-admin/api"
	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/auth"
	authPostgres "github.com/frahmantamala/tenant-admin/internal/auth/postgres"
	"github.com/frahmantamala/tenant-admin/internal/core/events"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/core/telemetry"
	"github.com/frahmantamala/tenant-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/tenant-admin/internal/permission/postgres"
	"github.com/frahmantamala/tenant-admin/internal/role"
	rolePostgres "github.com/frahmantamala/tenant-admin/internal/role/postgres"
	"github.com/frahmantamala/tenant-admin/internal/tenant"
	tenantPostgres "github.com/frahmantamala/tenant-admin/internal/tenant/postgres"
	"github.com/frahmantamala/tenant-admin/internal/tenantuser"
	"github.com/frahmantamala/tenant-admin/internal/transport"
	"github.com/frahmantamala/tenant-admin/internal/transport/middleware"
	"github.com/frahmantamala/tenant-admin/internal/transport/rest"
	"github.com/frahmantamala/tenant-admin/internal/user"
	userPostgres "github.com/frahmantamala/tenant-admin/internal/user/postgres"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Redis     *redis.Client
	EventBus  *events.EventBus
	Telemetry *telemetry.Telemetry
	Router    *chi.Mux
	Logger    *slog.Logger
}

func (d *Dependencies) Close(ctx context.Context) {
	if err := d.Telemetry.Shutdown(ctx); err != nil {
		d.Logger.Error("telemetry shutdown error", "error", err)
	}
	d.EventBus.Wait()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Close(context.Background())
		return err
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "env", deps.Config.Env)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Close(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("server shutdown error", "error", err)
	}
	deps.Close(shutdownCtx)

	deps.Logger.Info("server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if _, err := api.Load(context.Background()); err != nil {
		return err
	}

	hasher, err := security.NewBcryptHasher(cfg.Security.BCryptCost)
	if err != nil {
		return err
	}
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTSecret,
		cfg.Security.RefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	base := transport.NewBaseHandler(lg)

	tenantRepo := tenantPostgres.NewTenantRepository(deps.Gorm)
	userRepo := userPostgres.NewUserRepository(deps.Gorm)
	roleRepo := rolePostgres.NewRoleRepository(deps.Gorm)
	permissionRepo := permissionPostgres.NewPermissionRepository(deps.DB)

	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokens, hasher, lg)
	tenantService := tenant.NewService(tenantRepo, deps.EventBus, lg)
	userService := user.NewService(userRepo, hasher, deps.EventBus, lg)
	permissionService := permission.NewService(permissionRepo, lg)
	tenantUserService := tenantuser.NewService(userRepo, hasher, userService, deps.EventBus, lg)
	roleService := role.NewService(roleRepo, deps.EventBus, lg)

	opts := rest.Options{AllowedOrigins: cfg.Server.Origins()}

	if cfg.RateLimit.LoginPerMinute > 0 {
		opts.LoginLimiter = middleware.NewRateLimiter(deps.Redis, "login", cfg.RateLimit.LoginPerMinute, lg)
	}

	if cfg.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = middleware.NewMetrics(reg, cfg.Observability.Tracing.ServiceName)
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.Gatherer = reg
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		Tenant:     tenant.NewHandler(base, tenantService),
		User:       user.NewHandler(base, userService),
		Permission: permission.NewHandler(base, permissionService),
		TenantUser: tenantuser.NewHandler(base, tenantUserService),
		Role:       role.NewHandler(base, roleService),
		UserOwner:  user.OwnerLookup(userRepo),
		RoleOwner:  role.OwnerLookup(roleRepo),
	}, opts, lg)

	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	tel, err := telemetry.Setup(ctx, cfg.Observability.Tracing, cfg.Env)
	if err != nil {
		return nil, err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := internal.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// the rate limiter falls back to local buckets
			lg.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.Wildcard, events.AuditLogger(lg))

	return &Dependencies{
		Config:    cfg,
		DB:        db,
		Gorm:      gdb,
		Redis:     rdb,
		EventBus:  bus,
		Telemetry: tel,
		Router:    chi.NewRouter(),
		Logger:    lg,
	}, nil
}

// initDB opens the shared pgx pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}

// initGorm runs gorm on top of the sqlx pool so both share connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
