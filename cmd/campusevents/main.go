package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"campusevents/internal/config"
	"campusevents/internal/handler"
	"campusevents/internal/logging"
	"campusevents/internal/middleware"
	"campusevents/internal/scheduler"
	"campusevents/internal/service"
	"campusevents/internal/session"
	"campusevents/internal/store"
	"campusevents/internal/upload"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Campus Events - moderated campus event catalog\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_DB_PATH             SQLite database path (default: ./data/campusevents.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_UPLOADS_DIR         Event image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_SEED_ADMIN_EMAIL    First-run admin account email (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CE_SEED_ADMIN_PASSWORD First-run admin account password (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("campusevents %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the audit log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewAuditLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("audit log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.SeedEnabled() {
		if err := store.SeedAdmin(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seeding admin account: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	sessionManager := session.New(db, cfg.SessionIdleTimeout, cfg.IsDevelopment())
	slog.Info("session manager initialized", "idle_timeout", cfg.SessionIdleTimeout)

	// Services
	auditService := service.NewAuditService(db)
	userService := service.NewUserService(db, auditService)
	eventService := service.NewEventService(db, auditService)
	uploadValidator := upload.NewValidator(cfg.UploadsDir)

	// Nightly audit log pruning
	retention := time.Duration(cfg.AuditRetentionDays) * 24 * time.Hour
	sched := scheduler.New(db, auditService, logger, retention)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Login and registration throttles
	loginAttempts := middleware.NewAttemptLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
	signupAttempts := middleware.NewAttemptLimiter(cfg.RegisterMaxAttempts, cfg.RegisterWindow)
	slog.Info("login protection initialized",
		"max_attempts", cfg.LoginMaxAttempts,
		"window", cfg.LoginWindow,
	)

	// Per-IP limiter for the unauthenticated entry points
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Handlers
	authHandler := handler.NewAuthHandler(sessionManager, userService, auditService, loginAttempts, signupAttempts)
	profileHandler := handler.NewProfileHandler(userService)
	eventHandler := handler.NewEventHandler(eventService, uploadValidator)
	userHandler := handler.NewUserHandler(userService, auditService)
	healthHandler := handler.NewHealthHandler(db)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))
	r.Use(csrfMiddleware)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Serve uploaded event images
	uploadsHandler := middleware.StaticCache(604800)(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

	// Public routes
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.Middleware())
		r.Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteRegister, authHandler.Register)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Route(handler.RouteMe, func(r chi.Router) {
			r.Get("/", profileHandler.Me)
			r.Put("/profile", profileHandler.UpdateProfile)
			r.Put("/password", profileHandler.ChangePassword)
		})

		r.Route(handler.RouteEvents, func(r chi.Router) {
			r.Get("/", eventHandler.List)
			r.Get(handler.RouteParamID, eventHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireApproved())
				r.Post("/", eventHandler.Create)
				r.Get("/mine", eventHandler.ListMine)
				r.Put(handler.RouteParamID, eventHandler.Update)
				r.Delete(handler.RouteParamID, eventHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/pending", eventHandler.ListPending)
				r.Post(handler.RouteParamID+"/approve", eventHandler.Approve)
				r.Post(handler.RouteParamID+"/reject", eventHandler.Reject)
			})
		})

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Route(handler.RouteUsers, func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Get(handler.RouteParamID, userHandler.Get)
				r.Delete(handler.RouteParamID, userHandler.Delete)
				r.Put(handler.RouteParamID+"/role", userHandler.ChangeRole)
				r.Post(handler.RouteParamID+"/approve", userHandler.Approve)
				r.Put(handler.RouteParamID+"/password", userHandler.ResetPassword)
			})
			r.Get(handler.RouteStats, userHandler.Stats)
			r.Get(handler.RouteAudit, userHandler.Audit)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
