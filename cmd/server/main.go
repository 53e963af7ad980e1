package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebase/carebase/internal/appointment"
	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/cache"
	"github.com/carebase/carebase/internal/config"
	"github.com/carebase/carebase/internal/identity"
	"github.com/carebase/carebase/internal/notify"
	"github.com/carebase/carebase/internal/observability/logger"
	"github.com/carebase/carebase/internal/observability/metrics"
	"github.com/carebase/carebase/internal/observability/tracing"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/prescription"
	"github.com/carebase/carebase/internal/reminder"
	"github.com/carebase/carebase/internal/report"
	"github.com/carebase/carebase/internal/staff"
	"github.com/carebase/carebase/internal/store/postgres"
	"github.com/carebase/carebase/internal/tenant"
	"github.com/carebase/carebase/internal/token"
	transportHTTP "github.com/carebase/carebase/internal/transport/http"
)

// tenantLimits reads plan limits off the tenant record. It backs both
// the user and the patient limit checks.
type tenantLimits struct {
	tenants tenant.Repository
}

func (l *tenantLimits) MaxUsers(ctx context.Context, tenantID string) (int, error) {
	t, err := l.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return t.MaxUsers, nil
}

func (l *tenantLimits) MaxPatients(ctx context.Context, tenantID string) (int, error) {
	t, err := l.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return t.MaxPatients, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx := context.Background()

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
			slog.Error("migration failed", logger.Error(err))
			os.Exit(1)
		}
		slog.Info("migration complete")
		return
	}

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", logger.Error(err))
		os.Exit(1)
	}

	m := metrics.New(cfg.Observability.ServiceName)

	// Repositories
	tenantRepo := postgres.NewTenantRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)

	var tenantCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", logger.Error(err))
			os.Exit(1)
		}
		tenantCache = redisCache
	} else {
		tenantCache = cache.NewMemoryCache()
	}

	auditLogger := audit.NewSlogLogger()

	hasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	limits := &tenantLimits{tenants: tenantRepo}

	fileStore, err := report.NewDiskStore(cfg.Upload.Dir)
	if err != nil {
		slog.Error("failed to prepare upload directory", logger.Error(err))
		os.Exit(1)
	}

	// Services
	identityService := identity.NewService(userRepo, hasher, limits, auditLogger,
		cfg.Security.LockoutMaxAttempts, cfg.Security.LockoutDuration)
	tenantService := tenant.NewService(tenantRepo, planRepo, userRepo, patientRepo, auditLogger)
	patientService := patient.NewService(patientRepo, limits, auditLogger)
	staffService := staff.NewService(doctorRepo, memberRepo, identityService, db)
	appointmentService := appointment.NewService(appointmentRepo, patientRepo, doctorRepo, auditLogger)
	prescriptionService := prescription.NewService(prescriptionRepo, patientRepo, auditLogger)
	reportService := report.NewService(reportRepo, fileStore, patientRepo, cfg.Upload.MaxBytes, auditLogger)
	reminderService := reminder.NewService(reminderRepo, auditLogger)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Email.ProviderKey != "" {
		notifier = notify.NewEmailSender(cfg.Email.ProviderURL, cfg.Email.ProviderKey, cfg.Email.From)
	}

	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	dispatcher := reminder.NewDispatcher(reminderRepo, notifier, cfg.Reminder.PollInterval, auditLogger)
	go dispatcher.Run(dispatcherCtx)

	resolver := tenant.NewResolver(tenantRepo, tenantCache, cfg.Redis.TTL)
	tokens := token.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret,
		cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)

	handler := transportHTTP.NewHandler(
		identityService,
		tenantService,
		patientService,
		staffService,
		appointmentService,
		prescriptionService,
		reportService,
		reminderService,
		resolver,
		tokens,
		auditLogger,
		cfg.Upload.MaxBytes,
	)

	router := transportHTTP.NewRouter(handler, rateLimiter, m, transportHTTP.RouterConfig{
		CORSOrigin: cfg.Server.CORSOrigin,
		Timeout:    cfg.Server.RequestTimeout,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", cfg.Observability.ServiceVersion),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	stopDispatcher()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", logger.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		slog.Error("tracer shutdown failed", logger.Error(err))
	}

	slog.Info("server stopped")
}
