package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/carebase/carebase/internal/appointment"
	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/identity"
	"github.com/carebase/carebase/internal/observability/metrics"
	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/prescription"
	"github.com/carebase/carebase/internal/reminder"
	"github.com/carebase/carebase/internal/report"
	"github.com/carebase/carebase/internal/staff"
	"github.com/carebase/carebase/internal/tenant"
	"github.com/carebase/carebase/internal/token"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService     *identity.Service
	tenantService       *tenant.Service
	patientService      *patient.Service
	staffService        *staff.Service
	appointmentService  *appointment.Service
	prescriptionService *prescription.Service
	reportService       *report.Service
	reminderService     *reminder.Service
	resolver            *tenant.Resolver
	tokens              *token.Issuer
	auditLogger         audit.Logger
	maxUploadBytes      int64
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tenantService *tenant.Service,
	patientService *patient.Service,
	staffService *staff.Service,
	appointmentService *appointment.Service,
	prescriptionService *prescription.Service,
	reportService *report.Service,
	reminderService *reminder.Service,
	resolver *tenant.Resolver,
	tokens *token.Issuer,
	auditLogger audit.Logger,
	maxUploadBytes int64,
) *Handler {
	return &Handler{
		identityService:     identityService,
		tenantService:       tenantService,
		patientService:      patientService,
		staffService:        staffService,
		appointmentService:  appointmentService,
		prescriptionService: prescriptionService,
		reportService:       reportService,
		reminderService:     reminderService,
		resolver:            resolver,
		tokens:              tokens,
		auditLogger:         auditLogger,
		maxUploadBytes:      maxUploadBytes,
	}
}

// RouterConfig carries the transport-level knobs for the router.
type RouterConfig struct {
	CORSOrigin string
	Timeout    time.Duration
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, m *metrics.Metrics, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(m.Middleware)
	r.Use(LoggingMiddleware())
	r.Use(RecoverMiddleware)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tenantHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics are tenant-agnostic
	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Platform routes: super admin only, no tenant resolution
		r.Route("/platform", func(r chi.Router) {
			r.Post("/auth/login", h.PlatformLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthenticatePlatform)

				r.Route("/tenants", func(r chi.Router) {
					r.Post("/", h.CreateTenant)
					r.Get("/", h.ListTenants)
					r.Get("/{id}", h.GetTenant)
					r.Patch("/{id}/status", h.SetTenantStatus)
					r.Get("/{id}/usage", h.GetTenantUsage)
				})

				r.Route("/plans", func(r chi.Router) {
					r.Post("/", h.CreatePlan)
					r.Get("/", h.ListPlans)
					r.Get("/{id}", h.GetPlan)
					r.Put("/{id}", h.UpdatePlan)
					r.Delete("/{id}", h.DeletePlan)
				})
			})
		})

		// Tenant-scoped routes: every request resolves its tenant first
		r.Group(func(r chi.Router) {
			r.Use(h.ResolveTenant)

			r.Post("/auth/login", h.Login)
			r.Post("/auth/refresh", h.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)

				r.Post("/auth/logout", h.Logout)
				r.Get("/auth/me", h.GetCurrentUser)
				r.Post("/auth/change-password", h.ChangePassword)

				r.With(h.RequirePermission(authz.PermSubscriptionView)).Get("/subscription", h.GetSubscription)

				r.Route("/patients", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermPatientWrite)).Post("/", h.CreatePatient)
					r.With(h.RequirePermission(authz.PermPatientRead)).Get("/", h.ListPatients)
					r.With(h.RequirePermission(authz.PermPatientRead)).Get("/{id}", h.GetPatient)
					r.With(h.RequirePermission(authz.PermPatientWrite)).Put("/{id}", h.UpdatePatient)
					r.With(h.RequirePermission(authz.PermPatientWrite)).Delete("/{id}", h.DeletePatient)
				})

				r.Route("/doctors", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermStaffManage)).Post("/", h.CreateDoctor)
					r.With(h.RequirePermission(authz.PermStaffRead)).Get("/", h.ListDoctors)
					r.With(h.RequirePermission(authz.PermStaffRead)).Get("/{id}", h.GetDoctor)
					r.With(h.RequirePermission(authz.PermStaffManage)).Put("/{id}", h.UpdateDoctor)
					r.With(h.RequirePermission(authz.PermStaffManage)).Delete("/{id}", h.DeleteDoctor)
				})

				r.Route("/staff", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermStaffManage)).Post("/", h.CreateStaffMember)
					r.With(h.RequirePermission(authz.PermStaffRead)).Get("/", h.ListStaffMembers)
					r.With(h.RequirePermission(authz.PermStaffRead)).Get("/{id}", h.GetStaffMember)
					r.With(h.RequirePermission(authz.PermStaffManage)).Put("/{id}", h.UpdateStaffMember)
					r.With(h.RequirePermission(authz.PermStaffManage)).Delete("/{id}", h.DeleteStaffMember)
				})

				r.Route("/appointments", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermAppointmentWrite)).Post("/", h.CreateAppointment)
					r.With(h.RequirePermission(authz.PermAppointmentRead)).Get("/", h.ListAppointments)
					r.With(h.RequirePermission(authz.PermAppointmentRead)).Get("/{id}", h.GetAppointment)
					r.With(h.RequirePermission(authz.PermAppointmentWrite)).Put("/{id}", h.UpdateAppointment)
					r.With(h.RequirePermission(authz.PermAppointmentWrite)).Patch("/{id}/status", h.UpdateAppointmentStatus)
					r.With(h.RequirePermission(authz.PermAppointmentWrite)).Delete("/{id}", h.DeleteAppointment)
				})

				r.Route("/prescriptions", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermPrescriptionWrite)).Post("/", h.CreatePrescription)
					r.With(h.RequirePermission(authz.PermPrescriptionRead)).Get("/", h.ListPrescriptions)
					r.With(h.RequirePermission(authz.PermPrescriptionRead)).Get("/{id}", h.GetPrescription)
					r.With(h.RequirePermission(authz.PermPrescriptionWrite)).Put("/{id}", h.UpdatePrescription)
					r.With(h.RequirePermission(authz.PermPrescriptionWrite)).Delete("/{id}", h.DeletePrescription)
				})

				r.Route("/reports", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermReportWrite)).Post("/", h.CreateReport)
					r.With(h.RequirePermission(authz.PermReportRead)).Get("/", h.ListReports)
					r.With(h.RequirePermission(authz.PermReportRead)).Get("/{id}", h.GetReport)
					r.With(h.RequirePermission(authz.PermReportRead)).Get("/{id}/file", h.DownloadReportFile)
					r.With(h.RequirePermission(authz.PermReportWrite)).Put("/{id}", h.UpdateReport)
					r.With(h.RequirePermission(authz.PermReportWrite)).Delete("/{id}", h.DeleteReport)
				})

				r.Route("/reminders", func(r chi.Router) {
					r.With(h.RequirePermission(authz.PermReminderWrite)).Post("/", h.CreateReminder)
					r.With(h.RequirePermission(authz.PermReminderRead)).Get("/", h.ListReminders)
					r.With(h.RequirePermission(authz.PermReminderRead)).Get("/{id}", h.GetReminder)
					r.With(h.RequirePermission(authz.PermReminderWrite)).Put("/{id}", h.UpdateReminder)
					r.With(h.RequirePermission(authz.PermReminderWrite)).Delete("/{id}", h.DeleteReminder)
				})
			})
		})
	})

	return r
}

// HealthCheck reports service liveness
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carebase",
	})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pageParams reads page/limit query parameters and clamps them.
func pageParams(r *http.Request) pagination.Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return pagination.Params{Page: page, Limit: limit}.Normalize()
}
