package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/tenant"
)

// TenantRequest carries tenant onboarding attributes
type TenantRequest struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	PlanID    string `json:"plan_id"`
}

// CreateTenant onboards a hospital onto the platform
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.tenantService.CreateTenant(r.Context(), req.Name, req.Subdomain, req.PlanID, GetUserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrInvalidSubdomain):
			respondValidation(w, []FieldError{{Field: "subdomain", Message: "invalid subdomain"}})
		case errors.Is(err, tenant.ErrSubdomainTaken):
			respondError(w, http.StatusBadRequest, "subdomain already in use")
		case errors.Is(err, tenant.ErrPlanNotFound):
			respondError(w, http.StatusBadRequest, "unknown subscription plan")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondData(w, http.StatusCreated, t)
}

// GetTenant retrieves one tenant
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenantService.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondData(w, http.StatusOK, t)
}

// ListTenants lists all tenants on the platform
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	tenants, total, err := h.tenantService.ListTenants(r.Context(), params.Limit, params.Offset())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	respondPage(w, tenants, pagination.NewMeta(params, total))
}

// TenantStatusRequest carries a tenant status change
type TenantStatusRequest struct {
	Status string `json:"status"`
}

// SetTenantStatus suspends, reinstates or cancels a tenant. The
// resolver cache entry is dropped so the change takes effect on the
// next request.
func (h *Handler) SetTenantStatus(w http.ResponseWriter, r *http.Request) {
	var req TenantStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.tenantService.SetStatus(r.Context(), chi.URLParam(r, "id"), tenant.Status(req.Status), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.resolver.Invalidate(r.Context(), t.Subdomain)
	respondData(w, http.StatusOK, t)
}

// GetTenantUsage reports a tenant's consumption against plan limits
func (h *Handler) GetTenantUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.tenantService.Usage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondData(w, http.StatusOK, usage)
}

// SubscriptionResponse pairs a tenant's plan with its current usage
type SubscriptionResponse struct {
	Plan  *tenant.Plan  `json:"plan,omitempty"`
	Usage *tenant.Usage `json:"usage"`
}

// GetSubscription returns the calling tenant's plan and usage
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	tenantID := GetTenantID(r.Context())

	t, err := h.tenantService.GetTenant(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}

	usage, err := h.tenantService.Usage(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read usage")
		return
	}

	resp := SubscriptionResponse{Usage: usage}
	if t.PlanID != "" {
		if plan, err := h.tenantService.GetPlan(r.Context(), t.PlanID); err == nil {
			resp.Plan = plan
		}
	}

	respondData(w, http.StatusOK, resp)
}

// PlanRequest carries subscription plan attributes
type PlanRequest struct {
	Name        string   `json:"name"`
	PriceCents  int64    `json:"price_cents"`
	MaxUsers    int      `json:"max_users"`
	MaxPatients int      `json:"max_patients"`
	Features    []string `json:"features"`
}

// CreatePlan defines a new subscription tier
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.tenantService.CreatePlan(r.Context(), req.Name, req.PriceCents, req.MaxUsers, req.MaxPatients, req.Features)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, http.StatusCreated, p)
}

// GetPlan retrieves one plan
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.tenantService.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "plan not found")
		return
	}
	respondData(w, http.StatusOK, p)
}

// ListPlans lists all subscription plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	plans, total, err := h.tenantService.ListPlans(r.Context(), params.Limit, params.Offset())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	respondPage(w, plans, pagination.NewMeta(params, total))
}

// UpdatePlan rewrites a plan's attributes
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.tenantService.UpdatePlan(r.Context(), chi.URLParam(r, "id"), req.Name, req.PriceCents, req.MaxUsers, req.MaxPatients, req.Features)
	if err != nil {
		if errors.Is(err, tenant.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "plan not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, http.StatusOK, p)
}

// DeletePlan removes a plan
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	err := h.tenantService.DeletePlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, tenant.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}
	respondMessage(w, http.StatusOK, "plan deleted")
}
