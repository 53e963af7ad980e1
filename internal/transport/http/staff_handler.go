package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/authz"
	"github.com/carebase/carebase/internal/identity"
	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/staff"
)

// DoctorRequest carries doctor provisioning attributes. Email and
// password are only used on create.
type DoctorRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	FullName             string `json:"full_name"`
	Specialty            string `json:"specialty"`
	LicenseNumber        string `json:"license_number"`
	ConsultationFeeCents int64  `json:"consultation_fee_cents"`
}

// CreateDoctor provisions a doctor account and profile atomically
func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req DoctorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FullName == "" {
		respondValidation(w, []FieldError{{Field: "full_name", Message: "full name is required"}})
		return
	}

	d, err := h.staffService.CreateDoctor(r.Context(), GetTenantID(r.Context()), staff.DoctorInput{
		Email:                req.Email,
		Password:             req.Password,
		FullName:             req.FullName,
		Specialty:            req.Specialty,
		LicenseNumber:        req.LicenseNumber,
		ConsultationFeeCents: req.ConsultationFeeCents,
	})
	if err != nil {
		respondProvisionError(w, err)
		return
	}

	respondData(w, http.StatusCreated, d)
}

// GetDoctor retrieves one doctor profile
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	d, err := h.staffService.GetDoctor(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "doctor not found")
		return
	}
	respondData(w, http.StatusOK, d)
}

// ListDoctors lists the tenant's doctors
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	doctors, total, err := h.staffService.ListDoctors(r.Context(), GetTenantID(r.Context()), params.Limit, params.Offset())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}
	respondPage(w, doctors, pagination.NewMeta(params, total))
}

// UpdateDoctor rewrites a doctor's profile
func (h *Handler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	var req DoctorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := h.staffService.UpdateDoctor(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), staff.DoctorInput{
		FullName:             req.FullName,
		Specialty:            req.Specialty,
		LicenseNumber:        req.LicenseNumber,
		ConsultationFeeCents: req.ConsultationFeeCents,
	})
	if err != nil {
		if errors.Is(err, staff.ErrDoctorNotFound) {
			respondError(w, http.StatusNotFound, "doctor not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update doctor")
		return
	}
	respondData(w, http.StatusOK, d)
}

// DeleteDoctor removes a doctor profile and disables its account
func (h *Handler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	err := h.staffService.DeleteDoctor(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, staff.ErrDoctorNotFound) {
			respondError(w, http.StatusNotFound, "doctor not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete doctor")
		return
	}
	respondMessage(w, http.StatusOK, "doctor deleted")
}

// StaffMemberRequest carries staff provisioning attributes
type StaffMemberRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}

// CreateStaffMember provisions a staff account and profile atomically
func (h *Handler) CreateStaffMember(w http.ResponseWriter, r *http.Request) {
	var req StaffMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FullName == "" {
		respondValidation(w, []FieldError{{Field: "full_name", Message: "full name is required"}})
		return
	}

	m, err := h.staffService.CreateMember(r.Context(), GetTenantID(r.Context()), staff.MemberInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        authz.Role(req.Role),
		Designation: req.Designation,
		Department:  req.Department,
	})
	if err != nil {
		respondProvisionError(w, err)
		return
	}

	respondData(w, http.StatusCreated, m)
}

// GetStaffMember retrieves one staff profile
func (h *Handler) GetStaffMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.staffService.GetMember(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "staff member not found")
		return
	}
	respondData(w, http.StatusOK, m)
}

// ListStaffMembers lists the tenant's staff
func (h *Handler) ListStaffMembers(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	members, total, err := h.staffService.ListMembers(r.Context(), GetTenantID(r.Context()), params.Limit, params.Offset())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list staff")
		return
	}
	respondPage(w, members, pagination.NewMeta(params, total))
}

// UpdateStaffMember rewrites a staff profile
func (h *Handler) UpdateStaffMember(w http.ResponseWriter, r *http.Request) {
	var req StaffMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.staffService.UpdateMember(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), staff.MemberInput{
		FullName:    req.FullName,
		Designation: req.Designation,
		Department:  req.Department,
	})
	if err != nil {
		if errors.Is(err, staff.ErrMemberNotFound) {
			respondError(w, http.StatusNotFound, "staff member not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update staff member")
		return
	}
	respondData(w, http.StatusOK, m)
}

// DeleteStaffMember removes a staff profile and disables its account
func (h *Handler) DeleteStaffMember(w http.ResponseWriter, r *http.Request) {
	err := h.staffService.DeleteMember(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, staff.ErrMemberNotFound) {
			respondError(w, http.StatusNotFound, "staff member not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete staff member")
		return
	}
	respondMessage(w, http.StatusOK, "staff member deleted")
}

// respondProvisionError maps account provisioning failures onto the
// envelope, keeping validation details separate from server faults.
func respondProvisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail):
		respondValidation(w, []FieldError{{Field: "email", Message: "invalid email address"}})
	case errors.Is(err, identity.ErrWeakPassword):
		respondValidation(w, []FieldError{{Field: "password", Message: "password must be at least 8 characters"}})
	case errors.Is(err, identity.ErrUserAlreadyExists):
		respondError(w, http.StatusBadRequest, "email already in use")
	case errors.Is(err, identity.ErrUserLimitReached):
		respondError(w, http.StatusForbidden, "user limit reached for current plan")
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}
