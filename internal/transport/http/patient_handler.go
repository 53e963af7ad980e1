package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/patient"
)

// PatientRequest carries patient attributes. Any tenant identifier in
// the body is ignored; the tenant comes from the resolved context.
type PatientRequest struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	DOB        *time.Time `json:"dob"`
	Gender     string     `json:"gender"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Address    string     `json:"address"`
	BloodGroup string     `json:"blood_group"`
	Allergies  []string   `json:"allergies"`
}

func (req PatientRequest) validate() []FieldError {
	var errs []FieldError
	if req.FirstName == "" {
		errs = append(errs, FieldError{Field: "first_name", Message: "first name is required"})
	}
	if req.LastName == "" {
		errs = append(errs, FieldError{Field: "last_name", Message: "last name is required"})
	}
	return errs
}

func (req PatientRequest) toInput() patient.Input {
	in := patient.Input{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Gender:     req.Gender,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		BloodGroup: req.BloodGroup,
		Allergies:  req.Allergies,
	}
	if req.DOB != nil {
		in.DOB = *req.DOB
	}
	return in
}

// CreatePatient registers a patient under the resolved tenant
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); errs != nil {
		respondValidation(w, errs)
		return
	}

	p, err := h.patientService.Create(r.Context(), GetTenantID(r.Context()), req.toInput())
	if err != nil {
		if errors.Is(err, patient.ErrPatientLimitReached) {
			respondError(w, http.StatusForbidden, "patient limit reached for current plan")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create patient")
		return
	}

	respondData(w, http.StatusCreated, p)
}

// GetPatient retrieves one patient
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.patientService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}
	respondData(w, http.StatusOK, p)
}

// ListPatients lists the tenant's patients with pagination and search
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	filter := patient.ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  params.Limit,
		Offset: params.Offset(),
	}

	patients, total, err := h.patientService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondPage(w, patients, pagination.NewMeta(params, total))
}

// UpdatePatient rewrites a patient's demographics
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); errs != nil {
		respondValidation(w, errs)
		return
	}

	p, err := h.patientService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			respondError(w, http.StatusNotFound, "patient not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update patient")
		return
	}

	respondData(w, http.StatusOK, p)
}

// DeletePatient soft-deletes a patient
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	err := h.patientService.Delete(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			respondError(w, http.StatusNotFound, "patient not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete patient")
		return
	}
	respondMessage(w, http.StatusOK, "patient deleted")
}
