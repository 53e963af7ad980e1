package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/prescription"
)

// PrescriptionRequest carries prescription attributes
type PrescriptionRequest struct {
	PatientID     string              `json:"patient_id"`
	DoctorID      string              `json:"doctor_id"`
	AppointmentID string              `json:"appointment_id"`
	Items         []prescription.Item `json:"items"`
	Notes         string              `json:"notes"`
}

// CreatePrescription writes a prescription within the tenant
func (h *Handler) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	var req PrescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs []FieldError
	if req.PatientID == "" {
		errs = append(errs, FieldError{Field: "patient_id", Message: "patient id is required"})
	}
	if len(req.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one item is required"})
	}
	if errs != nil {
		respondValidation(w, errs)
		return
	}

	p, err := h.prescriptionService.Create(r.Context(), GetTenantID(r.Context()), prescription.Input{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		Items:         req.Items,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			respondError(w, http.StatusNotFound, "patient not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create prescription")
		return
	}

	respondData(w, http.StatusCreated, p)
}

// GetPrescription retrieves one prescription
func (h *Handler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	p, err := h.prescriptionService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "prescription not found")
		return
	}
	respondData(w, http.StatusOK, p)
}

// ListPrescriptions lists the tenant's prescriptions with filters
func (h *Handler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	filter := prescription.ListFilter{
		PatientID: r.URL.Query().Get("patient_id"),
		DoctorID:  r.URL.Query().Get("doctor_id"),
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}

	prescriptions, total, err := h.prescriptionService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list prescriptions")
		return
	}

	respondPage(w, prescriptions, pagination.NewMeta(params, total))
}

// UpdatePrescription rewrites prescription items and notes
func (h *Handler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	var req PrescriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		respondValidation(w, []FieldError{{Field: "items", Message: "at least one item is required"}})
		return
	}

	p, err := h.prescriptionService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), prescription.Input{
		Items: req.Items,
		Notes: req.Notes,
	})
	if err != nil {
		if errors.Is(err, prescription.ErrPrescriptionNotFound) {
			respondError(w, http.StatusNotFound, "prescription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update prescription")
		return
	}
	respondData(w, http.StatusOK, p)
}

// DeletePrescription removes a prescription
func (h *Handler) DeletePrescription(w http.ResponseWriter, r *http.Request) {
	err := h.prescriptionService.Delete(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, prescription.ErrPrescriptionNotFound) {
			respondError(w, http.StatusNotFound, "prescription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete prescription")
		return
	}
	respondMessage(w, http.StatusOK, "prescription deleted")
}
