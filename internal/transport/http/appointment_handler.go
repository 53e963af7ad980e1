package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/appointment"
	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/staff"
)

// AppointmentRequest carries appointment attributes
type AppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

// CreateAppointment books an appointment within the tenant
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs []FieldError
	if req.PatientID == "" {
		errs = append(errs, FieldError{Field: "patient_id", Message: "patient id is required"})
	}
	if req.DoctorID == "" {
		errs = append(errs, FieldError{Field: "doctor_id", Message: "doctor id is required"})
	}
	if req.ScheduledAt.IsZero() {
		errs = append(errs, FieldError{Field: "scheduled_at", Message: "scheduled time is required"})
	}
	if errs != nil {
		respondValidation(w, errs)
		return
	}

	a, err := h.appointmentService.Create(r.Context(), GetTenantID(r.Context()), appointment.Input{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		DurationMin: req.DurationMin,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, patient.ErrPatientNotFound):
			respondError(w, http.StatusNotFound, "patient not found")
		case errors.Is(err, staff.ErrDoctorNotFound):
			respondError(w, http.StatusNotFound, "doctor not found")
		default:
			respondError(w, http.StatusInternalServerError, "failed to create appointment")
		}
		return
	}

	respondData(w, http.StatusCreated, a)
}

// GetAppointment retrieves one appointment
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := h.appointmentService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "appointment not found")
		return
	}
	respondData(w, http.StatusOK, a)
}

// ListAppointments lists the tenant's appointments with filters
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	q := r.URL.Query()

	filter := appointment.ListFilter{
		PatientID: q.Get("patient_id"),
		DoctorID:  q.Get("doctor_id"),
		Status:    appointment.Status(q.Get("status")),
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}
	if from, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filter.From = from
	}
	if to, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filter.To = to
	}

	appointments, total, err := h.appointmentService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	respondPage(w, appointments, pagination.NewMeta(params, total))
}

// UpdateAppointment rewrites scheduling details. Status moves only
// through the status endpoint.
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.appointmentService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), appointment.Input{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		DurationMin: req.DurationMin,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			respondError(w, http.StatusNotFound, "appointment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	respondData(w, http.StatusOK, a)
}

// StatusRequest carries an appointment status transition
type StatusRequest struct {
	Status string `json:"status"`
}

// UpdateAppointmentStatus moves an appointment through its lifecycle
func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.appointmentService.UpdateStatus(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), appointment.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrAppointmentNotFound):
			respondError(w, http.StatusNotFound, "appointment not found")
		case errors.Is(err, appointment.ErrInvalidStatus), errors.Is(err, appointment.ErrInvalidTransition):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to update appointment status")
		}
		return
	}
	respondData(w, http.StatusOK, a)
}

// DeleteAppointment removes an appointment
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	err := h.appointmentService.Delete(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			respondError(w, http.StatusNotFound, "appointment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}
	respondMessage(w, http.StatusOK, "appointment deleted")
}
