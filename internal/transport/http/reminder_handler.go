package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/reminder"
)

// ReminderRequest carries reminder attributes
type ReminderRequest struct {
	PatientID     string    `json:"patient_id"`
	AppointmentID string    `json:"appointment_id"`
	Recipient     string    `json:"recipient"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	SendAt        time.Time `json:"send_at"`
}

func (req ReminderRequest) toInput() reminder.Input {
	return reminder.Input{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Recipient:     req.Recipient,
		Subject:       req.Subject,
		Body:          req.Body,
		SendAt:        req.SendAt,
	}
}

// CreateReminder schedules a reminder within the tenant
func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rem, err := h.reminderService.Create(r.Context(), GetTenantID(r.Context()), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrInvalidRecipient):
			respondValidation(w, []FieldError{{Field: "recipient", Message: "recipient is required"}})
		case errors.Is(err, reminder.ErrInvalidSendAt):
			respondValidation(w, []FieldError{{Field: "send_at", Message: "send time is required"}})
		default:
			respondError(w, http.StatusInternalServerError, "failed to create reminder")
		}
		return
	}

	respondData(w, http.StatusCreated, rem)
}

// GetReminder retrieves one reminder
func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := h.reminderService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "reminder not found")
		return
	}
	respondData(w, http.StatusOK, rem)
}

// ListReminders lists the tenant's reminders with filters
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	filter := reminder.ListFilter{
		PatientID:     r.URL.Query().Get("patient_id"),
		AppointmentID: r.URL.Query().Get("appointment_id"),
		Status:        reminder.Status(r.URL.Query().Get("status")),
		Limit:         params.Limit,
		Offset:        params.Offset(),
	}

	reminders, total, err := h.reminderService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}

	respondPage(w, reminders, pagination.NewMeta(params, total))
}

// UpdateReminder rewrites a pending reminder
func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rem, err := h.reminderService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		if errors.Is(err, reminder.ErrReminderNotFound) {
			respondError(w, http.StatusNotFound, "reminder not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, http.StatusOK, rem)
}

// DeleteReminder removes a reminder
func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	err := h.reminderService.Delete(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, reminder.ErrReminderNotFound) {
			respondError(w, http.StatusNotFound, "reminder not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}
	respondMessage(w, http.StatusOK, "reminder deleted")
}
