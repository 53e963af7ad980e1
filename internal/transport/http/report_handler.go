package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carebase/carebase/internal/pagination"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/report"
)

// maxMultipartMemory bounds in-memory buffering while parsing an
// upload; larger files spill to disk. The per-tenant size cap is
// enforced by the report service.
const maxMultipartMemory = 8 << 20

// uploadSlackBytes is headroom on top of the file cap for multipart
// boundaries and text form fields.
const uploadSlackBytes = 64 << 10

// CreateReport stores a report. Multipart requests may attach a file
// under the "file" field; JSON requests create text-only reports.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeReportInput(w, r)
	if !ok {
		return
	}

	var errs []FieldError
	if in.PatientID == "" {
		errs = append(errs, FieldError{Field: "patient_id", Message: "patient id is required"})
	}
	if in.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}
	if errs != nil {
		respondValidation(w, errs)
		return
	}

	rep, err := h.reportService.Create(r.Context(), GetTenantID(r.Context()), in)
	if err != nil {
		switch {
		case errors.Is(err, patient.ErrPatientNotFound):
			respondError(w, http.StatusNotFound, "patient not found")
		case errors.Is(err, report.ErrFileTooLarge):
			respondError(w, http.StatusBadRequest, "report file exceeds size limit")
		default:
			respondError(w, http.StatusInternalServerError, "failed to create report")
		}
		return
	}

	respondData(w, http.StatusCreated, rep)
}

func (h *Handler) decodeReportInput(w http.ResponseWriter, r *http.Request) (report.Input, bool) {
	var in report.Input

	// Bound the request body before any of it is buffered. The exact
	// file cap is still enforced by the report service.
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+uploadSlackBytes)
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(w, http.StatusRequestEntityTooLarge, "report file exceeds size limit")
				return in, false
			}
			respondError(w, http.StatusBadRequest, "invalid multipart request")
			return in, false
		}
		in.PatientID = r.FormValue("patient_id")
		in.DoctorID = r.FormValue("doctor_id")
		in.Title = r.FormValue("title")
		in.ReportType = r.FormValue("report_type")
		in.Findings = r.FormValue("findings")

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, readErr := io.ReadAll(file)
			if readErr != nil {
				var maxErr *http.MaxBytesError
				if errors.As(readErr, &maxErr) {
					respondError(w, http.StatusRequestEntityTooLarge, "report file exceeds size limit")
					return in, false
				}
				respondError(w, http.StatusBadRequest, "failed to read uploaded file")
				return in, false
			}
			in.FileName = header.Filename
			in.File = data
		}
		return in, true
	}

	var req struct {
		PatientID  string `json:"patient_id"`
		DoctorID   string `json:"doctor_id"`
		Title      string `json:"title"`
		ReportType string `json:"report_type"`
		Findings   string `json:"findings"`
	}
	if !decodeBody(w, r, &req) {
		return in, false
	}
	in.PatientID = req.PatientID
	in.DoctorID = req.DoctorID
	in.Title = req.Title
	in.ReportType = req.ReportType
	in.Findings = req.Findings
	return in, true
}

// GetReport retrieves one report's metadata
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reportService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}
	respondData(w, http.StatusOK, rep)
}

// DownloadReportFile streams a report's attached file
func (h *Handler) DownloadReportFile(w http.ResponseWriter, r *http.Request) {
	rep, data, err := h.reportService.File(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, report.ErrEmptyFile) {
			respondError(w, http.StatusNotFound, "report has no attached file")
			return
		}
		respondError(w, http.StatusNotFound, "report not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rep.FileName}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ListReports lists the tenant's reports with filters
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	filter := report.ListFilter{
		PatientID:  r.URL.Query().Get("patient_id"),
		ReportType: r.URL.Query().Get("report_type"),
		Limit:      params.Limit,
		Offset:     params.Offset(),
	}

	reports, total, err := h.reportService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	respondPage(w, reports, pagination.NewMeta(params, total))
}

// UpdateReport rewrites report text fields
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title"`
		ReportType string `json:"report_type"`
		Findings   string `json:"findings"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	rep, err := h.reportService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), report.Input{
		Title:      req.Title,
		ReportType: req.ReportType,
		Findings:   req.Findings,
	})
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update report")
		return
	}
	respondData(w, http.StatusOK, rep)
}

// DeleteReport removes a report and its file
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	err := h.reportService.Delete(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}
	respondMessage(w, http.StatusOK, "report deleted")
}
