package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/patient"
)

// memPatientRepo is an in-memory patient.Repository with real
// tenant filtering, so isolation behavior is exercised end to end.
type memPatientRepo struct {
	mu       sync.Mutex
	patients map[string]*patient.Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{patients: make(map[string]*patient.Patient)}
}

func (m *memPatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) GetByID(ctx context.Context, tenantID, id string) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok || p.TenantID != tenantID {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPatientRepo) Update(ctx context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.patients[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return patient.ErrPatientNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok || p.TenantID != tenantID {
		return patient.ErrPatientNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *memPatientRepo) List(ctx context.Context, tenantID string, filter patient.ListFilter) ([]*patient.Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.patients {
		if p.TenantID != tenantID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memPatientRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.patients {
		if p.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func newPatientTestHandler() *Handler {
	repo := newMemPatientRepo()
	return &Handler{
		patientService: patient.NewService(repo, nil, audit.NewSlogLogger()),
		auditLogger:    audit.NewSlogLogger(),
	}
}

func tenantRequest(method, target, tenantID string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), tenantIDKey, tenantID))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreatePatientStampsResolvedTenant(t *testing.T) {
	h := newPatientTestHandler()

	// A tenant_id in the body must be ignored in favor of the
	// resolved context.
	body := []byte(`{"first_name":"Ada","last_name":"Lovelace","tenant_id":"tenant-evil"}`)
	w := httptest.NewRecorder()
	h.CreatePatient(w, tenantRequest("POST", "/api/v1/patients", "tenant-h1", body))

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, true, resp["success"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, "tenant-h1", data["tenant_id"])
}

func TestCreatePatientValidation(t *testing.T) {
	h := newPatientTestHandler()

	w := httptest.NewRecorder()
	h.CreatePatient(w, tenantRequest("POST", "/api/v1/patients", "tenant-h1", []byte(`{"first_name":"Ada"}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["errors"])
}

func TestPatientTenantIsolation(t *testing.T) {
	h := newPatientTestHandler()

	// Create under h1.
	body := []byte(`{"first_name":"Ada","last_name":"Lovelace"}`)
	w := httptest.NewRecorder()
	h.CreatePatient(w, tenantRequest("POST", "/api/v1/patients", "tenant-h1", body))
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeEnvelope(t, w)["data"].(map[string]any)
	patientID := created["id"].(string)

	getByID := func(tenantID string) *httptest.ResponseRecorder {
		req := tenantRequest("GET", "/api/v1/patients/"+patientID, tenantID, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", patientID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		w := httptest.NewRecorder()
		h.GetPatient(w, req)
		return w
	}

	// Visible in h1.
	assert.Equal(t, http.StatusOK, getByID("tenant-h1").Code)

	// The same id under h2 reads as absence, not as forbidden.
	assert.Equal(t, http.StatusNotFound, getByID("tenant-h2").Code)

	// h1's list contains it; h2's list is empty.
	w = httptest.NewRecorder()
	h.ListPatients(w, tenantRequest("GET", "/api/v1/patients", "tenant-h1", nil))
	resp := decodeEnvelope(t, w)
	assert.Len(t, resp["data"], 1)

	w = httptest.NewRecorder()
	h.ListPatients(w, tenantRequest("GET", "/api/v1/patients", "tenant-h2", nil))
	resp = decodeEnvelope(t, w)
	assert.Empty(t, resp["data"])
}

func TestListPatientsPagination(t *testing.T) {
	h := newPatientTestHandler()

	for i := 0; i < 3; i++ {
		body := []byte(`{"first_name":"P","last_name":"Q"}`)
		w := httptest.NewRecorder()
		h.CreatePatient(w, tenantRequest("POST", "/api/v1/patients", "tenant-h1", body))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	h.ListPatients(w, tenantRequest("GET", "/api/v1/patients?page=1&limit=2", "tenant-h1", nil))

	resp := decodeEnvelope(t, w)
	page := resp["pagination"].(map[string]any)
	assert.Equal(t, float64(1), page["page"])
	assert.Equal(t, float64(2), page["limit"])
	assert.Equal(t, float64(3), page["total"])
	assert.Equal(t, float64(2), page["pages"])
	assert.Equal(t, true, page["hasNext"])
	assert.Equal(t, false, page["hasPrev"])
}
