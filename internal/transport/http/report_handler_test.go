package http

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebase/carebase/internal/audit"
	"github.com/carebase/carebase/internal/patient"
	"github.com/carebase/carebase/internal/report"
)

type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*report.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*report.Report)}
}

func (m *memReportRepo) Create(ctx context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memReportRepo) GetByID(ctx context.Context, tenantID, id string) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.TenantID != tenantID {
		return nil, report.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReportRepo) Update(ctx context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reports[r.ID]
	if !ok || existing.TenantID != r.TenantID {
		return report.ErrReportNotFound
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memReportRepo) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.TenantID != tenantID {
		return report.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *memReportRepo) List(ctx context.Context, tenantID string, filter report.ListFilter) ([]*report.Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*report.Report
	for _, r := range m.reports {
		if r.TenantID != tenantID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type memFileStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string][]byte)}
}

func (m *memFileStore) Save(tenantID, fileName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := tenantID + "/" + fileName
	m.files[path] = append([]byte(nil), data...)
	return path, nil
}

func (m *memFileStore) Open(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	return data, nil
}

func (m *memFileStore) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

// countingReader tracks how much of the request body a handler
// actually consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func newReportTestHandler(maxBytes int64) *Handler {
	patients := newMemPatientRepo()
	_ = patients.Create(context.Background(), &patient.Patient{
		ID:        "pat-1",
		TenantID:  "tenant-h1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	svc := report.NewService(newMemReportRepo(), newMemFileStore(), patients, maxBytes, audit.NewSlogLogger())
	return &Handler{
		reportService:  svc,
		auditLogger:    audit.NewSlogLogger(),
		maxUploadBytes: maxBytes,
	}
}

func multipartReportBody(t *testing.T, fields map[string]string, fileName string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateReportMultipartUpload(t *testing.T) {
	h := newReportTestHandler(1 << 20)

	body, contentType := multipartReportBody(t, map[string]string{
		"patient_id":  "pat-1",
		"title":       "CBC panel",
		"report_type": "lab",
	}, "cbc.pdf", []byte("pdf bytes"))

	req := tenantRequest("POST", "/api/v1/reports", "tenant-h1", body.Bytes())
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.CreateReport(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "cbc.pdf", data["file_name"])
	assert.Equal(t, "tenant-h1", data["tenant_id"])
}

func TestCreateReportOversizedBodyNotBuffered(t *testing.T) {
	// 1 KiB cap against a 4 MiB upload. The handler must refuse
	// without draining the request body into memory.
	h := newReportTestHandler(1024)

	big := bytes.Repeat([]byte("x"), 4<<20)
	body, contentType := multipartReportBody(t, map[string]string{
		"patient_id": "pat-1",
		"title":      "oversized",
	}, "huge.bin", big)
	total := int64(body.Len())

	counter := &countingReader{r: body}
	req := httptest.NewRequest("POST", "/api/v1/reports", counter)
	req = req.WithContext(context.WithValue(req.Context(), tenantIDKey, "tenant-h1"))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.CreateReport(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Less(t, counter.n, int64(256<<10), "read %d of %d body bytes", counter.n, total)
}

func TestDownloadReportFilenameEscaped(t *testing.T) {
	h := newReportTestHandler(1 << 20)

	fileName := `lab "final".pdf`
	body, contentType := multipartReportBody(t, map[string]string{
		"patient_id": "pat-1",
		"title":      "lab result",
	}, fileName, []byte("contents"))

	req := tenantRequest("POST", "/api/v1/reports", "tenant-h1", body.Bytes())
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.CreateReport(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	reportID := decodeEnvelope(t, w)["data"].(map[string]any)["id"].(string)

	dlReq := tenantRequest("GET", "/api/v1/reports/"+reportID+"/file", "tenant-h1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", reportID)
	dlReq = dlReq.WithContext(context.WithValue(dlReq.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()
	h.DownloadReportFile(w, dlReq)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "contents", w.Body.String())

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, fileName, params["filename"])
}
