package http

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "reportforge/internal/errors"
	"reportforge/internal/infrastructure"
	"reportforge/internal/report"
	"reportforge/internal/template"
	"reportforge/internal/validation"
)

type mockTemplateStore struct {
	mock.Mock
}

func (m *mockTemplateStore) Save(file []byte, domain report.Domain, originalName, templateName string) (*template.Record, error) {
	args := m.Called(file, domain, originalName, templateName)
	if rec := args.Get(0); rec != nil {
		return rec.(*template.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTemplateStore) Get(id string) (*template.Record, error) {
	args := m.Called(id)
	if rec := args.Get(0); rec != nil {
		return rec.(*template.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTemplateStore) List() []*template.Record {
	return m.Called().Get(0).([]*template.Record)
}

func (m *mockTemplateStore) ListByDomain(domain report.Domain) []*template.Record {
	return m.Called(domain).Get(0).([]*template.Record)
}

func (m *mockTemplateStore) Delete(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockTemplateStore) Count() int {
	return m.Called().Int(0)
}

func newTemplateHandler(store *mockTemplateStore) *TemplateHandler {
	logger := slog.Default()
	return NewTemplateHandler(
		store,
		validation.NewUploadValidator(logger, 1<<20),
		logger,
		apierrors.NewErrorHandler(logger),
		infrastructure.NewMetrics(prometheus.NewRegistry()),
		1<<20,
	)
}

// multipartUpload builds a multipart body with a template file and form fields
func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile(uploadFieldName, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// minimal zip signature so the content check passes
var validXLSX = []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}

func TestUploadEndpoint(t *testing.T) {
	t.Run("stores a valid template", func(t *testing.T) {
		store := &mockTemplateStore{}
		store.On("Save", validXLSX, report.DomainSales, "quarterly.xlsx", "quarterly").
			Return(&template.Record{ID: "tpl-1", Domain: report.DomainSales, Name: "quarterly", Size: 6}, nil)
		store.On("Count").Return(1)

		body, contentType := multipartUpload(t, "quarterly.xlsx", validXLSX, map[string]string{
			"reportType":   "sales",
			"templateName": "quarterly",
		})
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		store.AssertExpectations(t)
	})

	t.Run("missing file part", func(t *testing.T) {
		store := &mockTemplateStore{}

		body, contentType := multipartUpload(t, "", nil, map[string]string{"reportType": "sales"})
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body2 := decodeBody(t, rec)
		assert.Equal(t, "MISSING_PARAMETER", body2["error_code"])
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a non xlsx upload", func(t *testing.T) {
		store := &mockTemplateStore{}

		body, contentType := multipartUpload(t, "report.docx", validXLSX, map[string]string{"reportType": "sales"})
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body2 := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body2["error_code"])
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an upload without a report type", func(t *testing.T) {
		store := &mockTemplateStore{}

		body, contentType := multipartUpload(t, "quarterly.xlsx", validXLSX, nil)
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListEndpoint(t *testing.T) {
	store := &mockTemplateStore{}
	store.On("List").Return([]*template.Record{
		{ID: "tpl-1", Domain: report.DomainSales},
		{ID: "tpl-2", Domain: report.DomainInventory},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newTemplateHandler(store).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestGetByIDEndpoint(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := &mockTemplateStore{}
		store.On("Get", "tpl-1").Return(&template.Record{ID: "tpl-1", Domain: report.DomainSales}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tpl-1", nil)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		store := &mockTemplateStore{}
		store.On("Get", "nope").Return(nil, apierrors.NewNotFoundError("template", "template not found: nope"))

		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteEndpoint(t *testing.T) {
	t.Run("deletes and updates the gauge", func(t *testing.T) {
		store := &mockTemplateStore{}
		store.On("Delete", "tpl-1").Return(nil)
		store.On("Count").Return(0)

		req := httptest.NewRequest(http.MethodDelete, "/tpl-1", nil)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		store.AssertExpectations(t)
	})

	t.Run("missing template", func(t *testing.T) {
		store := &mockTemplateStore{}
		store.On("Delete", "nope").Return(apierrors.NewNotFoundError("template", "template not found: nope"))

		req := httptest.NewRequest(http.MethodDelete, "/nope", nil)
		rec := httptest.NewRecorder()
		newTemplateHandler(store).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListByDomainEndpoint(t *testing.T) {
	store := &mockTemplateStore{}
	store.On("ListByDomain", report.DomainSales).Return([]*template.Record{
		{ID: "tpl-1", Domain: report.DomainSales},
	})

	req := httptest.NewRequest(http.MethodGet, "/domain/sales", nil)
	rec := httptest.NewRecorder()
	newTemplateHandler(store).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}
