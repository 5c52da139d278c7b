package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/imagehost"
	"github.com/fjod/go_bazar/internal/metrics"
	"github.com/fjod/go_bazar/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type CatalogServiceMock struct {
	products []domain.Product
	err      error

	lastTerm   string
	lastDraft  domain.ProductDraft
	lastImages []domain.Image
	creates    int
}

func (m *CatalogServiceMock) SearchProducts(_ context.Context, term string) ([]domain.Product, error) {
	m.lastTerm = term
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *CatalogServiceMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *CatalogServiceMock) CreateProduct(_ context.Context, draft domain.ProductDraft, images []domain.Image) (*domain.Product, error) {
	m.creates++
	m.lastDraft = draft
	m.lastImages = images
	if m.err != nil {
		return nil, m.err
	}
	p := draft.Product()
	p.ID = "65f1c0ffee0000000000abcd"
	for _, img := range images {
		p.Images = append(p.Images, "https://img.example/"+img.Filename)
	}
	return &p, nil
}

func newTestRouter(svc CatalogService) http.Handler {
	return NewRouter(RouterConfig{
		Products:       NewProductHandler(svc, 5*time.Second, zap.NewNop()),
		Metrics:        metrics.NewRegistry(),
		Log:            zap.NewNop(),
		RequestTimeout: 5 * time.Second,
		MaxBodySize:    26 << 20,
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSearch_Success(t *testing.T) {
	svc := &CatalogServiceMock{products: []domain.Product{
		{ID: "1", Title: "Mochila", Price: 120000, Images: []string{}, Rating: []float64{4}},
		{ID: "2", Title: "Taza", Price: 15000, Images: []string{}, Rating: []float64{0}},
	}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items?q=moch", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "moch", svc.lastTerm)

	var got []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "Mochila", got[0].Title)
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items?q=zzz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSearch_ServiceError(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{err: errors.New("mongo down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

func TestGet_Success(t *testing.T) {
	svc := &CatalogServiceMock{products: []domain.Product{{ID: "abc", Title: "Mochila"}}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "abc", got.ID)
}

func TestGet_NotFound(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestGet_InvalidID(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{err: repository.ErrInvalidID})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/not-hex", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found (invalid id)", decodeError(t, rec).Message)
}

func TestCreate_JSON(t *testing.T) {
	svc := &CatalogServiceMock{}
	router := newTestRouter(svc)

	body := `{"title":"Mochila","description":"Cuero","price":120000,"stock":3,"category":"bolsos"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.lastDraft.Price)
	assert.Equal(t, 120000.0, *svc.lastDraft.Price)

	var got domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "65f1c0ffee0000000000abcd", got.ID)
	assert.Equal(t, []float64{0}, got.Rating)
}

func TestCreate_InvalidJSON(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/create", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestCreate_ValidationErrorFromService(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add("price", "price cannot be negative")
	router := newTestRouter(&CatalogServiceMock{err: verr})

	body := `{"title":"Mochila","description":"Cuero","price":-5,"stock":3,"category":"bolsos"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Equal(t, map[string]string{"price": "price cannot be negative"}, resp.Errors)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImagesField, name))
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestCreate_Multipart(t *testing.T) {
	svc := &CatalogServiceMock{}
	router := newTestRouter(svc)

	body, ct := multipartBody(t, map[string]string{
		"title":       " Mochila ",
		"description": "Cuero",
		"price":       "120000",
		"stock":       "3",
		"category":    "bolsos",
	}, map[string][]byte{"a.png": []byte("\x89PNG\r\n\x1a\n0000")})

	req := httptest.NewRequest(http.MethodPost, "/api/create", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Mochila", svc.lastDraft.Title)
	require.Len(t, svc.lastImages, 1)
	assert.Equal(t, "a.png", svc.lastImages[0].Filename)
	assert.Equal(t, "image/png", svc.lastImages[0].ContentType)
}

func TestCreate_MultipartBadNumbersNeverReachService(t *testing.T) {
	svc := &CatalogServiceMock{}
	router := newTestRouter(svc)

	body, ct := multipartBody(t, map[string]string{
		"title":       "Mochila",
		"description": "Cuero",
		"price":       "abc",
		"stock":       "1.5",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/create", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "price must be a number", resp.Errors["price"])
	assert.Equal(t, "stock must be a whole number", resp.Errors["stock"])
	assert.Equal(t, "category is required", resp.Errors["category"])
	assert.Zero(t, svc.creates)
}

func TestCreate_UnsupportedMediaType(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/create", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{repository.ErrProductNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: a.png: boom", imagehost.ErrUpload), http.StatusBadGateway, "image_upload_failed"},
		{imagehost.ErrNotConfigured, http.StatusServiceUnavailable, "image_host_unavailable"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{fmt.Errorf("get product: %w", context.Canceled), statusClientClosedRequest, "request_canceled"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(&CatalogServiceMock{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `catalog_http_requests_total{method="GET",route="/api/items",status="200"}`)
}
