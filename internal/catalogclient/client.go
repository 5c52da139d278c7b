// Package catalogclient talks to the catalog service HTTP API.
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ImagesField must match the server's multipart field for product images.
const ImagesField = "productImages"

var ErrNotFound = errors.New("catalog: not found")

// APIError is a non-2xx response from the catalog service.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL (e.g.
// "http://localhost:5000/api"). A zero timeout means no client timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Search returns products matching term; the empty term lists the catalog.
func (c *Client) Search(ctx context.Context, term string) ([]domain.Product, error) {
	u := c.baseURL + "/items"
	if term != "" {
		u += "?q=" + url.QueryEscape(term)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	products := []domain.Product{}
	if err := c.do(req, &products); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/items/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var p domain.Product
	if err := c.do(req, &p); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// Create submits draft and images as one multipart request.
func (c *Client) Create(ctx context.Context, draft domain.ProductDraft, images []domain.Image) (*domain.Product, error) {
	body, contentType, err := encodeCreate(draft, images)
	if err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var p domain.Product
	if err := c.do(req, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func encodeCreate(draft domain.ProductDraft, images []domain.Image) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"brand":       draft.Brand,
		"category":    draft.Category,
	}
	if draft.Price != nil {
		fields["price"] = strconv.FormatFloat(*draft.Price, 'f', -1, 64)
	}
	if draft.Stock != nil {
		fields["stock"] = strconv.Itoa(*draft.Stock)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImagesField, img.Filename))
		h.Set("Content-Type", img.DetectedType())
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

type errorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message = body.Message
			apiErr.Code = body.Code
			apiErr.Fields = body.Errors
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Describe turns an error from this package into a message for the shopper:
// the server's message when it sent one, the transport error text otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("request failed with status %d", apiErr.StatusCode)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
