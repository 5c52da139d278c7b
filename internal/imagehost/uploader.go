package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/pkg/circuitbreaker"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("image host is not configured")
	ErrUpload        = errors.New("image upload failed")
)

// StatusError is a non-2xx answer from the image host.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image host returned %d: %s", e.Code, e.Message)
}

// Rejected reports whether the host refused the upload itself rather than failing.
func (e *StatusError) Rejected() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests && e.Code != http.StatusRequestTimeout
}

// breakerSuccess keeps rejected uploads and cancelled callers from opening the breaker.
func breakerSuccess(err error) bool {
	if circuitbreaker.IgnoreCanceled(err) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Rejected()
}

type Uploader interface {
	// Upload stores img and returns its public URL.
	Upload(ctx context.Context, img domain.Image) (string, error)
}

type Config struct {
	Endpoint     string
	UploadPreset string
	Folder       string
	Timeout      time.Duration
}

type HTTPUploader struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.Breaker[string]
}

func NewHTTPUploader(cfg Config, log *zap.Logger) *HTTPUploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPUploader{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[string](breakerConfig(), log),
	}
}

func breakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("imagehost")
	cfg.IsSuccessful = breakerSuccess
	return cfg
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *HTTPUploader) Upload(ctx context.Context, img domain.Image) (string, error) {
	if u.cfg.Endpoint == "" {
		return "", ErrNotConfigured
	}
	url, err := u.breaker.Execute(func() (string, error) {
		return u.upload(ctx, img)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpload, img.Filename, err)
	}
	return url, nil
}

func (u *HTTPUploader) upload(ctx context.Context, img domain.Image) (string, error) {
	body, contentType, err := u.encode(img)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var out uploadResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode/100 != 2 {
		msg := out.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}

	switch {
	case out.SecureURL != "":
		return out.SecureURL, nil
	case out.URL != "":
		return out.URL, nil
	default:
		return "", errors.New("image host response has no url")
	}
}

func (u *HTTPUploader) encode(img domain.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"upload_preset": u.cfg.UploadPreset,
		"folder":        u.cfg.Folder,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, objectName(img)))
	h.Set("Content-Type", img.DetectedType())
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// objectName gives every upload a unique name keeping the original extension.
func objectName(img domain.Image) string {
	ext := path.Ext(img.Filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(img.DetectedType()); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + strings.ToLower(ext)
}
