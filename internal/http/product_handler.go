package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImagesField is the multipart field carrying product images.
const ImagesField = "productImages"

// multipartMemory is how much of a create form is buffered in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

type CatalogService interface {
	CreateProduct(ctx context.Context, draft domain.ProductDraft, images []domain.Image) (*domain.Product, error)
	SearchProducts(ctx context.Context, term string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type ProductHandler struct {
	service CatalogService
	timeout time.Duration
	log     *zap.Logger
}

func NewProductHandler(service CatalogService, timeout time.Duration, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.service.SearchProducts(ctx, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.service.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Create accepts either a multipart form (text fields plus files under
// ImagesField) or a JSON draft without images.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		draft  domain.ProductDraft
		images []domain.Image
	)
	switch mediaType {
	case "multipart/form-data":
		form, err := parseCreateForm(r)
		if err != nil {
			h.log.Warn("parse create form failed", zap.Error(err))
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart body")
			return
		}
		if form.fieldErr != nil {
			handleServiceError(w, domain.JoinValidation(form.fieldErr, form.draft.Validate(), domain.ValidateImages(form.images)))
			return
		}
		draft, images = form.draft, form.images
	case "application/json", "":
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	default:
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
			fmt.Sprintf("unsupported content type %q", mediaType))
		return
	}

	product, err := h.service.CreateProduct(ctx, draft, images)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

type createForm struct {
	draft  domain.ProductDraft
	images []domain.Image
	// fieldErr reports values that could not be parsed, e.g. a non-numeric price.
	fieldErr error
}

func parseCreateForm(r *http.Request) (createForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return createForm{}, err
	}
	defer r.MultipartForm.RemoveAll()

	draft, fieldErr := domain.DraftFromForm(
		r.FormValue("title"),
		r.FormValue("description"),
		r.FormValue("price"),
		r.FormValue("stock"),
		r.FormValue("category"),
		r.FormValue("brand"),
	)

	headers := r.MultipartForm.File[ImagesField]
	images := make([]domain.Image, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			return createForm{}, err
		}
		images = append(images, img)
	}
	return createForm{draft: draft, images: images, fieldErr: fieldErr}, nil
}

func readImage(fh *multipart.FileHeader) (domain.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Image{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	// one byte past the limit is enough for ValidateImages to reject it
	data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageBytes+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		ct = "" // sniffed from the payload instead
	}
	return domain.Image{
		Filename:    fh.Filename,
		ContentType: ct,
		Data:        data,
	}, nil
}
