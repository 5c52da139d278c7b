// Package storefront renders the shop in the terminal and wires the cart and
// the catalog queries together.
package storefront

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fjod/go_bazar/internal/catalogclient"
	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/query"
)

// Catalog is the remote product API.
type Catalog interface {
	Search(ctx context.Context, term string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, draft domain.ProductDraft, images []domain.Image) (*domain.Product, error)
}

type (
	SearchState = query.State[string, []domain.Product]
	DetailState = query.State[string, *domain.Product]
	CreateState = query.MutationState[*domain.Product]
)

type CreateInput struct {
	Draft  domain.ProductDraft
	Images []domain.Image
}

const notFoundMessage = "Product not found or invalid id"

// describeDetail keeps "not found" apart from other failures on the detail
// view.
func describeDetail(err error) string {
	if errors.Is(err, catalogclient.ErrNotFound) {
		return notFoundMessage
	}
	return catalogclient.Describe(err)
}

// Browser owns the search, detail and create lifecycles of one session.
type Browser struct {
	search *query.Query[string, []domain.Product]
	detail *query.Query[string, *domain.Product]
	create *query.Mutation[CreateInput, *domain.Product]

	// RedirectDelay is how long a successful create stays on screen before
	// the new product is shown.
	RedirectDelay time.Duration
}

func NewBrowser(catalog Catalog, redirectDelay time.Duration) *Browser {
	return &Browser{
		search: query.New[string, []domain.Product](catalog.Search, query.WithDescriber(catalogclient.Describe)),
		detail: query.New[string, *domain.Product](catalog.GetByID, query.WithDescriber(describeDetail)),
		create: query.NewMutation(func(ctx context.Context, in CreateInput) (*domain.Product, error) {
			return catalog.Create(ctx, in.Draft, in.Images)
		}, query.WithDescriber(catalogclient.Describe)),
		RedirectDelay: redirectDelay,
	}
}

// Search shows results for term; surrounding whitespace is ignored.
func (b *Browser) Search(ctx context.Context, term string) (SearchState, error) {
	b.search.SetKey(strings.TrimSpace(term))
	return b.search.Wait(ctx)
}

// Retry refetches the current search after a failure.
func (b *Browser) Retry(ctx context.Context) (SearchState, error) {
	b.search.Refetch()
	return b.search.Wait(ctx)
}

func (b *Browser) Product(ctx context.Context, id string) (DetailState, error) {
	b.detail.SetKey(strings.TrimSpace(id))
	return b.detail.Wait(ctx)
}

// Create validates form locally, submits it, and after RedirectDelay loads
// the created product. Local validation failures never reach the catalog.
func (b *Browser) Create(ctx context.Context, form CreateForm) (CreateState, error) {
	in, err := form.Build()
	if err != nil {
		return CreateState{Status: query.Error, Err: err.Error()}, err
	}

	st, err := b.create.Submit(ctx, in)
	if err != nil {
		return st, err
	}

	if b.RedirectDelay > 0 {
		t := time.NewTimer(b.RedirectDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
	return st, nil
}

func (b *Browser) Close() {
	b.search.Close()
	b.detail.Close()
}

// CreateForm holds the raw create form input. Images are file paths.
type CreateForm struct {
	Title       string
	Description string
	Price       string
	Stock       string
	Category    string
	Brand       string
	ImagePaths  []string
}

// Build parses and validates the form the same way the catalog service does.
func (f CreateForm) Build() (CreateInput, error) {
	draft, formErr := domain.DraftFromForm(f.Title, f.Description, f.Price, f.Stock, f.Category, f.Brand)

	images := make([]domain.Image, 0, len(f.ImagePaths))
	readErr := &domain.ValidationError{}
	for _, path := range f.ImagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			readErr.Add("images", "cannot read "+filepath.Base(path))
			continue
		}
		images = append(images, domain.Image{Filename: filepath.Base(path), Data: data})
	}

	if err := domain.JoinValidation(formErr, readErr.OrNil(), draft.Validate(), domain.ValidateImages(images)); err != nil {
		return CreateInput{}, err
	}
	return CreateInput{Draft: draft, Images: images}, nil
}
