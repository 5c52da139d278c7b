package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_bazar/internal/domain"
)

var (
	ErrProductNotFound = domain.ErrNotFound
	// ErrInvalidID is a not-found: ids that cannot exist are never looked up.
	ErrInvalidID = fmt.Errorf("%w (invalid id)", domain.ErrNotFound)
)

// ProductRepository is the storage port of the catalog service.
type ProductRepository interface {
	// Create stores p and fills in its ID and timestamps.
	Create(ctx context.Context, p *domain.Product) error
	// Search returns every product for an empty term, text matches otherwise.
	Search(ctx context.Context, term string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
