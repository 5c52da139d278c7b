package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_bazar/internal/domain"
)

type ProductCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop is a ProductCache that never holds anything. Used when no Redis is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.Product, error) { return nil, ErrCacheMiss }
func (Nop) Set(context.Context, *domain.Product) error           { return nil }
func (Nop) Delete(context.Context, string) error                 { return nil }
