package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_bazar/internal/cache"
	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/events"
	"github.com/fjod/go_bazar/internal/imagehost"
	"github.com/fjod/go_bazar/internal/metrics"
	"github.com/fjod/go_bazar/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// maxParallelUploads bounds concurrent requests to the image host per product.
	maxParallelUploads = 3
	// fetchTimeout bounds a shared product lookup once it no longer follows any one caller.
	fetchTimeout = 10 * time.Second
)

type CatalogService struct {
	repo    repository.ProductRepository
	cache   cache.ProductCache
	images  imagehost.Uploader
	events  events.Publisher
	metrics *metrics.Registry
	log     *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede on hot products
}

type Option func(*CatalogService)

func WithLogger(l *zap.Logger) Option { return func(s *CatalogService) { s.log = l } }

func WithMetrics(m *metrics.Registry) Option { return func(s *CatalogService) { s.metrics = m } }

func NewCatalogService(
	repo repository.ProductRepository,
	productCache cache.ProductCache,
	images imagehost.Uploader,
	publisher events.Publisher,
	opts ...Option,
) *CatalogService {
	s := &CatalogService{
		repo:   repo,
		cache:  productCache,
		images: images,
		events: publisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	return s
}

func (s *CatalogService) CreateProduct(ctx context.Context, draft domain.ProductDraft, images []domain.Image) (*domain.Product, error) {
	draft.Normalize()
	if err := validateCreate(draft, images); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}

	product := draft.Product()
	product.Images = urls

	if err := s.repo.Create(ctx, &product); err != nil {
		s.log.Error("repo create product error", zap.Error(err))
		return nil, err
	}
	s.metrics.ProductsCreated.Inc()
	s.log.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("title", product.Title),
		zap.Int("images", len(product.Images)))

	if err := s.events.PublishProductCreated(ctx, &product); err != nil {
		// the product is stored; a lost event is not a failed create
		s.metrics.EventsFailed.Inc()
		s.log.Warn("publish product created failed", zap.String("product_id", product.ID), zap.Error(err))
	} else {
		s.metrics.EventsPublished.Inc()
	}

	return &product, nil
}

func validateCreate(draft domain.ProductDraft, images []domain.Image) error {
	return domain.JoinValidation(draft.Validate(), domain.ValidateImages(images))
}

func (s *CatalogService) uploadImages(ctx context.Context, images []domain.Image) ([]string, error) {
	urls := make([]string, len(images))
	if len(images) == 0 {
		return urls, nil
	}
	if s.images == nil {
		return nil, imagehost.ErrNotConfigured
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			url, err := s.images.Upload(gctx, img)
			if err != nil {
				s.metrics.ImageUploadFails.Inc()
				return err
			}
			s.metrics.ImagesUploaded.Inc()
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("image upload error", zap.Error(err))
		return nil, err
	}
	return urls, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := s.repo.Search(ctx, strings.TrimSpace(term))
	if err != nil {
		s.log.Error("repo search error", zap.String("term", term), zap.Error(err))
		return nil, err
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.ErrInvalidID
	}

	// the lookup is shared by every caller of id, so one caller going away
	// must not fail the others
	ch := s.sfg.DoChan(id, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.fetchProduct(fetchCtx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Product), nil
	}
}

func (s *CatalogService) fetchProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.cache.Get(ctx, id)
	if err == nil {
		s.metrics.CacheHits.Inc()
		return product, nil
	}
	s.metrics.CacheMisses.Inc()
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache get error", zap.String("product_id", id), zap.Error(err)) // log cache error but continue
	}

	product, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(setCtx, product); err != nil {
		s.log.Warn("cache set error", zap.String("product_id", id), zap.Error(err))
	}

	return product, nil
}

// WarmCache loads productID from the repository into the cache, replacing
// any cached copy. A product the repository no longer has is evicted.
func (s *CatalogService) WarmCache(ctx context.Context, productID string) error {
	product, err := s.repo.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		if derr := s.cache.Delete(ctx, productID); derr != nil {
			s.log.Warn("cache delete error", zap.String("product_id", productID), zap.Error(derr))
		}
		return err
	}
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, product)
}
