package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	ProductsCreated  prometheus.Counter
	ImagesUploaded   prometheus.Counter
	ImageUploadFails prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	EventsPublished  prometheus.Counter
	EventsFailed     prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_products_created_total"})
	uploaded := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_images_uploaded_total"})
	uploadFails := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_image_upload_failures_total"})
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_product_cache_hits_total"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_product_cache_misses_total"})
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_events_published_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_events_failed_total"})

	r.MustRegister(
		collectors.NewGoCollector(),
		requests, duration, created, uploaded, uploadFails, hits, misses, published, failed,
	)

	return &Registry{
		reg:              r,
		HTTPRequests:     requests,
		HTTPDuration:     duration,
		ProductsCreated:  created,
		ImagesUploaded:   uploaded,
		ImageUploadFails: uploadFails,
		CacheHits:        hits,
		CacheMisses:      misses,
		EventsPublished:  published,
		EventsFailed:     failed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
