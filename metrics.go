package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshelf_catalog_requests_total",
		Help: "Total number of catalog search requests by outcome",
	}, []string{"outcome"})

	CatalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookshelf_catalog_request_duration_seconds",
		Help:    "Duration of catalog search requests in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SearchCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshelf_search_completions_total",
		Help: "Search completions by result: applied or discarded",
	}, []string{"result"})

	ShelfBooks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookshelf_shelf_books",
		Help: "Number of books currently on the shelf",
	})

	ShelfPersistTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshelf_shelf_persist_total",
		Help: "Shelf snapshot writes by outcome",
	}, []string{"outcome"})

	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshelf_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "status"})
)
