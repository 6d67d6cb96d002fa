package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CatalogFields lists the only document fields requested from the catalog.
const CatalogFields = "key,title,author_name,cover_i,first_publish_year"

// Failing stages of a catalog request. They are kept for
// diagnostics only, callers only ever see a RequestError.
const (
	StageTransport = "transport"
	StageStatus    = "status"
	StageDecode    = "decode"
)

// RequestError is the single error kind surfaced by a catalog search.
type RequestError struct {
	Stage string
	Err   error
}

func (e *RequestError) Error() string {
	return "request error"
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// CatalogClient searches the external book catalog.
type CatalogClient interface {
	Search(ctx context.Context, query string) ([]Book, error)
}

type rawResponseDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverI           *int64   `json:"cover_i"`
	FirstPublishYear *int     `json:"first_publish_year"`
}

type rawResponse struct {
	Docs []rawResponseDoc `json:"docs"`
}

// toBook maps a raw catalog document. Absent fields stay absent.
func (d rawResponseDoc) toBook(coversBaseURL string) Book {
	var cover CoverSrc
	if d.CoverI != nil {
		cover = BuildCoverSrc(coversBaseURL, *d.CoverI)
	}
	return NewBook(d.Key, d.Title, d.AuthorName, cover, d.FirstPublishYear)
}

type openLibraryClient struct {
	logger  *zap.Logger
	config  *CatalogConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewCatalogClient provides an Open Library search client.
func NewCatalogClient(logger *zap.Logger, config *CatalogConfig, client *http.Client) CatalogClient {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	limit := rate.Inf
	if config.RatePerSec > 0 {
		limit = rate.Limit(config.RatePerSec)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return &openLibraryClient{
		logger:  logger,
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// SearchURL builds the catalog request url for a given query.
func (oc *openLibraryClient) SearchURL(query string) (string, error) {
	u, err := url.Parse(oc.config.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("fields", CatalogFields)
	q.Set("limit", strconv.Itoa(oc.limit()))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (oc *openLibraryClient) limit() int {
	if oc.config.Limit <= 0 || oc.config.Limit > MaxCatalogLimit {
		return MaxCatalogLimit
	}
	return oc.config.Limit
}

// Search issues a single request without retry and maps the documents into books.
func (oc *openLibraryClient) Search(ctx context.Context, query string) ([]Book, error) {
	start := time.Now()
	books, err := oc.search(ctx, query)
	CatalogRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		stage := StageTransport
		if rerr, ok := err.(*RequestError); ok {
			stage = rerr.Stage
		}
		CatalogRequestsTotal.WithLabelValues(stage).Inc()
		oc.logger.Error("catalog: search failed",
			zap.String("catalog.query", query),
			zap.String("catalog.stage", stage),
			zap.Error(err),
		)
		return nil, err
	}
	CatalogRequestsTotal.WithLabelValues("ok").Inc()
	oc.logger.Debug("catalog: search succeeded",
		zap.String("catalog.query", query),
		zap.Int("catalog.total", len(books)),
		zap.Any("catalog.books", books),
	)
	return books, nil
}

func (oc *openLibraryClient) search(ctx context.Context, query string) ([]Book, error) {
	if oc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, oc.config.Timeout)
		defer cancel()
	}

	if err := oc.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{Stage: StageTransport, Err: err}
	}

	target, err := oc.SearchURL(query)
	if err != nil {
		return nil, &RequestError{Stage: StageTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{Stage: StageTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if oc.config.UserAgent != "" {
		req.Header.Set("User-Agent", oc.config.UserAgent)
	}

	resp, err := oc.client.Do(req)
	if err != nil {
		return nil, &RequestError{Stage: StageTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Stage: StageStatus, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	var raw rawResponse
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &RequestError{Stage: StageDecode, Err: err}
	}
	if raw.Docs == nil {
		return nil, &RequestError{Stage: StageDecode, Err: fmt.Errorf("missing docs field")}
	}

	docs := raw.Docs
	if len(docs) > oc.limit() {
		docs = docs[:oc.limit()]
	}
	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, doc.toBook(oc.config.CoversBaseURL))
	}
	return books, nil
}
