package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func noMiddlewares() *MiddlewareMap {
	return &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
}

// TestSetupShelfRoutes ensures all expected search and shelf endpoints are implemented.
func TestSetupShelfRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{"index endpoint", httptest.NewRequest(http.MethodGet, "/", nil), true},
		{"status endpoint", httptest.NewRequest(http.MethodGet, "/status", nil), true},
		{"search state endpoint", httptest.NewRequest(http.MethodGet, "/v1/search", nil), true},
		{"trigger search endpoint", httptest.NewRequest(http.MethodPost, "/v1/search", nil), true},
		{"edit query endpoint", httptest.NewRequest(http.MethodPut, "/v1/search/query", nil), true},
		{"list shelf endpoint", httptest.NewRequest(http.MethodGet, "/v1/shelf/books", nil), true},
		{"list shelf endpoint with slash", httptest.NewRequest(http.MethodGet, "/v1/shelf/books/", nil), true},
		{"add shelf book endpoint", httptest.NewRequest(http.MethodPost, "/v1/shelf/books", nil), true},
		{"invalid api endpoint", httptest.NewRequest(http.MethodGet, "/v1", nil), false},
		{"invalid shelf endpoint", httptest.NewRequest(http.MethodGet, "/shelf", nil), false},
		{"single book endpoint", httptest.NewRequest(http.MethodGet, "/v1/shelf/books/OL1W", nil), false},
	}

	api, _, _ := newTestAPIHandler(staticCatalog([]Book{}, nil))
	router := httprouter.New()
	api.SetupShelfRoutes(router, noMiddlewares())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		profiler    bool
		request     *http.Request
		implemented bool
	}{
		{"fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"fetch stats endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/stats", nil), true},
		{"fetch metrics endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/metrics", nil), true},
		{"maintenance mode endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops", nil), false},
		{"unknown ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/unknown", nil), false},
		{"disabled profiler endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"enabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), true},
		{"enabled heap profile endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/heap", nil), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, _ := newTestAPIHandler(nil)
			api.config.ProfilerEnable = tc.profiler
			router := httprouter.New()
			api.SetupOpsRoutes(router, noMiddlewares())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only exposed when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		opsEnabled  bool
		request     *http.Request
		implemented bool
	}{
		{"ops disable:fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), false},
		{"ops enable:fetch configs endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"ops enable:disabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"ops disable:list shelf endpoint", false, httptest.NewRequest(http.MethodGet, "/v1/shelf/books", nil), true},
		{"ops enable:list shelf endpoint", true, httptest.NewRequest(http.MethodGet, "/v1/shelf/books", nil), true},
		{"swagger endpoint", false, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/", nil), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, _, _ := newTestAPIHandler(nil)
			api.config.OpsEndpointsEnable = tc.opsEnabled
			router := api.SetupRoutes(httprouter.New(), noMiddlewares())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	api, _, _ := newTestAPIHandler(nil)
	router := api.SetupRoutes(httprouter.New(), noMiddlewares())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/books/", nil))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	expected := `{"requestid":"", "status":404, "message":"the requested resource does not exist.", "data":{}}`
	assert.JSONEq(t, expected, string(data))
}

// TestSwaggerDoc ensures the registered api description lists the shelf routes.
func TestSwaggerDoc(t *testing.T) {
	doc, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	assert.Contains(t, doc, `"title": "Bookshelf API"`)
	for _, path := range []string{"/v1/search", "/v1/search/query", "/v1/shelf/books"} {
		assert.Contains(t, doc, `"`+path+`"`)
	}
}
