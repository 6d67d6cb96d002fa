package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
)

var (
	ErrShelfNotFound    = errors.New("shelf record not found")
	ErrBookNotInResults = errors.New("book not found in search results")
	ErrNoResults        = errors.New("no search results available")
)

type (
	ContextKey        string
	missingFieldError string
)

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(RequestNumberContextKey); val != nil {
		return val.(uint64)
	}
	return 0
}

// SearchQueryRequest is the body expected to edit the search text.
type SearchQueryRequest struct {
	Query *string `json:"query"`
}

// AddBookRequest is the body expected to shelve a search result.
type AddBookRequest struct {
	ID string `json:"id"`
}

// DecodeSearchQueryRequestBody reads and checks the content of a query edit request.
func DecodeSearchQueryRequestBody(r *http.Request, req *SearchQueryRequest) error {
	if r.Body == nil {
		return errors.New("invalid search query request body")
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return err
	}
	if req.Query == nil {
		return missingFieldError("query")
	}
	return nil
}

// DecodeAddBookRequestBody reads and checks the content of a shelf addition request.
func DecodeAddBookRequestBody(r *http.Request, req *AddBookRequest) error {
	if r.Body == nil {
		return errors.New("invalid add book request body")
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return err
	}
	if len(strings.TrimSpace(req.ID)) == 0 {
		return missingFieldError("id")
	}
	return nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(strings.TrimSpace(ip))
		if netIP != nil {
			return strings.TrimSpace(ip)
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
