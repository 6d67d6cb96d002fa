package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
//
//	@Summary	Service status
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			Message:   "Hello. Bookshelf api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// GetSearch returns the current search session state.
//
//	@Summary	Current search state
//	@Tags		search
//	@Produce	json
//	@Success	200	{object}	APIResponse{data=SearchSnapshot}
//	@Router		/v1/search [get]
func (api *APIHandler) GetSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	snap := api.shelfService.SearchState()
	resp := GenericResponse(requestID, http.StatusOK, "Search state fetched successfully.", nil, snap)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SubmitSearchQuery records the search text. It hides any shown result
// and does not start a search.
//
//	@Summary	Edit the search query
//	@Tags		search
//	@Accept		json
//	@Produce	json
//	@Param		query	body		SearchQueryRequest	true	"query text"
//	@Success	200		{object}	APIResponse{data=SearchSnapshot}
//	@Failure	400		{object}	APIError
//	@Router		/v1/search/query [put]
func (api *APIHandler) SubmitSearchQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req SearchQueryRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeSearchQueryRequestBody(r, &req); err != nil {
		api.logger.Error("failed to submit query", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to submit the query", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	snap := api.shelfService.SubmitQuery(*req.Query)
	api.logger.Info("success to submit query", zap.String("search.query", snap.Query), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Query submitted successfully.", nil, snap)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// TriggerSearch starts a catalog search with the current query. With
// `wait=true` the response is sent once this search has completed.
//
//	@Summary	Run the search
//	@Tags		search
//	@Produce	json
//	@Param		wait	query		bool	false	"wait for completion"
//	@Success	200		{object}	APIResponse{data=SearchSnapshot}
//	@Success	202		{object}	APIResponse{data=SearchSnapshot}
//	@Router		/v1/search [post]
func (api *APIHandler) TriggerSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	// the search outlives this request unless the caller waits for it.
	snap, done := api.shelfService.TriggerSearch(context.WithoutCancel(r.Context()))
	api.logger.Info("search triggered",
		zap.String("search.query", snap.SearchedQuery),
		zap.Uint64("search.seq", snap.Seq),
		zap.String("request.id", requestID),
	)

	if r.URL.Query().Get("wait") != "true" {
		resp := GenericResponse(requestID, http.StatusAccepted, "Search started.", nil, snap)
		if err := WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	select {
	case <-done:
	case <-r.Context().Done():
		api.logger.Info("stopped waiting for search", zap.String("request.id", requestID), zap.Error(r.Context().Err()))
	}
	snap = api.shelfService.SearchState()
	resp := GenericResponse(requestID, http.StatusOK, "Search completed.", nil, snap)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetShelfBooks lists shelf books whose title matches the optional `q` filter.
//
//	@Summary	List shelf books
//	@Tags		shelf
//	@Produce	json
//	@Param		q	query		string	false	"title filter"
//	@Success	200	{object}	APIResponse{data=[]Book}
//	@Router		/v1/shelf/books [get]
func (api *APIHandler) GetShelfBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	query := r.URL.Query().Get("q")
	books := api.shelfService.Shelf(query)
	api.logger.Info("success to get shelf books", zap.String("shelf.query", query), zap.String("request.id", requestID))
	total := len(books)
	resp := GenericResponse(requestID, http.StatusOK, "Shelf books fetched successfully.", &total, books)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// AddShelfBook copies one of the shown search results onto the shelf.
//
//	@Summary	Add a search result to the shelf
//	@Tags		shelf
//	@Accept		json
//	@Produce	json
//	@Param		book	body		AddBookRequest	true	"result id"
//	@Success	201		{object}	APIResponse{data=Book}
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Failure	409		{object}	APIError
//	@Router		/v1/shelf/books [post]
func (api *APIHandler) AddShelfBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req AddBookRequest
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeAddBookRequestBody(r, &req); err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to add the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	// the shelf write must not be cancelled with the request.
	book, err := api.shelfService.AddFromResults(context.WithoutCancel(r.Context()), req.ID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrBookNotInResults):
			status = http.StatusNotFound
		case errors.Is(err, ErrNoResults):
			status = http.StatusConflict
		}
		api.logger.Error("failed to add book", zap.String("book.id", req.ID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, status, err.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.logger.Info("success to add book", zap.String("book.id", book.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusCreated, "Book added successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// NotFound handles unknown routes with the api error format.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		errResp := NewAPIError(requestID, http.StatusNotFound, "the requested resource does not exist.", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}
