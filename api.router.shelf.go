package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupShelfRoutes injects the search and shelf api endpoints.
func (api *APIHandler) SetupShelfRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/v1/search", m.public(api.GetSearch))
	router.POST("/v1/search", m.public(api.TriggerSearch))
	router.PUT("/v1/search/query", m.public(api.SubmitSearchQuery))
	router.GET("/v1/shelf/books", m.public(api.GetShelfBooks))
	router.POST("/v1/shelf/books", m.public(api.AddShelfBook))
	return router
}
