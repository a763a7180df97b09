// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/vidstream/internal/auth"
	"github.com/tomtom215/vidstream/internal/middleware"
)

// Router wires handlers and middleware onto a chi mux.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
	mediaDir      string
}

// RouterOption configures optional routes.
type RouterOption func(*Router)

// WithMediaDir serves dir under /media/ for the local media backend.
func WithMediaDir(dir string) RouterOption {
	return func(r *Router) { r.mediaDir = dir }
}

// NewRouter creates a router. A nil chiMW uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware, opts ...RouterOption) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	router := &Router{handler: handler, auth: authMW, chiMiddleware: chiMW}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

// SetupChi builds the HTTP handler for every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(router.auth.RequireAuth)
			r.Post("/{videoId}", h.RecordView)
			r.Get("/{videoId}", h.VideoAnalytics)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(router.auth.RequireAuth)
			r.Get("/", h.ListUsers)
			r.Get("/me", h.Me)
			r.Put("/me", h.SyncProfile)
			r.Patch("/me", h.UpdateProfile)
			r.Delete("/me", h.DeleteMe)
			r.Put("/me/subscription", h.SetSubscription)
			r.Get("/{id}", h.GetUser)
			r.Get("/{id}/subscription", h.UserSubscription)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(router.auth.Authenticate)
			r.Get("/", h.ListVideos)
			r.Get("/{id}", h.GetVideo)
			r.Post("/{id}/view", h.CountView)
			r.Get("/{id}/playback", h.Playback)

			r.Group(func(r chi.Router) {
				r.Use(router.auth.RequireAuth)
				r.Post("/", h.UploadVideo)
				r.Put("/{id}", h.UpdateVideo)
				r.Delete("/{id}", h.DeleteVideo)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	if router.mediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(router.mediaDir)))
		r.Get("/media/*", fs.ServeHTTP)
		r.Head("/media/*", fs.ServeHTTP)
	}

	return r
}
