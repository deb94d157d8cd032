// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/dionysus-app/dionysus/internal/middleware"
)

// Router wires handlers, auth, and the Chi middleware stack.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router. chiMW may be nil to use defaults.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global stack, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is handled

	// Ops surface, no auth.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealthEndpoints())
		r.Get("/health", h.Health)
		r.Get("/ready", h.Ready)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Browser login flow, pre-session.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuthEndpoints())
		r.Get("/auth/login", h.Login)
		r.Get("/auth/callback", h.Callback)
	})

	// Credential fallback keeps the strictest limit.
	r.With(router.chiMiddleware.RateLimitLoginEndpoint()).
		Post("/api/v1/auth/token", h.Token)

	// Authenticated API.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)
		r.Use(h.auth.Middleware)

		r.Get("/auth/me", h.Me)

		r.Route("/projects", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
				Post("/", h.CreateProject)
			r.Get("/", h.ListProjects)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Delete("/", h.ArchiveProject)
				r.Post("/members", h.AddMember)

				r.With(router.chiMiddleware.RateLimitSyncEndpoint()).
					Post("/sync", h.TriggerSync)
				r.Get("/sync/status", h.SyncStatus)

				r.Get("/commits", h.ListCommits)

				r.With(router.chiMiddleware.RateLimitAskEndpoint()).
					Post("/questions/ask", h.AskQuestion)
				r.Post("/questions", h.SaveQuestion)
				r.Get("/questions", h.ListQuestions)

				r.Post("/meetings", h.CreateMeeting)
				r.Get("/meetings", h.ListMeetings)
			})
		})

		r.Route("/meetings/{id}", func(r chi.Router) {
			r.Get("/", h.GetMeeting)
			r.Delete("/", h.DeleteMeeting)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/", h.Billing)
			r.Get("/invoices", h.ListInvoices)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
				Post("/checkout", h.Checkout)
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
				Post("/checkout/confirm", h.ConfirmCheckout)
		})

		r.Get("/events", h.Events)
	})

	return r
}
