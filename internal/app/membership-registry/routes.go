// Package membershipregistry предоставляет маршруты для основного приложения.
package membershipregistry

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/membership-registry/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/membership-registry/internal/http/handlers/health"
	historylist "github.com/magabrotheeeer/membership-registry/internal/http/handlers/history/list"
	memberapprove "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/approve"
	membercreate "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/create"
	memberdeny "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/deny"
	memberlist "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/list"
	memberread "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/read"
	memberremove "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/remove"
	memberupdate "github.com/magabrotheeeer/membership-registry/internal/http/handlers/member/update"
	"github.com/magabrotheeeer/membership-registry/internal/http/handlers/payment/paymentlist"
	subcreate "github.com/magabrotheeeer/membership-registry/internal/http/handlers/subscription/create"
	sublist "github.com/magabrotheeeer/membership-registry/internal/http/handlers/subscription/list"
	subupdate "github.com/magabrotheeeer/membership-registry/internal/http/handlers/subscription/update"
	upgradehandler "github.com/magabrotheeeer/membership-registry/internal/http/handlers/upgrade"
	"github.com/magabrotheeeer/membership-registry/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/membership-registry/internal/services/auth"
	memberservice "github.com/magabrotheeeer/membership-registry/internal/services/member"
	subscriptionservice "github.com/magabrotheeeer/membership-registry/internal/services/subscription"
	upgradeservice "github.com/magabrotheeeer/membership-registry/internal/services/upgrade"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	memberService *memberservice.Service,
	subscriptionService *subscriptionservice.Service,
	upgradeService *upgradeservice.Service,
	db *repository.Storage,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(20), 40)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Get("/members", memberlist.New(logger, memberService).ServeHTTP)
			r.Get("/members/{id}", memberread.New(logger, memberService).ServeHTTP)
			r.Get("/members/{id}/subscriptions", sublist.New(logger, subscriptionService).ServeHTTP)
			r.Get("/members/{id}/payments", paymentlist.New(logger, db).ServeHTTP)
			r.Get("/history", historylist.New(logger, db).ServeHTTP)

			// Операции, доступные только суперадминистратору
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireSuperadmin(logger))
				r.Post("/members", membercreate.New(logger, memberService).ServeHTTP)
				r.Put("/members/{id}", memberupdate.New(logger, memberService).ServeHTTP)
				r.Delete("/members/{id}", memberremove.New(logger, memberService).ServeHTTP)
				r.Post("/members/{id}/approve", memberapprove.New(logger, memberService).ServeHTTP)
				r.Post("/members/{id}/deny", memberdeny.New(logger, memberService).ServeHTTP)
				r.Post("/members/{id}/upgrade", upgradehandler.New(logger, upgradeService).ServeHTTP)
				r.Post("/subscriptions", subcreate.New(logger, subscriptionService).ServeHTTP)
				r.Put("/subscriptions/{id}", subupdate.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
