// Package subscriptionmanager предоставляет маршруты для основного приложения.
package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/verifyotp"
	notificationcheckrenewals "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/notification/checkrenewals"
	notificationlist "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/notification/list"
	notificationmarkread "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/notification/markread"
	notificationunreadcount "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/notification/unreadcount"
	subscriptioncreate "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/create"
	subscriptionlist "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/list"
	subscriptionread "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/read"
	subscriptionremove "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/remove"
	subscriptionupdate "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/update"
	subscriptionupcoming "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/upcoming"
	userlist "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/user/list"
	userme "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/user/me"
	userpreferences "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/user/preferences"
	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	notificationservice "github.com/magabrotheeeer/subscription-manager/internal/services/notification"
	resetservice "github.com/magabrotheeeer/subscription-manager/internal/services/reset"
	subscriptionservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	authService *authservice.AuthService,
	resetService *resetservice.ResetService,
	subscriptionService *subscriptionservice.SubscriptionService,
	notificationService *notificationservice.NotificationService,
	publisher notificationcheckrenewals.Publisher,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/forgot-password", forgotpassword.New(logger, resetService).ServeHTTP)
		r.Post("/auth/verify-otp", verifyotp.New(logger, resetService).ServeHTTP)
		r.Post("/auth/reset-password", resetpassword.New(logger, resetService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/subscriptions", subscriptioncreate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions", subscriptionlist.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/upcoming", subscriptionupcoming.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", subscriptionread.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{id}", subscriptionupdate.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", subscriptionremove.New(logger, subscriptionService).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, notificationService).ServeHTTP)
			r.Get("/notifications/unread-count", notificationunreadcount.New(logger, notificationService).ServeHTTP)
			r.Post("/notifications/{id}/read", notificationmarkread.New(logger, notificationService).ServeHTTP)

			r.Get("/users/me", userme.New(logger, authService).ServeHTTP)
			r.Put("/users/me/preferences", userpreferences.New(logger, authService).ServeHTTP)

			// Только для администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Get("/users", userlist.New(logger, authService).ServeHTTP)
				r.Post("/notifications/check-renewals", notificationcheckrenewals.New(logger, publisher).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
