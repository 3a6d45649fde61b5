package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// RequireSuperadmin пропускает запрос дальше только для роли superadmin.
// Должен стоять после JWTMiddleware.
func RequireSuperadmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role != models.RoleSuperadmin {
				log.Error("forbidden: superadmin role required", slog.String("role", role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("superadmin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
