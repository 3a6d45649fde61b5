// Package deny реализует HTTP-обработчик отклонения заявки члена.
package deny

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-registry/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

// Handler управляет HTTP-запросами на отклонение заявок.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис управления членами
}

// Service описывает интерфейс отклонения заявки.
type Service interface {
	Deny(ctx context.Context, id, performedBy int) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отклонить заявку члена
// @Description Переводит заявку в статус denied и уведомляет члена по почте.
// @Tags Members
// @Produce  json
// @Param id path int true "ID члена"
// @Success 200 {object} map[string]any "Отклонённый член"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Член не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при отклонении"
// @Router /members/{id}/deny [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.deny"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid member id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid member id"))
		return
	}

	performedBy, ok := r.Context().Value(middlewarectx.UserID).(int)
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.service.Deny(r.Context(), id, performedBy)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("member not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("member not found"))
			return
		}
		log.Error("failed to deny member", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not deny member"))
		return
	}

	log.Info("member denied", slog.Int("id", id), slog.Int("performed_by", performedBy))
	render.JSON(w, r, response.StatusOKWithData(user))
}
