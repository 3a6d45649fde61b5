// Package read реализует HTTP-обработчик чтения данных члена по ID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

// Handler управляет HTTP-запросами на чтение данных члена.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис управления членами
}

// Service описывает интерфейс чтения члена.
type Service interface {
	Read(ctx context.Context, id int) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Данные члена организации
// @Description Возвращает члена по его ID.
// @Tags Members
// @Produce  json
// @Param id path int true "ID члена"
// @Success 200 {object} map[string]any "Данные члена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Член не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении"
// @Router /members/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.read"
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

	user, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("member not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("member not found"))
			return
		}
		log.Error("failed to read member", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read member"))
		return
	}

	log.Info("member read", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(user))
}
