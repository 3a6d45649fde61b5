// Package create реализует HTTP-обработчик создания члена администратором.
//
// Если пароль не задан, сервис генерирует временный пароль и возвращает
// его в ответе.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-registry/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Handler управляет HTTP-запросами на создание членов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис управления членами
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс создания члена.
type Service interface {
	Create(ctx context.Context, req models.DummyMember, performedBy int) (*models.User, string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать члена организации
// @Description Создает учётную запись члена со статусом approved. При пустом пароле генерирует временный.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param request body models.DummyMember true "Данные нового члена"
// @Success 200 {object} map[string]any "Созданный член и временный пароль"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании"
// @Router /members [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyMember
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("email", req.Email))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	performedBy, ok := r.Context().Value(middlewarectx.UserID).(int)
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, tempPassword, err := h.service.Create(r.Context(), req, performedBy)
	if err != nil {
		log.Error("failed to create member", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create member"))
		return
	}

	log.Info("member created", slog.Int("id", user.ID))
	data := map[string]any{"member": user}
	if tempPassword != "" {
		data["temp_password"] = tempPassword
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
