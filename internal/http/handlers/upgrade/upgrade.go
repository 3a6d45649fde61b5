// Package upgrade реализует HTTP-обработчик ручного продления членства
// администратором.
//
// Handler принимает JSON-запрос с параметрами продления, валидирует его,
// извлекает ID члена из пути и ID администратора из контекста и вызывает
// оркестратор продления. В ответе возвращаются созданные подписка и платёж.
package upgrade

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-registry/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/month"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
	"github.com/magabrotheeeer/membership-registry/internal/services/upgrade"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

// Handler управляет HTTP-запросами ручного продления членства.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Оркестратор продления
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс оркестратора продления.
type Service interface {
	ManualUpgrade(ctx context.Context, req upgrade.Request) (*upgrade.Result, error)
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
// @Summary Ручное продление членства
// @Description Создает подписку и платёж одной транзакцией и обновляет категорию членства. Доступно только superadmin.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param id path int true "ID члена"
// @Param request body models.DummyUpgrade true "Параметры продления"
// @Success 200 {object} map[string]any "Созданные подписка и платёж"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 404 {object} response.ErrorResponse "Член не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при продлении"
// @Router /members/{id}/upgrade [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upgrade"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid member id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid member id"))
		return
	}

	var req models.DummyUpgrade
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

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

	result, err := h.service.ManualUpgrade(r.Context(), upgrade.Request{
		UserID:         userID,
		MemberType:     req.MemberType,
		DurationMonths: req.DurationMonths,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		PerformedBy:    performedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("member not found", slog.Int("user_id", userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("member not found"))
		case errors.Is(err, month.ErrInvalidDuration):
			log.Error("invalid duration", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("duration must be a positive number of months"))
		default:
			log.Error("failed to upgrade member", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not upgrade member"))
		}
		return
	}

	log.Info("member upgraded",
		slog.Int("user_id", userID),
		slog.Int("subscription_id", result.Subscription.ID),
		slog.Int("payment_id", result.Payment.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": result.Subscription,
		"payment":      result.Payment,
	}))
}
