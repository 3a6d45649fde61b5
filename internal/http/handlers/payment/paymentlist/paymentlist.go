// Package paymentlist реализует HTTP-обработчик выборки платежей члена.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Handler управляет HTTP-запросами на выборку платежей члена.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Читающая сторона платежей
}

// Service описывает интерфейс выборки платежей.
type Service interface {
	ListPaymentsForUser(ctx context.Context, userID int) ([]*models.Payment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Платежи члена организации
// @Description Возвращает все платежи указанного члена, новые первыми.
// @Tags Payments
// @Produce  json
// @Param id path int true "ID члена"
// @Success 200 {object} map[string]any "Список платежей"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выборке"
// @Router /members/{id}/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentlist"
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

	payments, err := h.service.ListPaymentsForUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list payments"))
		return
	}

	log.Info("payments listed", slog.Int("user_id", userID), slog.Int("count", len(payments)))
	render.JSON(w, r, response.StatusOKWithData(payments))
}
