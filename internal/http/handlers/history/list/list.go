// Package list реализует HTTP-обработчик выборки журнала действий
// с фильтрами по пользователю, типу действия и диапазону дат.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	dateLayout   = "02-01-2006"
)

// Handler управляет HTTP-запросами на выборку журнала действий.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Читающая сторона журнала действий
}

// Service описывает интерфейс выборки журнала действий.
type Service interface {
	ListActions(ctx context.Context, filter models.ActionFilter) ([]*models.Action, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Журнал действий
// @Description Возвращает страницу журнала действий, новые первыми. Поддерживает фильтры user_id, action_type, from, to.
// @Tags History
// @Produce  json
// @Param user_id query int false "ID пользователя"
// @Param action_type query string false "Тип действия"
// @Param from query string false "Начало диапазона дат (02-01-2006)"
// @Param to query string false "Конец диапазона дат (02-01-2006)"
// @Param limit query int false "Размер страницы (по умолчанию 50, максимум 200)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Записи журнала"
// @Failure 400 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выборке"
// @Router /history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := parseFilter(r)
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	actions, err := h.service.ListActions(r.Context(), filter)
	if err != nil {
		log.Error("failed to list actions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list actions"))
		return
	}

	log.Info("actions listed", slog.Int("count", len(actions)))
	render.JSON(w, r, response.StatusOKWithData(actions))
}

func parseFilter(r *http.Request) (models.ActionFilter, error) {
	q := r.URL.Query()
	filter := models.ActionFilter{Limit: defaultLimit}

	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errInvalidParam("user_id")
		}
		filter.UserID = &id
	}
	if raw := q.Get("action_type"); raw != "" {
		actionType := raw
		filter.ActionType = &actionType
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errInvalidParam("from")
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errInvalidParam("to")
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errInvalidParam("limit")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errInvalidParam("offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}

type paramError string

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func errInvalidParam(name string) error { return paramError(name) }
