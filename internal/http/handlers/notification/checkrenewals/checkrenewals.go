// Package checkrenewals реализует HTTP-обработчик внеочередного запуска
// сканирования продлений.
//
// Обработчик не выполняет сканирование сам: он публикует запрос в RabbitMQ,
// а планировщик в отдельном процессе потребляет его и запускает проход.
// Доступно только администратору.
package checkrenewals

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/rabbitmq"
)

// Publisher описывает публикацию сообщения в очередь.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// Handler управляет HTTP-запросами на запуск сканирования продлений.
type Handler struct {
	log       *slog.Logger
	publisher Publisher
}

// New создает новый Handler.
func New(log *slog.Logger, publisher Publisher) *Handler {
	return &Handler{log: log, publisher: publisher}
}

// ServeHTTP godoc
// @Summary Запустить сканирование продлений
// @Description Публикует запрос на внеочередное сканирование продлений. Только для администратора.
// @Tags Notifications
// @Produce  json
// @Success 202 {object} map[string]any "Запрос принят"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /notifications/check-renewals [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.checkrenewals"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	req := models.ScanRequest{
		RequestID:   uuid.New().String(),
		RequestedBy: userUID,
		RequestedAt: time.Now().UTC(),
	}
	if err := h.publisher.Publish(rabbitmq.ScanExchange, rabbitmq.ScanRequestRoutingKey, req); err != nil {
		log.Error("failed to publish scan request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to request renewal scan"))
		return
	}

	log.Info("renewal scan requested", slog.String("scan_request_id", req.RequestID))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"request_id": req.RequestID,
		"message":    "renewal scan requested",
	}))
}
