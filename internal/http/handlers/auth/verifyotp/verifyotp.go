// Package verifyotp реализует HTTP-обработчик проверки одноразового кода.
//
// Успешная проверка потребляет код: повторная проверка того же кода вернёт отказ.
// Ответ не различает неверный и просроченный код.
package verifyotp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Request — входные данные для проверки кода.
type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// Handler обрабатывает HTTP-запросы на проверку кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс сервиса сброса пароля.
type Service interface {
	VerifyCode(ctx context.Context, email, code string) (bool, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверить одноразовый код
// @Description Проверяет код, отправленный на email, и потребляет его при успехе.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email и шестизначный код"
// @Success 200 {object} map[string]any "Код верен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неверный код"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/verify-otp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyotp"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	ok, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		log.Error("failed to verify code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to verify code"))
		return
	}
	if !ok {
		log.Info("code rejected")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid or expired code"))
		return
	}

	log.Info("code verified")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "code verified successfully",
	}))
}
