package verifyotp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService реализует интерфейс verifyotp.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

func TestVerifyOTPHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "верный код",
			body: `{"email":"test@example.com","code":"123456"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyCode", mock.Anything, "test@example.com", "123456").
					Return(true, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"message":"code verified successfully"`,
		},
		{
			name: "неверный или просроченный код",
			body: `{"email":"test@example.com","code":"654321"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyCode", mock.Anything, "test@example.com", "654321").
					Return(false, nil).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid or expired code"`,
		},
		{
			name:           "код не из шести цифр",
			body:           `{"email":"test@example.com","code":"12ab"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Code`,
		},
		{
			name: "ошибка хранилища",
			body: `{"email":"test@example.com","code":"123456"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyCode", mock.Anything, "test@example.com", "123456").
					Return(false, assert.AnError).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to verify code"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/auth/verify-otp", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
