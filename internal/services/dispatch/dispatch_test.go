package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Session, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Session), args.Error(1)
}

func (m *MockTransport) SenderAddress() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestEmailDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockTransport)
		want       bool
	}{
		{
			name: "success",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				writer := new(MockSMTPWriter)

				tr.On("SenderAddress").Return("sender@example.com")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "sender@example.com").Return(nil).Once()
				client.On("Rcpt", "test@example.com").Return(nil).Once()
				client.On("Data").Return(writer, nil).Once()
				writer.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
				writer.On("Close").Return(nil).Once()
				client.On("Quit").Return(nil).Once()
				client.On("Close").Return(nil).Once()
			},
			want: true,
		},
		{
			name: "transport not configured",
			setupMocks: func(tr *MockTransport) {
				tr.On("SenderAddress").Return("")
				tr.On("Connect").Return(nil, smtp.ErrNotConfigured).Once()
			},
			want: false,
		},
		{
			name: "rcpt rejected",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)

				tr.On("SenderAddress").Return("sender@example.com")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "sender@example.com").Return(nil).Once()
				client.On("Rcpt", "test@example.com").Return(errors.New("550 mailbox unavailable")).Once()
				client.On("Close").Return(nil).Once()
			},
			want: false,
		},
		{
			name: "write failure",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				writer := new(MockSMTPWriter)

				tr.On("SenderAddress").Return("sender@example.com")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "sender@example.com").Return(nil).Once()
				client.On("Rcpt", "test@example.com").Return(nil).Once()
				client.On("Data").Return(writer, nil).Once()
				writer.On("Write", mock.AnythingOfType("[]uint8")).Return(0, errors.New("connection reset")).Once()
				client.On("Close").Return(nil).Once()
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)
			dispatcher := NewEmailDispatcher(transport, newNoopLogger())

			got := dispatcher.Dispatch("test@example.com", "Subscription Renewal Reminder - 1 day(s)", "Netflix renews in 1 day(s) - $15.99")
			assert.Equal(t, tt.want, got)

			transport.AssertExpectations(t)
		})
	}
}

func TestMessageContainsHeaders(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)

	var written []byte
	transport.On("SenderAddress").Return("sender@example.com")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "sender@example.com").Return(nil).Once()
	client.On("Rcpt", "test@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.AnythingOfType("[]uint8")).Run(func(args mock.Arguments) {
		written = args.Get(0).([]byte)
	}).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	dispatcher := NewEmailDispatcher(transport, newNoopLogger())
	ok := dispatcher.Dispatch("test@example.com", "Test Subject", "Test Body")
	assert.True(t, ok)

	msg := string(written)
	assert.Contains(t, msg, "From: sender@example.com\r\n")
	assert.Contains(t, msg, "To: test@example.com\r\n")
	assert.Contains(t, msg, "Subject: Test Subject\r\n")
	assert.Contains(t, msg, "\r\n\r\nTest Body")
}
