package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// ErrNotConfigured возвращается, если SMTP-учётные данные не заданы в конфигурации.
var ErrNotConfigured = errors.New("smtp transport is not configured")

// Transport реализует SMTP транспорт для отправки писем.
type Transport struct {
	cfg config.SMTPConnection
	log *slog.Logger
}

// smtpSession обертка над *smtp.Client, реализующая интерфейс Session.
type smtpSession struct {
	client *smtp.Client
}

func (w *smtpSession) Mail(from string) error {
	return w.client.Mail(from)
}

func (w *smtpSession) Rcpt(to string) error {
	return w.client.Rcpt(to)
}

func (w *smtpSession) Data() (io.WriteCloser, error) {
	return w.client.Data()
}

func (w *smtpSession) Quit() error {
	return w.client.Quit()
}

func (w *smtpSession) Close() error {
	return w.client.Close()
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTPConnection, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// SenderAddress возвращает адрес отправителя.
func (t *Transport) SenderAddress() string {
	return t.cfg.User
}

// Connect устанавливает соединение с SMTP сервером, переключается на TLS
// через STARTTLS и проходит аутентификацию.
func (t *Transport) Connect() (Session, error) {
	if t.cfg.Host == "" || t.cfg.User == "" || t.cfg.Pass == "" {
		return nil, ErrNotConfigured
	}

	addr := t.cfg.Host + ":" + t.cfg.Port

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
	}
	ok, _ := client.Extension("STARTTLS")
	if !ok {
		_ = client.Close()
		t.log.Error("SMTP server does not support STARTTLS")
		return nil, errors.New("smtp server does not support STARTTLS")
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		_ = client.Close()
		t.log.Error("failed to start TLS", sl.Err(err))
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)
	if err = client.Auth(auth); err != nil {
		_ = client.Close()
		t.log.Error("smtp auth failed", sl.Err(err))
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpSession{client: client}, nil
}
