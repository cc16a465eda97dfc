// Package dispatch реализует отправку писем пользователям.
//
// Отправка выполняется по принципу fire-and-forget: Dispatch возвращает
// false при любой неудаче (отсутствие конфигурации, ошибка соединения или
// аутентификации) и никогда не пробрасывает ошибку вызывающему коду.
// Повторных попыток нет: доставка писем — best-effort.
package dispatch

import (
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/smtp"
)

// EmailDispatcher отправляет письма через SMTP-транспорт.
type EmailDispatcher struct {
	transport smtp.Dialer
	log       *slog.Logger
}

// NewEmailDispatcher создает новый экземпляр EmailDispatcher.
func NewEmailDispatcher(transport smtp.Dialer, log *slog.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		transport: transport,
		log:       log,
	}
}

// Dispatch отправляет письмо получателю и возвращает true только при
// подтверждённой передаче письма SMTP-серверу.
func (d *EmailDispatcher) Dispatch(address, subject, body string) bool {
	msg := strings.Join([]string{
		"From: " + d.transport.SenderAddress(),
		"To: " + address,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	client, err := d.transport.Connect()
	if err != nil {
		d.log.Error("failed to connect to SMTP server", sl.Err(err))
		return false
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(d.transport.SenderAddress()); err != nil {
		d.log.Error("failed to set MAIL FROM", slog.String("from", d.transport.SenderAddress()), sl.Err(err))
		return false
	}

	if err := client.Rcpt(address); err != nil {
		d.log.Error("failed to set RCPT TO", slog.String("recipient", address), sl.Err(err))
		return false
	}

	wc, err := client.Data()
	if err != nil {
		d.log.Error("failed to get data writer", sl.Err(err))
		return false
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		d.log.Error("failed to write email body", sl.Err(err))
		return false
	}

	if err = wc.Close(); err != nil {
		d.log.Error("failed to close data writer", sl.Err(err))
		return false
	}

	if err = client.Quit(); err != nil {
		d.log.Error("failed to quit SMTP client", sl.Err(err))
		return false
	}

	d.log.Info("email sent successfully", slog.String("to", address))
	return true
}
