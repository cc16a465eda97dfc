// Package smtp реализует транспорт для отправки писем с напоминаниями
// о продлениях и кодами сброса пароля.
package smtp

import "io"

// Session одна SMTP-сессия: последовательность Mail, Rcpt, Data,
// затем Quit или Close. Выделена в интерфейс, чтобы отправку писем
// можно было проверять без реального сервера.
type Session interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает SMTP-сессии и знает адрес отправителя.
type Dialer interface {
	Connect() (Session, error)
	SenderAddress() string
}
