// Package otp реализует генерацию одноразовых числовых кодов
// для подтверждения сброса пароля.
//
// Коды генерируются криптографически стойким источником случайности:
// предсказуемый PRNG здесь недопустим.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength длина одноразового кода в цифрах.
const CodeLength = 6

// GenerateCode возвращает числовой код фиксированной длины,
// каждая цифра которого получена из crypto/rand.
// Ведущие нули допустимы: код — строка, а не число.
func GenerateCode() (string, error) {
	const op = "otp.GenerateCode"
	buf := make([]byte, 0, CodeLength)
	for range CodeLength {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf = append(buf, byte('0'+n.Int64()))
	}
	return string(buf), nil
}
