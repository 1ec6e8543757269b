package phone

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrLength = errors.New("номер телефона должен содержать 11 цифр")
	ErrPrefix = errors.New("номер телефона должен начинаться с +7")
)

// Normalize приводит российский номер к виду +7 (XXX) XXX-XX-XX.
// Ведущая 8 считается междугородним префиксом и заменяется на 7.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) != 11 {
		return "", ErrLength
	}
	if digits[0] != '7' && digits[0] != '8' {
		return "", ErrPrefix
	}

	return fmt.Sprintf("+7 (%s) %s-%s-%s",
		digits[1:4], digits[4:7], digits[7:9], digits[9:11]), nil
}
