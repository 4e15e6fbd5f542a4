package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// MinPhoneDigits is the shortest phone number accepted before any request is sent.
	MinPhoneDigits = 10
	// MaxPhoneDigits is the longest phone number the storefront accepts.
	MaxPhoneDigits = 11
	// PasswordDigits is the exact length of a numeric account password.
	PasswordDigits = 6
	// CodeDigits is the length of an SMS verification code.
	CodeDigits = 6
)

// ValidationError reports malformed input, caught locally or rejected by the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizePhone strips everything but digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a phone number as 010-1234-5678. Partial input is formatted
// as far as it goes.
func FormatPhone(phone string) string {
	n := NormalizePhone(phone)
	switch {
	case len(n) <= 3:
		return n
	case len(n) <= 7:
		return n[:3] + "-" + n[3:]
	case len(n) <= 11:
		return n[:3] + "-" + n[3:7] + "-" + n[7:]
	default:
		return n[:3] + "-" + n[3:7] + "-" + n[7:11]
	}
}

// MaskPhone hides the middle block: 010-****-5678.
func MaskPhone(phone string) string {
	n := NormalizePhone(phone)
	if len(n) < 8 {
		return FormatPhone(n)
	}
	return n[:3] + "-****-" + n[len(n)-4:]
}

// ValidatePhone checks that phone is a digits-only number of acceptable length.
func ValidatePhone(phone string) error {
	if phone == "" {
		return &ValidationError{Field: "phone_number", Message: "phone number is required"}
	}
	if !allDigits(phone) {
		return &ValidationError{Field: "phone_number", Message: "phone number must contain digits only"}
	}
	if len(phone) < MinPhoneDigits || len(phone) > MaxPhoneDigits {
		return &ValidationError{Field: "phone_number", Message: fmt.Sprintf("phone number must be %d-%d digits", MinPhoneDigits, MaxPhoneDigits)}
	}
	return nil
}

// ValidatePassword checks the 6-digit numeric password rule.
func ValidatePassword(password string) error {
	if len(password) != PasswordDigits || !allDigits(password) {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be exactly %d digits", PasswordDigits)}
	}
	return nil
}

// ValidateCode checks the shape of an SMS verification code.
func ValidateCode(code string) error {
	if len(code) != CodeDigits || !allDigits(code) {
		return &ValidationError{Field: "verification_code", Message: fmt.Sprintf("verification code must be %d digits", CodeDigits)}
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return s != ""
}
