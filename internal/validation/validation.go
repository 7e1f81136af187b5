// Package validation checks user input before anything is sent to the
// backend.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
)

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 8

// MaxTextLength bounds the free-text journal fields.
const MaxTextLength = 5000

// Symbol pattern: letters, digits and the separators futures and FX use.
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9./!&_-]{1,20}$`)

// Required rejects empty or whitespace-only values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field, value, "is required")
	}
	return nil
}

// Email validates an email address.
func Email(value string) error {
	value = strings.TrimSpace(value)
	if err := Required("email", value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@")+1:], ".") {
		return apperrors.NewValidationError("email", value, "must be a valid email address")
	}
	return nil
}

// Password enforces the minimum length. The value is masked in the error.
func Password(field, value string) error {
	if value == "" {
		return apperrors.NewValidationError(field, "", "is required")
	}
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return apperrors.NewValidationError(field, logging.MaskCredential(value),
			fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// PasswordsMatch checks the confirmation field.
func PasswordsMatch(password, confirmation string) error {
	if password != confirmation {
		return apperrors.NewValidationError("password_confirmation", "", "does not match the password")
	}
	return nil
}

// DateKey validates a YYYY-MM-DD date.
func DateKey(field, value string) (models.DateKey, error) {
	key, err := models.ParseDateKey(strings.TrimSpace(value))
	if err != nil {
		return "", apperrors.NewValidationError(field, value, "must be a date in YYYY-MM-DD form")
	}
	return key, nil
}

// Photos enforces the per-day photo limit.
func Photos(photos []string) error {
	if len(photos) > models.MaxPhotos {
		return apperrors.NewValidationError("photos", len(photos),
			fmt.Sprintf("at most %d photos per day", models.MaxPhotos))
	}
	for _, p := range photos {
		if strings.TrimSpace(p) == "" {
			return apperrors.NewValidationError("photos", p, "photo reference cannot be empty")
		}
	}
	return nil
}

// Mood resolves a mood key and rejects anything unknown.
func Mood(value string) (models.MoodInfo, error) {
	info, ok := models.ResolveMood(value)
	if !ok {
		values := make([]string, 0, 5)
		for _, m := range models.Moods() {
			values = append(values, m.Value)
		}
		return models.MoodInfo{}, apperrors.NewValidationError("mood", value,
			"must be one of "+strings.Join(values, ", "))
	}
	return info, nil
}

// Theme accepts light, dark or system, in any case.
func Theme(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
		return v, nil
	}
	return "", apperrors.NewValidationError("theme", value, "must be light, dark or system")
}

// Symbol validates an instrument filter.
func Symbol(value string) error {
	if !symbolPattern.MatchString(strings.TrimSpace(value)) {
		return apperrors.NewValidationError("symbol", value, "invalid symbol format")
	}
	return nil
}

// Text bounds a free-text field.
func Text(field, text string) error {
	if utf8.RuneCountInString(text) > MaxTextLength {
		return apperrors.NewValidationError(field, utf8.RuneCountInString(text),
			fmt.Sprintf("text too long (max %d characters)", MaxTextLength))
	}
	return nil
}

// SanitizeText removes control characters, keeping newlines and tabs.
func SanitizeText(text string) string {
	var result strings.Builder
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
