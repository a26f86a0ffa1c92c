// Package validation implements the client-side field checks that block a
// form submission before it ever reaches the network.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/pointsnav/go-pointsnav/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lastFourRegex = regexp.MustCompile(`^\d{4}$`)
)

// ValidationError reports a single failed field check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// SanitizeString strips control characters (except newlines and tabs) and
// trims surrounding whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// ValidateEmail checks that an address looks like an email.
func ValidateEmail(email string) error {
	email = SanitizeString(email)

	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}

	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	return nil
}

// ValidatePassword enforces the password strength policy: at least 8
// characters with an upper-case letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return &ValidationError{Field: "password", Message: "must contain an upper-case letter"}
	}
	if !hasLower {
		return &ValidationError{Field: "password", Message: "must contain a lower-case letter"}
	}
	if !hasDigit {
		return &ValidationError{Field: "password", Message: "must contain a digit"}
	}

	return nil
}

// ValidateLogin checks a credentials pair before submission.
func ValidateLogin(req models.LoginRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}

	if req.Password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}

	return nil
}

// ValidateRegistration checks a new-account form.
func ValidateRegistration(req models.RegisterRequest) error {
	if SanitizeString(req.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}

	if err := ValidateEmail(req.Email); err != nil {
		return err
	}

	return ValidatePassword(req.Password)
}

// ValidateCard checks a card create/update form. The conversion factor must
// be strictly positive; the points calculator relies on the card
// configuration having enforced that here.
func ValidateCard(req models.CardRequest) error {
	if SanitizeString(req.CustomName) == "" {
		return &ValidationError{Field: "custom_name", Message: "is required"}
	}

	if !lastFourRegex.MatchString(SanitizeString(req.LastFourDigits)) {
		return &ValidationError{Field: "last_four_digits", Message: "must be exactly 4 digits"}
	}

	if req.ConversionFactor <= 0 {
		return &ValidationError{Field: "conversion_factor", Message: "must be positive"}
	}

	if req.BrandID == "" {
		return &ValidationError{Field: "brand_id", Message: "is required"}
	}

	if req.ProgramID == "" {
		return &ValidationError{Field: "program_id", Message: "is required"}
	}

	return nil
}

// ValidatePurchase checks a purchase form.
func ValidatePurchase(req models.PurchaseRequest) error {
	if req.Amount < 0 {
		return &ValidationError{Field: "amount", Message: "must be non-negative"}
	}

	if req.PurchaseDate.IsZero() {
		return &ValidationError{Field: "purchase_date", Message: "is required"}
	}

	if req.CardID == "" {
		return &ValidationError{Field: "card_id", Message: "is required"}
	}

	return nil
}

// ValidateDateRange checks an optional report range. Zero times are
// unbounded and always valid.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}

	if end.Before(start) {
		return &ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}

	return nil
}
