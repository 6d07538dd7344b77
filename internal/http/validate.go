package http

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const passwordSpecials = "@$!%*?&"

func validEmail(email string) bool {
	return emailRe.MatchString(email)
}

func passwordErrors(pw string) []FieldError {
	var errs []FieldError
	if len(pw) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "Password must be at least 8 characters long"})
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit || !strings.ContainsAny(pw, passwordSpecials) {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character",
		})
	}
	return errs
}

// validateCredentials covers registration and guest upgrade: email format,
// password strength, confirmation match. All failures are collected so the
// client gets field-level detail in one response.
func validateCredentials(email, password, confirm string) []FieldError {
	var errs []FieldError
	if !validEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "Please provide a valid email address"})
	}
	errs = append(errs, passwordErrors(password)...)
	if password != confirm {
		errs = append(errs, FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	return errs
}
