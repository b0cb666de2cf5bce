package models

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ValidationError collects per-field messages of a rejected form
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field validators return the message to show, or "" when the value is valid.

// ValidateSkuCode requires at least 3 characters
func ValidateSkuCode(v string) string {
	return minLength(v, 3, "SKU Code")
}

// ValidateName requires at least 3 characters
func ValidateName(v string) string {
	return minLength(v, 3, "Name")
}

// ValidateDescription requires at least 10 characters
func ValidateDescription(v string) string {
	return minLength(v, 10, "Description")
}

// ValidatePrice requires a price greater than zero
func ValidatePrice(v *float64) string {
	if v == nil {
		return "Price is required."
	}
	if *v <= 0 {
		return "Price must be greater than 0."
	}
	return ""
}

// ValidateQuantity requires a quantity greater than zero
func ValidateQuantity(v *int) string {
	if v == nil {
		return "Quantity cannot be null"
	}
	if *v <= 0 {
		return "Quantity must be greater than 0."
	}
	return ""
}

func minLength(v string, n int, label string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return label + " is required."
	}
	if utf8.RuneCountInString(v) < n {
		return fmt.Sprintf("%s must be at least %d characters long.", label, n)
	}
	return ""
}

// fieldErrors accumulates validator output keyed by JSON field name
type fieldErrors map[string]string

func (f fieldErrors) check(field, msg string) {
	if msg != "" {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return ValidationError{Fields: f}
}
