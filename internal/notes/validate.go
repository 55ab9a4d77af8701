// Package notes holds the write-path rules shared by the note, category and
// label handlers: validation, sanitizing, public links and partial updates.
package notes

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength        = 500
	MaxContentLength      = 50000
	MaxCategoryNameLength = 100
	MaxLabelNameLength    = 50
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Errors maps a field name to a human-readable problem with it.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Validate checks a note title and content.
func Validate(title, content string) Errors {
	errs := Errors{}
	validateTitle(errs, title)
	validateContent(errs, content)
	return errs
}

// validateTitle treats a title that sanitizes to nothing as missing.
func validateTitle(errs Errors, title string) {
	trimmed := strings.TrimSpace(title)
	switch {
	case Sanitize(trimmed) == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(trimmed) > MaxTitleLength:
		errs["title"] = "Title must be less than 500 characters"
	}
}

func validateContent(errs Errors, content string) {
	if utf8.RuneCountInString(content) > MaxContentLength {
		errs["content"] = "Content must be less than 50,000 characters"
	}
}

// ValidateCategory checks a category name and optional color.
func ValidateCategory(name, color string) Errors {
	errs := Errors{}
	validateName(errs, name, MaxCategoryNameLength, "Category name must be less than 100 characters")
	validateColor(errs, color)
	return errs
}

// ValidateLabel checks a label name and optional color.
func ValidateLabel(name, color string) Errors {
	errs := Errors{}
	validateName(errs, name, MaxLabelNameLength, "Label name must be less than 50 characters")
	validateColor(errs, color)
	return errs
}

func validateName(errs Errors, name string, limit int, tooLong string) {
	trimmed := strings.TrimSpace(name)
	switch {
	case Sanitize(trimmed) == "":
		errs["name"] = "Name is required"
	case utf8.RuneCountInString(trimmed) > limit:
		errs["name"] = tooLong
	}
}

func validateColor(errs Errors, color string) {
	if color != "" && !hexColorRegexp.MatchString(color) {
		errs["color"] = "Color must be a hex color (e.g. #FF0000)"
	}
}
