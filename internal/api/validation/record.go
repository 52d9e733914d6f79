package validation

import (
	"regexp"
	"strings"
)

// emailRegex accepts anything shaped like text@text.text. "Text" excludes
// the same whitespace a browser's \s does, which is wider than RE2's \s.
var emailRegex = regexp.MustCompile(`[^\s\v\p{Z}\x{FEFF}]+@[^\s\v\p{Z}\x{FEFF}]+\.[^\s\v\p{Z}\x{FEFF}]+`)

// RecordForm mirrors the fields submitted by the record form.
type RecordForm struct {
	Name  string
	Email string
	Role  string
}

// ValidateRecordForm validates a create or update submission. An empty
// result means the form is valid.
func ValidateRecordForm(form RecordForm) FieldErrors {
	var errs FieldErrors

	if strings.TrimSpace(form.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}

	if strings.TrimSpace(form.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "Email is required"})
	} else if !emailRegex.MatchString(form.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "Email is invalid"})
	}

	if strings.TrimSpace(form.Role) == "" {
		errs = append(errs, FieldError{Field: "role", Message: "Role is required"})
	}

	return errs
}
