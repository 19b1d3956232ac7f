package models

import "strings"

// Field names a required form field
type Field string

const (
	FieldName    Field = "name"
	FieldPax     Field = "pax"
	FieldContact Field = "contact"
)

// ValidationErrors carries one optional message per required field.
// An empty string means the field is fine.
type ValidationErrors struct {
	Name    string `json:"name,omitempty"`
	Pax     string `json:"pax,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Validate checks the required fields. Email, pax and contact formats are
// not checked.
func Validate(form GuestForm) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(form.Name) == "" {
		errs.Name = "Name is required"
	}
	if strings.TrimSpace(form.Pax) == "" {
		errs.Pax = "Pax number is required"
	}
	if strings.TrimSpace(form.Contact) == "" {
		errs.Contact = "Contact number is required"
	}
	return errs
}

// Empty reports whether no field has an error
func (e ValidationErrors) Empty() bool {
	return e.Name == "" && e.Pax == "" && e.Contact == ""
}

// For returns the message for a field
func (e ValidationErrors) For(f Field) string {
	switch f {
	case FieldName:
		return e.Name
	case FieldPax:
		return e.Pax
	case FieldContact:
		return e.Contact
	}
	return ""
}

// First returns the first field in form order that has an error, or "".
func (e ValidationErrors) First() Field {
	for _, f := range []Field{FieldName, FieldPax, FieldContact} {
		if e.For(f) != "" {
			return f
		}
	}
	return ""
}
