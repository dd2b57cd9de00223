package domain

import (
	"sort"
	"strings"
)

// BaseField collects errors that do not belong to a single field.
const BaseField = "base"

// ValidationErrors groups validation messages by field name.
type ValidationErrors map[string][]string

// Add appends a message for field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// AddToBase appends a message to the base bucket.
func (v ValidationErrors) AddToBase(msg string) {
	v.Add(BaseField, msg)
}

// On returns the messages recorded for field.
func (v ValidationErrors) On(field string) []string {
	return v[field]
}

// Empty reports whether no messages were recorded.
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// Error renders messages as "field msg" pairs in field order, base messages first.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i] == BaseField || fields[j] == BaseField {
			return fields[i] == BaseField && fields[j] != BaseField
		}
		return fields[i] < fields[j]
	})

	var parts []string
	for _, field := range fields {
		for _, msg := range v[field] {
			if field == BaseField {
				parts = append(parts, msg)
				continue
			}
			parts = append(parts, field+" "+msg)
		}
	}
	return strings.Join(parts, ", ")
}

// Validation holds the error set of the last Validate call; entities embed it.
type Validation struct {
	errs ValidationErrors
}

// Errors returns the errors of the last validation (never nil).
func (v *Validation) Errors() ValidationErrors {
	if v.errs == nil {
		v.errs = ValidationErrors{}
	}
	return v.errs
}

func (v *Validation) reset() ValidationErrors {
	v.errs = ValidationErrors{}
	return v.errs
}

func requirePresent(errs ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "can't be blank")
	}
}
