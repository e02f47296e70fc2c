package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed matches every error returned by Apply.
var ErrValidationFailed = errors.New("validation failed")

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the collection returned by Apply.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrValidationFailed }

// Has reports whether field failed any rule.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields groups the messages by field in rule order.
func (e Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Rule is a deferred check with the error it reports.
type Rule struct {
	Check func() bool
	Error FieldError
}

// Apply runs every rule and returns Errors for the failing ones, or nil.
func Apply(rules ...Rule) error {
	var errs Errors
	for _, r := range rules {
		if !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Extract returns the Errors wrapped in err.
func Extract(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}
