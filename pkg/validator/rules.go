package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// Required fails for empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: FieldError{Field: field, Message: "is required"},
	}
}

// MaxLen limits the length in bytes.
func MaxLen(field, value string, limit int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= limit },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at most %d bytes long", limit)},
	}
}

// MaxRunes limits the length in characters.
func MaxRunes(field, value string, limit int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= limit },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", limit)},
	}
}

// Email accepts a bare address with a dotted domain. Empty values pass so
// the rule can be paired with Required.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value || addr.Name != "" {
				return false
			}
			at := strings.LastIndexByte(value, '@')
			domain := value[at+1:]
			return at > 0 && strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
		},
		Error: FieldError{Field: field, Message: "must be a valid email address"},
	}
}

// OneOf accepts only the listed values. Empty values pass.
func OneOf(field, value string, allowed ...string) Rule {
	return Rule{
		Check: func() bool { return value == "" || slices.Contains(allowed, value) },
		Error: FieldError{Field: field, Message: "must be one of: " + strings.Join(allowed, ", ")},
	}
}

// When applies rule only if cond holds.
func When(cond bool, rule Rule) Rule {
	if cond {
		return rule
	}
	return Rule{Check: func() bool { return true }}
}
