// Package phone validates and formats phone numbers by country calling code.
package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// Rule describes the national number format of one country. Rules are applied
// to the digits-only form of the input.
type Rule struct {
	Pattern   *regexp.Regexp
	MinLength int
	MaxLength int
	Example   string
	Format    func(digits string) string
}

// Result is the outcome of Validate. Err is a *domain.ValidationError when Valid is false.
type Result struct {
	Valid     bool
	Formatted string
	Err       error
}

var nonDigit = regexp.MustCompile(`\D`)

// DefaultRule applies to unrecognised calling codes. It is deliberately
// permissive: digits, dashes, spaces and parens, 6 to 15 characters.
var DefaultRule = Rule{
	Pattern:   regexp.MustCompile(`^[0-9\-\s()]{6,15}$`),
	MinLength: 6,
	MaxLength: 15,
	Example:   "12345678",
}

var rules = map[string]Rule{
	"+1": {
		Pattern:   regexp.MustCompile(`^[2-9]\d{9}$`),
		MinLength: 10,
		MaxLength: 10,
		Example:   "(555) 123-4567",
		Format:    groups("(%s) %s-%s", 3, 3, 4),
	},
	"+44": {
		Pattern:   regexp.MustCompile(`^0?7\d{9}$`),
		MinLength: 10,
		MaxLength: 11,
		Example:   "07911 123456",
		Format:    trunkGroups(4, 6),
	},
	"+234": {
		Pattern:   regexp.MustCompile(`^0?[789][01]\d{8}$`),
		MinLength: 10,
		MaxLength: 11,
		Example:   "0803 123 4567",
		Format:    trunkGroups(4, 3, 4),
	},
	"+233": {
		Pattern:   regexp.MustCompile(`^0?[235]\d{8}$`),
		MinLength: 9,
		MaxLength: 10,
		Example:   "024 123 4567",
		Format:    trunkGroups(3, 3, 4),
	},
	"+254": {
		Pattern:   regexp.MustCompile(`^0?[17]\d{8}$`),
		MinLength: 9,
		MaxLength: 10,
		Example:   "0712 345678",
		Format:    trunkGroups(4, 6),
	},
	"+27": {
		Pattern:   regexp.MustCompile(`^0?[6-8]\d{8}$`),
		MinLength: 9,
		MaxLength: 10,
		Example:   "071 234 5678",
		Format:    trunkGroups(3, 3, 4),
	},
	"+91": {
		Pattern:   regexp.MustCompile(`^[6-9]\d{9}$`),
		MinLength: 10,
		MaxLength: 10,
		Example:   "98765 43210",
		Format:    groups("%s %s", 5, 5),
	},
}

// RuleFor returns the rule for countryCode, or DefaultRule.
func RuleFor(countryCode string) Rule {
	code := strings.TrimSpace(countryCode)
	if code != "" && !strings.HasPrefix(code, "+") {
		code = "+" + code
	}
	if r, ok := rules[code]; ok {
		return r
	}
	return DefaultRule
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Validate checks phone against the rule of countryCode.
func Validate(phone, countryCode string) Result {
	rule := RuleFor(countryCode)
	digits := Digits(phone)

	if digits == "" {
		return invalid("phone number is required")
	}
	if len(digits) < rule.MinLength {
		return invalid(fmt.Sprintf("phone number must be at least %d digits", rule.MinLength))
	}
	if len(digits) > rule.MaxLength {
		return invalid(fmt.Sprintf("phone number must be at most %d digits", rule.MaxLength))
	}
	if !rule.Pattern.MatchString(digits) {
		return invalid(fmt.Sprintf("invalid phone number format, e.g. %s", rule.Example))
	}

	res := Result{Valid: true}
	if rule.Format != nil {
		res.Formatted = rule.Format(digits)
	}
	return res
}

// Format re-formats phone while the user is typing. Input shorter than the
// rule's minimum length is returned unchanged.
func Format(phone, countryCode string) string {
	rule := RuleFor(countryCode)
	digits := Digits(phone)
	if len(digits) < rule.MinLength || rule.Format == nil {
		return phone
	}
	if len(digits) > rule.MaxLength {
		digits = digits[:rule.MaxLength]
	}
	return rule.Format(digits)
}

func invalid(reason string) Result {
	return Result{Err: domain.NewValidationError("phone", reason)}
}

// groups splits digits into fixed-size chunks and renders them with layout.
// Any remainder is appended to the last chunk.
func groups(layout string, sizes ...int) func(string) string {
	return func(digits string) string {
		parts := split(digits, sizes)
		args := make([]any, len(parts))
		for i, p := range parts {
			args[i] = p
		}
		return fmt.Sprintf(layout, args...)
	}
}

// trunkGroups renders national numbers with a leading trunk 0, adding it when
// the user typed the number without one.
func trunkGroups(sizes ...int) func(string) string {
	return func(digits string) string {
		if !strings.HasPrefix(digits, "0") {
			digits = "0" + digits
		}
		return strings.Join(split(digits, sizes), " ")
	}
}

func split(digits string, sizes []int) []string {
	parts := make([]string, 0, len(sizes))
	rest := digits
	for i, n := range sizes {
		if i == len(sizes)-1 || len(rest) <= n {
			parts = append(parts, rest)
			rest = ""
			break
		}
		parts = append(parts, rest[:n])
		rest = rest[n:]
	}
	for len(parts) < len(sizes) {
		parts = append(parts, "")
	}
	return parts
}
