// Package validation checks and cleans user-supplied input before it reaches
// PokeAPI or storage.
package validation

import (
	"fmt"
	"html"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxPokemonID         = 1025
	MaxPokemonNameLength = 50
	MaxSearchQueryLength = 100
)

var (
	validate     *validator.Validate
	strictPolicy = bluemonday.StrictPolicy()
	pokemonName  = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func init() {
	validate = validator.New()

	// Use JSON tag names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldErrors maps a JSON field path such as "members[0].level" to a
// readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fe[field])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ValidateStruct runs the struct's validate tags. Failures come back as
// FieldErrors.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fe := make(FieldErrors, len(validationErrors))
	for _, fieldError := range validationErrors {
		fe[fieldPath(fieldError)] = fieldErrorMessage(fieldError)
	}
	return fe
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return ns
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
}

// IsValidPokemonID reports whether id is a national dex number.
func IsValidPokemonID(id int) bool {
	return id > 0 && id <= MaxPokemonID
}

// ParsePokemonID parses a decimal id and checks its range.
func ParsePokemonID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !IsValidPokemonID(id) {
		return 0, false
	}
	return id, true
}

// IsValidPokemonName accepts lower-case ASCII letters, digits and hyphens,
// up to MaxPokemonNameLength characters.
func IsValidPokemonName(name string) bool {
	return len(name) <= MaxPokemonNameLength && pokemonName.MatchString(name)
}

// SanitizeURL returns the normalized form of an absolute https URL, or ""
// for anything else.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// EscapeHTML escapes &, <, >, " and '.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// SanitizeString strips all markup, leaving escaped text safe to render.
func SanitizeString(input string) string {
	return strictPolicy.Sanitize(input)
}

// SanitizeSearchQuery removes angle brackets, trims surrounding whitespace and
// truncates to MaxSearchQueryLength runes.
func SanitizeSearchQuery(query string) string {
	query = strings.NewReplacer("<", "", ">", "").Replace(query)
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) <= MaxSearchQueryLength {
		return query
	}
	return string([]rune(query)[:MaxSearchQueryLength])
}
