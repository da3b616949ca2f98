package config

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// collectionNameReserved are the runes a seeded collection name may not
// contain; the HTTP API addresses collections by name in the path.
const collectionNameReserved = "/?#%"

// validate reports fields by their koanf key, so messages name the same
// path as the YAML files and APP_ variables.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("koanf"); name != "" && name != "-" {
			return name
		}

		return fld.Name
	})

	return v
}

// Validate checks the struct tags and the rules that span sections.
// Validation fails fast - qpq should not start with invalid config.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}

		for _, e := range validationErrors {
			problems = append(problems, formatFieldError(e))
		}
	}

	problems = append(problems, c.checkSources()...)
	problems = append(problems, c.checkLibrary()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(problems, "\n  "))
}

// checkSources rejects a feed that would shadow the quotable source.
func (c *Config) checkSources() []string {
	quotable := c.Sources.Quotable
	if !quotable.Enabled || quotable.Name == "" {
		return nil
	}

	if _, clash := c.Sources.Feeds[quotable.Name]; clash {
		return []string{fmt.Sprintf("sources.feeds.%s clashes with sources.quotable.name", quotable.Name)}
	}

	return nil
}

// checkLibrary rejects seed collections the HTTP API could not address.
func (c *Config) checkLibrary() []string {
	var problems []string

	for _, name := range slices.Sorted(maps.Keys(c.Library.Collections)) {
		reserved := strings.ContainsFunc(name, func(r rune) bool {
			return unicode.IsControl(r) || strings.ContainsRune(collectionNameReserved, r)
		})

		if reserved {
			problems = append(problems, fmt.Sprintf("library.collections.%q must not contain / ? # %% or control characters", name))
		}
	}

	return problems
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, requiredIfCondition(e.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// requiredIfCondition turns "Enabled true" into "enabled is true".
func requiredIfCondition(param string) string {
	field, value, ok := strings.Cut(param, " ")
	if !ok {
		return param
	}

	return strings.ToLower(field) + " is " + value
}

// formatFieldPath drops the root struct name: "Config.server.port"
// becomes "server.port".
func formatFieldPath(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return strings.ToLower(namespace)
	}

	return strings.ToLower(path)
}
