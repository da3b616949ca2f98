package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// collectionNameReserved are the runes that would split or end a
// /collections/:name path segment.
const collectionNameReserved = "/?#%"

var (
	// ErrValidation wraps struct tag and Validatable failures.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps JSON and query decoding failures.
	ErrBinding = errors.New("binding failed")
)

// Validator returns the validator shared by every request body. Field
// errors are named after the json tag, so details read "text" rather
// than "Text".
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	_ = v.RegisterValidation("collection", validateCollectionName)
	_ = v.RegisterValidation("notempty", validateNotEmpty)

	return v
})

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

// Validate runs the struct tags of v.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// Validatable is implemented by requests with rules that span fields, such
// as the distinct sources of an import. Return a *domain.ValidationError to
// get field details in the response.
type Validatable interface {
	Validate() error
}

// ValidateAll runs the struct tags, then Validate when v implements
// Validatable.
func ValidateAll(v any) error {
	if err := Validate(v); err != nil {
		return err
	}

	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bindWith(c, v, binding.JSON)
}

// BindQueryAndValidate decodes the query string into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindWith(c, v, binding.Query)
}

func bindWith(c *gin.Context, v any, b binding.Binding) error {
	if err := c.ShouldBindWith(v, b); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return ValidateAll(v)
}

// HasFieldErrors reports whether err carries struct tag failures.
func HasFieldErrors(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

// FieldErrors maps each failing field of err to a message for the error
// envelope. Slice elements are keyed like sources[1].
func FieldErrors(err error) map[string]string {
	details := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fieldMessage(fe)
		}
	}

	return details
}

func fieldMessage(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notempty":
		return "must not be empty"
	case "collection":
		return "must not contain / ? # % or control characters"
	case "min":
		return "must be at least " + param + lengthUnit(fe.Kind())
	case "max":
		return "must be at most " + param + lengthUnit(fe.Kind())
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "oneof":
		return "must be one of: " + param
	default:
		return "failed validation: " + fe.Tag()
	}
}

// lengthUnit is the unit min and max count in for strings.
func lengthUnit(kind reflect.Kind) string {
	if kind == reflect.String {
		return " characters"
	}

	return ""
}

// validateCollectionName accepts names that survive as one path segment.
// Empty passes; combine with required.
func validateCollectionName(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
		return unicode.IsControl(r) || strings.ContainsRune(collectionNameReserved, r)
	})
}

// validateNotEmpty rejects blank strings, so "   " is not a quote.
func validateNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
