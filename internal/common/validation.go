package common

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error wrapping ErrValidation.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	default:
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice && rv.Len() == 0 {
			return &ValidationError{Field: fieldName, Value: value, Message: "must not be empty"}
		}
	}
	return nil
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// MaxItems bounds the length of a slice value.
func MaxItems(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			return nil
		}
		if rv.Len() > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   rv.Len(),
				Message: fmt.Sprintf("must contain at most %d items", max),
			}
		}
		return nil
	}
}

// ImageRef accepts http(s) and s3 URLs, plus file URLs when allowFile is set.
func ImageRef(allowFile bool) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
		}
		if err := checkImageRef(str, allowFile); err != nil {
			return &ValidationError{Field: fieldName, Value: value, Message: err.Error()}
		}
		return nil
	}
}

func checkImageRef(raw string, allowFile bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return errors.New("must be a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return errors.New("must include a host")
		}
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return errors.New("must be s3://bucket/key")
		}
	case "file":
		if !allowFile {
			return errors.New("file references are disabled")
		}
		if u.Path == "" {
			return errors.New("must include a path")
		}
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}

// MaxImageURLLength bounds a single image reference.
const MaxImageURLLength = 2048

// ValidateImageURLs applies the batch request rules to a list of image URLs.
func ValidateImageURLs(urls []string, maxItems int, allowFile bool) *Validator {
	v := NewValidator().Field("imageUrls", urls, Required, MaxItems(maxItems))
	for i, u := range urls {
		v.Field(fmt.Sprintf("imageUrls[%d]", i), u, Required, MaxLength(MaxImageURLLength), ImageRef(allowFile))
	}
	return v
}
