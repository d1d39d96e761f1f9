// Package validation provides struct validation using go-playground/validator v10 with a
// process-wide singleton and a "mobile" tag for 10 digit phone numbers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/logging"
)

var (
	validate     *validator.Validate
	validateErr  error
	validateOnce sync.Once
)

type customRule struct {
	tag string
	fn  validator.Func
}

var customRules = []customRule{
	{"mobile", func(fl validator.FieldLevel) bool {
		return admindomain.ValidateMobile(fl.Field().String()) == nil
	}},
}

func registerRules(v *validator.Validate, rules []customRule) error {
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("validation: register %q: %w", r.tag, err)
		}
	}
	return nil
}

// FieldError is one failed rule on one field. Field uses the json tag name.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// RequestValidationError collects every failed rule of a request body.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance. If a custom rule failed to register
// the error is logged once and ValidateStruct reports it for every call.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := registerRules(validate, customRules); err != nil {
			validateErr = err
			logging.Error().Err(err).Msg("validator setup failed")
		}
	})
	return validate
}

// ValidateStruct validates s. Returns nil if validation passes, or *RequestValidationError.
// Values that are not structs (e.g. a decoded map) carry no rules and always pass.
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	val := GetValidator()
	if validateErr != nil {
		return validateErr
	}
	err := val.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translateError(fe)}
	}
	return &RequestValidationError{Fields: out}
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"mobile":   "%s must be a 10 digit mobile number",
	"numeric":  "%s must contain only digits",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"max":   "%s must be at most %s characters",
	"min":   "%s must be at least %s characters",
	"len":   "%s must be exactly %s characters",
}

func translateError(fe validator.FieldError) string {
	if t, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(t, fe.Field())
	}
	if t, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(t, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
