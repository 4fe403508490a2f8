package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	apperrors "mp4text/internal/app/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report fields by their YAML names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the settings for structural errors. Failures match
// apperrors.ErrInvalidConfig.
func (s *Settings) Validate() error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, apperrors.ErrInvalidConfig.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe).Error())
	}
	return apperrors.Wrap(errors.New(strings.Join(msgs, "; ")), apperrors.ErrInvalidConfig.Error())
}

func describeFieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Settings.")
	switch fe.Tag() {
	case "required", "required_if":
		return apperrors.RequiredField(field)
	case "oneof":
		return apperrors.InvalidField(field, fmt.Sprintf("must be one of [%s]", fe.Param()))
	case "url":
		return apperrors.InvalidField(field, "must be a URL")
	case "min", "gte", "gt", "max", "lte":
		lo, hi := fieldBounds(fe.StructNamespace())
		if lo != "" && hi != "" {
			return apperrors.OutOfRange(field, lo, hi)
		}
		if fe.Tag() == "gt" {
			return apperrors.InvalidField(field, "must be greater than "+fe.Param())
		}
		return apperrors.InvalidField(field, "must be at least "+fe.Param())
	default:
		return apperrors.InvalidField(field, fe.Tag())
	}
}

// fieldBounds returns the lower and upper bound declared in the validate
// tag of the Settings field at namespace, e.g. "Settings.Transcription.BeamSize".
func fieldBounds(namespace string) (lower, upper string) {
	typ := reflect.TypeOf(Settings{})
	var field reflect.StructField
	for _, name := range strings.Split(namespace, ".")[1:] {
		f, ok := typ.FieldByName(name)
		if !ok {
			return "", ""
		}
		field, typ = f, f.Type
	}

	for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
		key, val, ok := strings.Cut(rule, "=")
		if !ok {
			continue
		}
		switch key {
		case "min", "gte", "gt":
			lower = val
		case "max", "lte":
			upper = val
		}
	}
	return lower, upper
}

// ValidateAPIKey validates API key format
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if !strings.HasPrefix(apiKey, "sk-") {
		return fmt.Errorf("invalid OpenAI API key format: must start with 'sk-'")
	}
	if len(apiKey) < 20 {
		return fmt.Errorf("invalid OpenAI API key format: too short")
	}
	return nil
}
