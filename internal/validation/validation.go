// Package validation checks decoded records against their validate tags.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// report json field names so messages match the spreadsheet-facing keys
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// FieldError is one failed rule.
type FieldError struct {
	Field string
	Tag   string
}

// Struct validates v. It returns the failed fields in declaration order,
// or nil when v is valid. A non-nil error means v could not be validated.
func Struct(v interface{}) ([]FieldError, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}
	return out, nil
}

// Fields returns the field names of errs.
func Fields(errs []FieldError) []string {
	names := make([]string, len(errs))
	for i, e := range errs {
		names[i] = e.Field
	}
	return names
}
