// Package validation holds the pure form rules of the checkout: contact,
// billing and shipping forms, plus struct validation for the inquiry forms.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront-checkout/internal/domain"
)

// Message keys resolved by the storefront translations.
const (
	MsgRequired     = "validation.required"
	MsgInvalidEmail = "validation.email"
	MsgInvalidPhone = "validation.phone"
	MsgInvalidCNP   = "validation.cnp"
	MsgInvalid      = "validation.invalid"
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
	cnpPattern   = regexp.MustCompile(`^\d{13}$`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// prefix-free custom tags, used by both the field checks and struct tags
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "cnp", func(fl validator.FieldLevel) bool {
		return cnpPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// check runs a tag set against one value and returns the field result,
// using msg for any failure other than a missing value.
func check(value, tags, msg string) domain.FieldResult {
	err := validate.Var(strings.TrimSpace(value), tags)
	if err == nil {
		return domain.FieldResult{Valid: true}
	}
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) && len(valErrs) > 0 && valErrs[0].Tag() == "required" {
		return domain.FieldResult{Valid: false, Message: MsgRequired}
	}
	return domain.FieldResult{Valid: false, Message: msg}
}

func required(value string) domain.FieldResult {
	return check(value, "required", MsgRequired)
}

// Struct validates a tagged struct and converts failures into a
// *domain.ValidationError keyed by JSON-ish field names.
func Struct(form string, in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	fields := domain.ValidationMap{}
	for _, fe := range valErrs {
		fields[fe.Field()] = domain.FieldResult{Valid: false, Message: messageForTag(fe.Tag())}
	}
	return &domain.ValidationError{Form: form, Fields: fields}
}

func messageForTag(tag string) string {
	switch tag {
	case "required", "required_if", "min":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "phone":
		return MsgInvalidPhone
	case "cnp":
		return MsgInvalidCNP
	default:
		return MsgInvalid
	}
}
