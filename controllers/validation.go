package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dcode-github/imovel_listing_system/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("purpose", func(fl validator.FieldLevel) bool {
		p, ok := fl.Field().Interface().(models.Purpose)
		return ok && p.Valid()
	})
	return v
}

// FieldErrors maps a wire field name to its messages, in the shape Laravel
// clients expect under "errors".
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// validatePayload returns nil when v is valid and FieldErrors otherwise.
func validatePayload(v any) FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fe := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.add("_", err.Error())
		return fe
	}
	for _, e := range verrs {
		fe.add(e.Field(), fieldMessage(e))
	}
	return fe
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", e.Field())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", e.Field(), e.Param())
	case "purpose":
		return fmt.Sprintf("The selected %s is invalid.", e.Field())
	case "gte":
		return fmt.Sprintf("The %s field must be at least %s.", e.Field(), e.Param())
	case "lte", "lt":
		return fmt.Sprintf("The %s field is too large.", e.Field())
	default:
		return fmt.Sprintf("The %s field is invalid.", e.Field())
	}
}
