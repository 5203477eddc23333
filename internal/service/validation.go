package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"modamarket/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of req and converts the first failure
// into a validation error with a Spanish message.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.ErrInvalidPayload
	}
	return model.Validationf(model.ErrCodeInvalidPayload, fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio", field)
	case "email":
		return fmt.Sprintf("El campo %s debe ser un email válido", field)
	case "url":
		return fmt.Sprintf("El campo %s debe ser una URL válida", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("El campo %s debe tener al menos %s elementos", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s debe tener al menos %s caracteres", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("El campo %s admite como máximo %s elementos", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s admite como máximo %s caracteres", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("El campo %s está fuera de rango", field)
	case "oneof":
		return fmt.Sprintf("El campo %s debe ser uno de: %s", field, fe.Param())
	default:
		return fmt.Sprintf("El campo %s no es válido", field)
	}
}
