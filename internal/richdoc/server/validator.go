package server

import (
	"github.com/go-playground/validator"

	"github.com/aisa-it/richdoc/internal/richdoc/convert"
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("docFormat", formatValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func formatValidator(fl validator.FieldLevel) bool {
	_, err := convert.ParseFormat(fl.Field().String())
	return err == nil
}
