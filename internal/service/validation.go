package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

// NewValidator returns a validator with the broadcaster's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := models.ParsePriority(fl.Field().String())
		return ok
	})
	return v
}
