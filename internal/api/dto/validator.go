package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// NewValidator returns a validator with the payload rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("request_status", func(fl validator.FieldLevel) bool {
		return domain.RequestStatus(fl.Field().String()).Valid()
	})
	return validate
}

// Validate checks payload and maps failures to a VALIDATION_FAILED error
// listing the offending fields.
func Validate(validate *validator.Validate, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid payload", map[string]any{"fields": fields})
}
