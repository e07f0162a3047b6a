package handler

import (
	"github.com/taskdash/dashboard/internal/pkg/validation"
)

// echoValidator lets Echo call c.Validate(req) with the shared validator, so
// request DTOs fail with the same *domain.ValidationError as the services.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return validation.Struct(i)
}
