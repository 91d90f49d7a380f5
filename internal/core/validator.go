package core

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// Validator wraps go-playground/validator and translates its failures into
// the application error taxonomy.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with struct-tag validation enabled.
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStruct validates v against its struct tags. Failures are returned
// as a validation_failed AppError listing each offending field and the rule
// it violated.
func (val *Validator) ValidateStruct(v any) error {
	err := val.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewAppError(types.ErrCodeValidationFailed,
			"request validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return types.NewAppErrorWithDetails(types.ErrCodeValidationFailed,
		"request validation failed", err, map[string]any{"fields": fields})
}
