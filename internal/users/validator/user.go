package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"lockerd/pkg/logger"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// Validate runs struct-tag validation over any of the auth request types.
func (v *UserValidator) Validate(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *UserValidator) translate(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}

	err := errs[0]
	switch err.Tag() {
	case "required":
		return fmt.Errorf("%s is required", err.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", err.Field())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", err.Field(), err.Param())
	}
	return fmt.Errorf("%s is invalid", err.Field())
}
