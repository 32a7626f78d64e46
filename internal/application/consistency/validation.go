package consistency

import (
	"errors"
	"reflect"
	"strings"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their JSON name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags of req and turns the first failures
// into a single ValidationError
func (e *Engine) validateRequest(req any) error {
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewValidationError("invalid request: %v", err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fe.Field()+": "+validationMessage(fe))
	}
	return shared.NewValidationError("%s", strings.Join(details, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email format"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "ne":
		return "must not be " + fe.Param()
	default:
		return "invalid value"
	}
}
