// internal/validate/validate.go
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fractalizend/screener/internal/core"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct applies `default` tags to v, then checks its `validate` tags.
// A failed "required" rule maps to core.ErrMissingField, any other failure
// to core.ErrInvalidField. v must be a pointer to a struct.
func Struct(ctx context.Context, v any) error {
	if err := defaults.Set(v); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return Check(ctx, v)
}

// Check validates v without applying defaults.
func Check(ctx context.Context, v any) error {
	return check(validate.StructCtx(ctx, v))
}

// Var checks a single value against a tag expression.
func Var(ctx context.Context, field string, value any, tag string) error {
	err := validate.VarCtx(ctx, value, tag)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return wrap(verrs[0].Tag(), fmt.Errorf("%s %s", field, message(verrs[0])))
	}
	return err
}

func check(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	missing := false
	for _, fe := range verrs {
		if isRequired(fe.Tag()) {
			missing = true
		}
		msgs = append(msgs, fe.Field()+" "+message(fe))
	}
	cause := errors.New(strings.Join(msgs, "; "))
	if missing {
		return core.WrapError(core.ErrMissingField, cause)
	}
	return core.WrapError(core.ErrInvalidField, cause)
}

func wrap(tag string, cause error) error {
	if isRequired(tag) {
		return core.WrapError(core.ErrMissingField, cause)
	}
	return core.WrapError(core.ErrInvalidField, cause)
}

func isRequired(tag string) bool {
	return strings.HasPrefix(tag, "required")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return "is required"
	case "excluded_with":
		return fmt.Sprintf("must not be set together with %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("must match layout %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
