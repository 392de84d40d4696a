package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	engine     *playground.Validate
	engineOnce sync.Once
)

func structEngine() *playground.Validate {
	engineOnce.Do(func() {
		engine = playground.New(playground.WithRequiredStructEnabled())
		engine.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		// Money fields compare as floats so gte/lte/gt tags work on them.
		engine.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return engine
}

// Struct validates v against its `validate` tags and converts failures to
// ValidationErrors keyed by the JSON field path.
func Struct(v interface{}) error {
	err := structEngine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return errs
}

// fieldPath drops the root struct name from a namespace like
// "CreateComponentRequest.slabs[0].rate".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return "must be a valid UUID"
	case "datetime":
		return "must be a valid date (YYYY-MM-DD)"
	case "required_if":
		return "is required for this calculation type"
	case "excluded_unless":
		return "is not allowed for this calculation type"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
