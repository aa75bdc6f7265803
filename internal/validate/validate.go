package validate

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return v
}

// Struct validates s and flattens the first failure into a client-facing message.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(message(verrs[0]))
	}
	return err
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "uuid", "uuid4":
		return fe.Field() + " must be a valid id"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "startswith":
		return fe.Field() + " must start with " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// IsUUID reports whether s is a canonical UUID.
func IsUUID(s string) bool {
	return Validator().Var(s, "required,uuid") == nil
}

// Page parses page/limit query values. Invalid or missing values fall back to
// page 1 and defLimit; limit is clamped to [1, max].
func Page(pageRaw, limitRaw string, defLimit, max int) (page, limit int) {
	page = 1
	if n, err := strconv.Atoi(strings.TrimSpace(pageRaw)); err == nil && n >= 1 {
		page = n
	}
	return page, Limit(limitRaw, defLimit, max)
}

// Limit parses a limit and clamps it to [1, max].
func Limit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
