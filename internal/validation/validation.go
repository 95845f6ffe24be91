// Package validation is the structural gate shared by the normalization,
// state and generation paths. Every check returns a field-addressable error
// list and never mutates its input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
)

// Error codes
const (
	CodeRequired        = "required"
	CodeTooSmall        = "too_small"
	CodeTooBig          = "too_big"
	CodeInvalidEnum     = "invalid_enum_value"
	CodeInvalidString   = "invalid_string"
	CodeInvalidVersion  = "invalid_version"
	CodeInvalidType     = "invalid_type"
	CodeInvalidArgument = "invalid_argument"
)

// FieldError is one failed check. Path is a dotted JSON path ("config.size"),
// empty for errors about the whole value.
type FieldError struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Code    string `json:"code"`
}

// Errors is a list of field errors. A nil or empty list means valid.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Path == "" {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fe.Path+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when e is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// HasCode reports whether any error in e carries code.
func (e Errors) HasCode(code string) bool {
	for _, fe := range e {
		if fe.Code == code {
			return true
		}
	}
	return false
}

// As extracts an Errors list from err.
func As(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

var hexColor6 = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "hexcolor6", func(fl validator.FieldLevel) bool {
			return hexColor6.MatchString(fl.Field().String())
		})
		mustRegister(v, "ecl", func(fl validator.FieldLevel) bool {
			switch domain.ErrorCorrectionLevel(strings.ToUpper(fl.Field().String())) {
			case domain.ECLLow, domain.ECLMedium, domain.ECLQuartile, domain.ECLHigh:
				return true
			}
			return false
		})
		mustRegister(v, "canonical_identifier", func(fl validator.FieldLevel) bool {
			return identifier.IsCanonical(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct runs the tag rules on s and prefixes every path with root.
func Struct(root string, s any) Errors {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Message: err.Error(), Path: root, Code: CodeInvalidArgument}}
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Message: message(fe),
			Path:    joinPath(root, trimRoot(fe.Namespace())),
			Code:    code(fe.Tag()),
		})
	}
	return out
}

// trimRoot drops the Go type name validator puts first in a namespace.
func trimRoot(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ""
	}
	return rest
}

func joinPath(root, rest string) string {
	switch {
	case root == "":
		return rest
	case rest == "":
		return root
	default:
		return root + "." + rest
	}
}

func code(tag string) string {
	switch tag {
	case "required":
		return CodeRequired
	case "min", "gte":
		return CodeTooSmall
	case "max", "lte":
		return CodeTooBig
	case "oneof", "ecl":
		return CodeInvalidEnum
	default:
		return CodeInvalidString
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "ecl":
		return "must be one of: L M Q H"
	case "hexcolor6":
		return "must be a #RRGGBB color"
	case "canonical_identifier":
		return "must be a canonical profile URL"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
