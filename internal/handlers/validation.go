package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	pkghttp "github.com/BradenHooton/imposter/pkg/http"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodyBytes = 1 << 20

// ValidationErrors lists every field that failed validation
type ValidationErrors []pkghttp.FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest validates a request struct and returns ValidationErrors on failure
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, pkghttp.FieldError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return out
}

// fieldPath drops the struct name prefix, e.g. "CreateGameRequest.playerNames[1]" -> "playerNames[1]"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s entries", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// normalizer is implemented by request DTOs that clean their fields before validation
type normalizer interface {
	Normalize()
}

// decodeAndValidate reads a JSON body into req and validates it, writing the error response
// itself. It reports whether the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}

	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationFailure(w, err)
		return false
	}
	return true
}

func writeValidationFailure(w http.ResponseWriter, err error) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		msg := "Invalid request"
		if len(ve) > 0 {
			msg = ve[0].Field + " " + ve[0].Message
		}
		pkghttp.WriteValidationError(w, msg, ve)
		return
	}
	pkghttp.WriteValidationError(w, err.Error(), nil)
}
