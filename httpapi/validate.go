package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// maxBytes bounds the encoded length of a string. bcrypt refuses input past
// 72 bytes, which a character count cannot catch for multibyte text.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

var fieldMessages = map[string]string{
	"required": "field '%s' is required",
	"email":    "field '%s' must be a valid email address",
	"min":      "field '%s' must be at least %s characters long",
	"max":      "field '%s' must be no longer than %s characters",
	"maxbytes": "field '%s' must be at most %s bytes",
	"gt":       "field '%s' must be greater than %s",
}

func fieldMessage(e validator.FieldError) string {
	if e.Tag() == "eqfield" && e.Field() == "password_confirm" {
		return "Passwords do not match"
	}
	msg, ok := fieldMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("field '%s' is invalid", e.Field())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

// requestError is a decoding or validation failure answered with
// INVALID_ARGUMENT.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

// normalizer is implemented by requests that clean their fields before
// validation.
type normalizer interface {
	normalize()
}

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &requestError{status: http.StatusBadRequest, message: "request body is empty"}
		}
		return &requestError{status: http.StatusBadRequest, message: "malformed JSON body"}
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return validateStruct(dst)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{status: http.StatusBadRequest, message: "invalid request"}
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	sort.Strings(msgs)
	return &requestError{status: http.StatusUnprocessableEntity, message: strings.Join(msgs, "; ")}
}
