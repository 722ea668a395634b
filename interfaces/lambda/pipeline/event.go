// Package pipeline turns raw API Gateway proxy events into typed events,
// derives the caller identity from the bearer token, hands that identity to
// request-scoped collaborators and dispatches to business handlers.
package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"

	appErrors "minicourse-backend/pkg/errors"
)

// AuthHeaderName is the header the bearer token is read from.
const AuthHeaderName = "Authorization"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Event is the normalized request handed to business handlers.
type Event struct {
	Body    map[string]any
	Headers map[string]string
	Raw     events.APIGatewayProxyRequest
}

// ParseEvent never fails: a missing or unparsable body becomes an empty
// object and missing headers an empty map.
func ParseEvent(raw events.APIGatewayProxyRequest) *Event {
	headers := make(map[string]string, len(raw.Headers))
	for k, v := range raw.Headers {
		headers[k] = v
	}

	return &Event{
		Body:    parseBody(raw.Body, raw.IsBase64Encoded),
		Headers: headers,
		Raw:     raw,
	}
}

func parseBody(body string, base64Encoded bool) map[string]any {
	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return map[string]any{}
		}
		body = string(decoded)
	}
	if strings.TrimSpace(body) == "" {
		return map[string]any{}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed == nil {
		return map[string]any{}
	}
	return parsed
}

// Header looks a header up ignoring case.
func (e *Event) Header(name string) (string, bool) {
	if v, ok := e.Headers[name]; ok {
		return v, true
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Username is the identity injected by the preprocessor, empty when anonymous.
func (e *Event) Username() string {
	return e.Headers["username"]
}

// Bind decodes the body into v and validates it.
func (e *Event) Bind(v any) error {
	raw, err := json.Marshal(e.Body)
	if err != nil {
		return appErrors.NewValidationError("request body could not be encoded").WithCause(err)
	}
	return decodeAndValidate(raw, v)
}

func decodeAndValidate(raw []byte, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return appErrors.NewValidationError("request body does not match the expected shape").WithCause(err)
	}
	if err := validate.Struct(v); err != nil {
		return appErrors.NewValidationError(validationMessage(err)).WithCause(err)
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
