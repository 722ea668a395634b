package common

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StandardErrorCodes defines the codes surfaced to clients
var StandardErrorCodes = struct {
	InternalError string
	Unauthorized  string
}{
	InternalError: "INTERNAL_ERROR",
	Unauthorized:  "UNAUTHORIZED",
}

// StandardErrorMessage is the only message clients see when a handler fails.
const StandardErrorMessage = "Something went wrong processing the request"

var defaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

// Respond builds a proxy response carrying data in the standard envelope.
func Respond(status int, data interface{}) events.APIGatewayProxyResponse {
	return encode(status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// Success is Respond with 200.
func Success(data interface{}) events.APIGatewayProxyResponse {
	return Respond(http.StatusOK, data)
}

// StandardError is the single undifferentiated failure response.
// Error kinds are logged, never surfaced.
func StandardError() events.APIGatewayProxyResponse {
	return encode(http.StatusInternalServerError, APIResponse{
		Error: &ErrorInfo{
			Code:    StandardErrorCodes.InternalError,
			Message: StandardErrorMessage,
		},
	})
}

// Unauthorized is returned only when a fail-closed auth policy rejects a request.
func Unauthorized() events.APIGatewayProxyResponse {
	return encode(http.StatusUnauthorized, APIResponse{
		Error: &ErrorInfo{
			Code:    StandardErrorCodes.Unauthorized,
			Message: "Unauthorized",
		},
	})
}

func encode(status int, body APIResponse) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		headers[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"` + StandardErrorMessage + `"}}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(payload),
	}
}
