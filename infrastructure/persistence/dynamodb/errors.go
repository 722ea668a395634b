package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	appErrors "minicourse-backend/pkg/errors"
)

var (
	// ErrNotFound is the cause of every lookup that found no item.
	ErrNotFound = errors.New("item not found")
	// ErrAlreadyExists is the cause of an insert whose key was taken.
	ErrAlreadyExists = errors.New("item already exists")
)

// classify maps a DynamoDB failure onto the application error taxonomy.
func classify(operation, table string, err error) error {
	if err == nil {
		return nil
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return appErrors.NewDatabaseError(operation, err).
			WithDetails(map[string]interface{}{"table": table})
	}

	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException":
		return appErrors.NewConflictError("item already exists").
			WithCode(ae.ErrorCode()).
			WithCause(fmt.Errorf("%w: %v", ErrAlreadyExists, err)).
			WithDetails(map[string]interface{}{"table": table, "operation": operation})
	case "ResourceNotFoundException":
		return appErrors.NewDatabaseError(operation, err).
			WithCode(ae.ErrorCode()).
			WithDetails(map[string]interface{}{"table": table, "reason": "table or index not found"})
	default:
		return appErrors.NewDatabaseError(operation, err).
			WithCode(ae.ErrorCode()).
			WithDetails(map[string]interface{}{"table": table})
	}
}

// NotFound is the error for a missing record of resource.
func NotFound(resource, id string) error {
	return appErrors.NewNotFoundError(resource).
		WithDetails(map[string]interface{}{"id": id}).
		WithCause(ErrNotFound)
}
