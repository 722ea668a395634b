// Package handlers holds the business handlers served behind the pipeline
// preprocessor, one struct per resource.
package handlers

import (
	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/interfaces/lambda/pipeline"
)

// IDParams addresses a single record.
type IDParams struct {
	ID string `json:"id" validate:"required"`
}

// IDsParams addresses several records, in order.
type IDsParams struct {
	IDs []string `json:"ids" validate:"required"`
}

// updateFields splits an update body into the record id and the fields to
// merge onto it.
func updateFields(event *pipeline.Event) (string, map[string]any, error) {
	var target IDParams
	if err := event.Bind(&target); err != nil {
		return "", nil, err
	}

	fields := make(map[string]any, len(event.Body))
	for k, v := range event.Body {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	return target.ID, fields, nil
}

func respond(logger *zap.Logger, operation string, data any, err error) (events.APIGatewayProxyResponse, error) {
	return pipeline.Respond(logger, operation, data, err), nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
