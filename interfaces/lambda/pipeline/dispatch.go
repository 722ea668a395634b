package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/pkg/common"
	appErrors "minicourse-backend/pkg/errors"
)

// ErrUnknownAction is returned for unregistered actions under RejectUnknown.
var ErrUnknownAction = errors.New("unknown action")

// ActionFunc is one operation of an action-multiplexed endpoint.
type ActionFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Registry maps action names to operations. Build it once at startup.
type Registry map[string]ActionFunc

// Action adapts a handler taking a typed params struct. Params are decoded
// and validated before fn runs.
func Action[P any](fn func(ctx context.Context, params P) (any, error)) ActionFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if err := decodeAndValidate(raw, &params); err != nil {
			return nil, err
		}
		return fn(ctx, params)
	}
}

// ActionRequest is the body of an action-multiplexed request.
type ActionRequest struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// UnknownActionPolicy decides what happens on a registry miss.
type UnknownActionPolicy int

const (
	// IgnoreUnknown logs the miss and returns no result.
	IgnoreUnknown UnknownActionPolicy = iota
	// RejectUnknown fails with ErrUnknownAction.
	RejectUnknown
)

// Dispatcher routes action names to registered operations.
type Dispatcher struct {
	registry Registry
	policy   UnknownActionPolicy
	logger   *zap.Logger
}

// NewDispatcher copies registry so later changes to the map are not seen.
func NewDispatcher(registry Registry, policy UnknownActionPolicy, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	frozen := make(Registry, len(registry))
	for name, fn := range registry {
		frozen[name] = fn
	}
	return &Dispatcher{registry: frozen, policy: policy, logger: logger}
}

// Dispatch invokes the operation registered under name with params and
// returns its result unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params json.RawMessage) (any, error) {
	fn, ok := d.registry[name]
	if !ok {
		return d.unknown(name)
	}
	return fn(ctx, params)
}

func (d *Dispatcher) unknown(name string) (any, error) {
	d.logger.Warn("No registered action given", zap.String("action", name))
	if d.policy == RejectUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return nil, nil
}

// Handle is a Handler serving an action-multiplexed endpoint.
func (d *Dispatcher) Handle(ctx context.Context, event *Event) (events.APIGatewayProxyResponse, error) {
	var req ActionRequest
	if err := event.Bind(&req); err != nil {
		return Respond(d.logger, "dispatch", nil, err), nil
	}

	result, err := d.Dispatch(ctx, req.Action, req.Params)
	return Respond(d.logger, req.Action, result, err), nil
}

// Respond converts a business result into a proxy response. Failures are
// logged with their kind and collapsed into the standard error response.
func Respond(logger *zap.Logger, operation string, data any, err error) events.APIGatewayProxyResponse {
	if err != nil {
		logger.Error("Handler failed",
			zap.String("operation", operation),
			zap.String("error_type", string(appErrors.TypeOf(err))),
			zap.Error(err),
		)
		return common.StandardError()
	}
	return common.Success(data)
}
