package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appErrors "minicourse-backend/pkg/errors"
)

type getParams struct {
	ID string `json:"id" validate:"required"`
}

func TestDispatcher_Dispatch(t *testing.T) {
	var calls []string
	registry := Registry{
		"get_minicourse": Action(func(ctx context.Context, p getParams) (any, error) {
			calls = append(calls, "get_minicourse:"+p.ID)
			return map[string]string{"id": p.ID}, nil
		}),
		"other": func(ctx context.Context, params json.RawMessage) (any, error) {
			calls = append(calls, "other")
			return nil, nil
		},
	}
	d := NewDispatcher(registry, IgnoreUnknown, zap.NewNop())

	result, err := d.Dispatch(context.Background(), "get_minicourse", json.RawMessage(`{"id":"m1"}`))

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "m1"}, result)
	assert.Equal(t, []string{"get_minicourse:m1"}, calls)
}

func TestDispatcher_UnknownActionIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	called := false
	d := NewDispatcher(Registry{
		"known": func(ctx context.Context, params json.RawMessage) (any, error) {
			called = true
			return "x", nil
		},
	}, IgnoreUnknown, zap.New(core))

	result, err := d.Dispatch(context.Background(), "missing", json.RawMessage(`{}`))

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, called)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "missing", logs.All()[0].ContextMap()["action"])
}

func TestDispatcher_UnknownActionRejected(t *testing.T) {
	d := NewDispatcher(Registry{}, RejectUnknown, nil)

	result, err := d.Dispatch(context.Background(), "missing", nil)

	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Nil(t, result)
}

func TestDispatcher_RegistryIsFrozen(t *testing.T) {
	registry := Registry{}
	d := NewDispatcher(registry, IgnoreUnknown, nil)
	registry["late"] = func(ctx context.Context, params json.RawMessage) (any, error) { return "late", nil }

	result, err := d.Dispatch(context.Background(), "late", nil)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestAction_ValidatesParams(t *testing.T) {
	fn := Action(func(ctx context.Context, p getParams) (any, error) {
		t.Fatal("must not be called with invalid params")
		return nil, nil
	})

	_, err := fn(context.Background(), nil)
	assert.True(t, appErrors.IsValidation(err))

	_, err = fn(context.Background(), json.RawMessage(`{"id":3}`))
	assert.True(t, appErrors.IsValidation(err))
}

func TestDispatcher_Handle(t *testing.T) {
	d := NewDispatcher(Registry{
		"get_minicourse": Action(func(ctx context.Context, p getParams) (any, error) {
			return map[string]string{"id": p.ID}, nil
		}),
		"explode": func(ctx context.Context, params json.RawMessage) (any, error) {
			return nil, errors.New("dynamodb unavailable")
		},
	}, IgnoreUnknown, zap.NewNop())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"known action", `{"action":"get_minicourse","params":{"id":"m1"}}`, http.StatusOK, `{"success":true,"data":{"id":"m1"}}`},
		{"unknown action", `{"action":"nope","params":{}}`, http.StatusOK, `{"success":true}`},
		{"missing body", ``, http.StatusOK, `{"success":true}`},
		{"failing action", `{"action":"explode"}`, http.StatusInternalServerError, ""},
		{"invalid params", `{"action":"get_minicourse","params":{}}`, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := ParseEvent(events.APIGatewayProxyRequest{Body: tt.body})

			resp, err := d.Handle(context.Background(), event)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, resp.Body)
			}
		})
	}
}
