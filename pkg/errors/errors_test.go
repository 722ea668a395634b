package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorChain(t *testing.T) {
	cause := errors.New("boom")
	err := NewDatabaseError("PutItem", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Contains(t, err.Error(), "caused by: boom")
}

func TestTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NewNotFoundError("minicourse"), IsNotFound, true},
		{"validation", NewValidationError("bad"), IsValidation, true},
		{"conflict", NewConflictError("taken"), IsConflict, true},
		{"plain error is not app error", errors.New("x"), IsNotFound, false},
		{"wrapped not found", Wrap(NewNotFoundError("video"), "get video"), IsNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "anything"))
	})

	t.Run("foreign errors become internal", func(t *testing.T) {
		err := Wrapf(errors.New("disk"), "save %s", "video")
		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeInternal, appErr.Type)
		assert.Equal(t, "save video", appErr.Message)
	})

	t.Run("app errors keep their type", func(t *testing.T) {
		err := Wrap(NewNotFoundError("category"), "lookup")
		assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
		assert.Contains(t, err.Error(), "lookup: category not found")
	})
}
