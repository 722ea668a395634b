// Package idgen creates prefixed random identifiers and retries their use
// when the chosen identifier turns out to be taken.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "minicourse-backend/pkg/errors"
)

const maxRandomLength = 32

// Generate returns "<prefix>-<random>" where random has the given length.
func Generate(prefix string, length int) string {
	if length <= 0 || length > maxRandomLength {
		length = maxRandomLength
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:length]
	if prefix == "" {
		return random
	}
	return prefix + "-" + random
}

// Retrier calls a function with freshly generated ids until it stops
// reporting a collision or the tries run out.
type Retrier struct {
	Prefix  string
	Length  int
	Tries   int
	RetryOn error
	Logger  *zap.Logger
}

// Do runs fn with a new id per attempt and returns the id that succeeded.
// Errors other than RetryOn end the loop immediately.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context, id string) error) (string, error) {
	tries := r.Tries
	if tries < 1 {
		tries = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 1; attempt <= tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := Generate(r.Prefix, r.Length)
		err := fn(ctx, id)
		if err == nil {
			return id, nil
		}
		if r.RetryOn == nil || !errors.Is(err, r.RetryOn) {
			return "", err
		}

		logger.Warn("Generated id already taken",
			zap.String("id", id),
			zap.Int("attempt", attempt),
			zap.Int("max_tries", tries),
		)
	}

	return "", fmt.Errorf("%w: prefix %q after %d tries", appErrors.ErrIDGenerationFailed, r.Prefix, tries)
}
