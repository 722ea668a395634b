package common

import (
	"encoding/json"
	"fmt"

	appErrors "minicourse-backend/pkg/errors"
)

// MergeFields overlays fields onto a copy of stored using the JSON field
// names of T. Keys listed in protected are ignored, unknown keys are dropped.
func MergeFields[T any](stored T, fields map[string]any, protected ...string) (T, error) {
	var merged T

	base, err := json.Marshal(stored)
	if err != nil {
		return merged, fmt.Errorf("failed to encode stored record: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(base, &data); err != nil {
		return merged, fmt.Errorf("failed to decode stored record: %w", err)
	}

	skip := make(map[string]struct{}, len(protected))
	for _, key := range protected {
		skip[key] = struct{}{}
	}
	for key, value := range fields {
		if _, ok := skip[key]; ok {
			continue
		}
		data[key] = value
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return merged, appErrors.NewValidationError("update fields could not be encoded").WithCause(err)
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return merged, appErrors.NewValidationError("update fields do not match the record").WithCause(err)
	}
	return merged, nil
}
