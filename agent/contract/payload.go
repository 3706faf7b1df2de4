package contract

import (
	"encoding/json"
	"fmt"
)

// ToPayload converts a JSON-tagged value into a bus payload map.
func ToPayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrValidation, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: payload is not an object: %v", ErrValidation, err)
	}
	return out, nil
}

// FromPayload decodes a bus payload map into dst.
func FromPayload(payload map[string]any, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", ErrValidation, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode payload: %v", ErrValidation, err)
	}
	return nil
}
