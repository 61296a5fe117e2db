package textgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON finds the outermost JSON value of the requested shape in s,
// skipping any prose or code fences around it.
func ExtractJSON(s string, shape Shape) (string, error) {
	open, closing := "{", "}"
	if shape == ShapeJSONList {
		open, closing = "[", "]"
	}

	start := strings.Index(s, open)
	end := strings.LastIndex(s, closing)
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON %s found", ErrMalformed, shape)
	}
	return s[start : end+1], nil
}

// DecodeJSON extracts the JSON value of the given shape from text and
// unmarshals it into dst.
func DecodeJSON(text string, shape Shape, dst any) error {
	raw, err := ExtractJSON(text, shape)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
