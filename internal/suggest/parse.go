package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the model output does not match
// the expected {"groupArrangementSuggestion": "..."} shape.
var ErrMalformedResponse = errors.New("malformed suggestion response")

type response struct {
	GroupArrangementSuggestion *string `json:"groupArrangementSuggestion"`
}

// ParseResponse extracts the suggestion text from raw model output. Models
// sometimes wrap the object in prose or code fences, so the first complete
// JSON object is used.
func ParseResponse(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var resp response
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.GroupArrangementSuggestion == nil {
		return "", fmt.Errorf("%w: missing groupArrangementSuggestion", ErrMalformedResponse)
	}
	if strings.TrimSpace(*resp.GroupArrangementSuggestion) == "" {
		return "", fmt.Errorf("%w: empty suggestion", ErrMalformedResponse)
	}
	return *resp.GroupArrangementSuggestion, nil
}
