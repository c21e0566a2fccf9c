package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lueurxax/editorial-planner/internal/core/errors"
)

const codeFence = "```"

// ExtractJSON locates the JSON value in a collaborator answer. Markdown code
// fences are dropped, then the span from the first opening bracket to the
// matching last closing bracket is returned. open is '[' or '{'.
func ExtractJSON(text string, open byte) (string, error) {
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	cleaned := stripCodeFences(text)
	if strings.TrimSpace(cleaned) == "" {
		return "", errors.ErrEmptyResponse
	}

	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, closing)

	if start == -1 || end == -1 || end < start {
		return "", errors.ErrNoJSON
	}

	span := cleaned[start : end+1]
	if !json.Valid([]byte(span)) {
		return "", errors.ErrMalformedJSON
	}

	return span, nil
}

// DecodeJSON extracts and unmarshals the JSON value of a collaborator answer.
func DecodeJSON[T any](text string, open byte) (T, error) {
	var out T

	span, err := ExtractJSON(text, open)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return out, fmt.Errorf("%w: %w", errors.ErrMalformedJSON, err)
	}

	return out, nil
}

func stripCodeFences(text string) string {
	if !strings.Contains(text, codeFence) {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), codeFence) {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
