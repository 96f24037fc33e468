package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON returns the JSON payload of a model response. Models often
// wrap JSON in a markdown code fence; the first fenced block wins. When
// no fence is present the trimmed response is returned as-is.
func ExtractJSON(response string) string {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// DecodeJSON extracts the JSON payload of a model response and unmarshals
// it into v. A parse failure is reported as ErrMalformedResponse.
func DecodeJSON(response string, v any) error {
	payload := ExtractJSON(response)
	if payload == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
