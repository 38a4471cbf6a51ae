package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the substring spanning the first '{' through the
// last '}' of a model reply. Models wrap JSON in prose or markdown
// fences often enough that decoding the raw reply is not reliable.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in reply: %s", truncate(text, 200))
	}
	return text[start : end+1], nil
}

// DecodeJSON extracts and unmarshals the JSON object embedded in a
// model reply into v.
func DecodeJSON(text string, v interface{}) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding model JSON output: %w (raw: %s)", err, truncate(raw, 500))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
