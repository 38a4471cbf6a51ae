package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare object", `{"food_name":"rice"}`, `{"food_name":"rice"}`},
		{"markdown fence", "```json\n{\"food_name\":\"rice\"}\n```", `{"food_name":"rice"}`},
		{"leading prose", `Here is the analysis: {"found":true}`, `{"found":true}`},
		{"trailing prose", `{"found":true} Let me know if you need more.`, `{"found":true}`},
		{"nested objects", `{"a":{"b":1}}`, `{"a":{"b":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("I could not identify any food in this image.")
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var reply struct {
		Found   bool    `json:"found"`
		Density float64 `json:"density_kg_per_l"`
	}
	err := DecodeJSON("Sure! ```json\n{\"found\": true, \"density_kg_per_l\": 0.75}\n```", &reply)
	require.NoError(t, err)
	assert.True(t, reply.Found)
	assert.Equal(t, 0.75, reply.Density)
}

func TestDecodeJSONMalformed(t *testing.T) {
	var reply map[string]interface{}
	err := DecodeJSON(`{"found": true,}`, &reply)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decoding model JSON output")
}
