package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose prefix and suffix", `result: {"a": 1} done`, `{"a": 1}`},
		{"nested object", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"braces inside strings", `{"a": "}{"}`, `{"a": "}{"}`},
		{"escaped quotes", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"no object", "nothing here", ""},
		{"unbalanced braces", `{"a": 1`, ""},
		{"unterminated string", `{"a": "oops`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstJSONObject(tt.input))
		})
	}
}
