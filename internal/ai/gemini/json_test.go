package gemini

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect any
	}{
		{
			name:   "fenced with language tag",
			input:  "```json\n{\"a\":1}\n```",
			expect: map[string]any{"a": float64(1)},
		},
		{
			name:   "fenced without language tag",
			input:  "```\n[\"python\", \"sql\"]\n```",
			expect: []any{"python", "sql"},
		},
		{
			name:   "fence on a single line",
			input:  "```{\"a\":true}```",
			expect: map[string]any{"a": true},
		},
		{
			name:   "plain json",
			input:  `  {"overall_score": 72}  `,
			expect: map[string]any{"overall_score": float64(72)},
		},
		{
			name:   "keeps json inside values",
			input:  "```json\n{\"format\": \"json\", \"skills\": [\"jsonschema\"]}\n```",
			expect: map[string]any{"format": "json", "skills": []any{"jsonschema"}},
		},
		{
			name:   "unfenced json word inside values",
			input:  `{"tools": ["json", "yaml"]}`,
			expect: map[string]any{"tools": []any{"json", "yaml"}},
		},
		{
			name:   "prose around fence",
			input:  "Sure, here it is:\n```json\n{\"a\": 2}\n```\nLet me know if you need more.",
			expect: map[string]any{"a": float64(2)},
		},
		{
			name:   "unterminated fence",
			input:  "```json\n{\"a\": 3}",
			expect: map[string]any{"a": float64(3)},
		},
		{
			name:   "prose without fence",
			input:  "The result is {\"a\": 4} as requested.",
			expect: map[string]any{"a": float64(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %#v, got %#v", tt.expect, got)
			}
		})
	}
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "not json at all", "```json\nstill not json\n```", "{broken"} {
		if _, err := parseJSON(input); !errors.Is(err, errNoJSON) {
			t.Fatalf("input %q: expected errNoJSON, got %v", input, err)
		}
	}
}
