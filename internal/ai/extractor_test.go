package ai

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestResultMarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		expect string
	}{
		{
			name:   "value",
			result: Result{Value: map[string]any{"a": float64(1)}},
			expect: `{"a":1}`,
		},
		{
			name:   "error",
			result: Failure("boom: %d", 7),
			expect: `{"error":"boom: 7"}`,
		},
		{
			name:   "empty",
			result: Result{},
			expect: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, data)
			}
		})
	}
}

func TestPayloadKindValid(t *testing.T) {
	for _, kind := range []PayloadKind{PayloadImage, PayloadText} {
		if !kind.Valid() {
			t.Fatalf("expected %q to be valid", kind)
		}
	}

	if PayloadKind("audio").Valid() {
		t.Fatalf("expected audio to be invalid")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}

	ctx = WithRequestID(ctx, "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestScoreInstructionKeepsPageOrder(t *testing.T) {
	pages := []Result{
		{Value: []any{"Page1 text mentions Python"}},
		{Value: []any{"Page2 text mentions Java"}},
		Failure("Failed to decode JSON from response."),
	}

	prompt, err := ScoreInstruction("Looking for a Python developer with SQL experience", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(prompt, "Looking for a Python developer with SQL experience") {
		t.Fatalf("expected job description in prompt")
	}

	first := strings.Index(prompt, "Page1 text mentions Python")
	second := strings.Index(prompt, "Page2 text mentions Java")
	failed := strings.Index(prompt, `"error": "Failed to decode JSON from response."`)
	if first < 0 || second < 0 || failed < 0 {
		t.Fatalf("expected every page result in prompt:\n%s", prompt)
	}
	if !(first < second && second < failed) {
		t.Fatalf("expected page results in page order")
	}

	if strings.Contains(prompt, placeholderJobDescription) || strings.Contains(prompt, placeholderExtractedText) {
		t.Fatalf("expected all placeholders to be replaced")
	}
}

func TestScoreInstructionDoesNotExpandUserPlaceholders(t *testing.T) {
	prompt, err := ScoreInstruction("copy {{EXTRACTED_TEXT}} here", []Result{{Value: "resume"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(prompt, "copy {{EXTRACTED_TEXT}} here") {
		t.Fatalf("expected user text to be kept verbatim")
	}
}

func TestPageInstruction(t *testing.T) {
	if !strings.Contains(PageInstruction(), "JSON") {
		t.Fatalf("expected page instruction to ask for JSON")
	}
}
