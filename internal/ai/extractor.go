package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// PayloadKind tells the extractor how to send the payload to the model.
type PayloadKind string

const (
	// PayloadImage means the payload is a path to a raster image on disk.
	PayloadImage PayloadKind = "image"
	// PayloadText means the payload is any JSON-serializable value.
	PayloadText PayloadKind = "text"
)

func (k PayloadKind) Valid() bool {
	return k == PayloadImage || k == PayloadText
}

// Result is the outcome of one extraction call. Exactly one of Value or
// Error is meaningful: a non-empty Error marks a failed call.
type Result struct {
	Value any
	Error string
}

func Failure(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

func (r Result) Failed() bool {
	return r.Error != ""
}

// MarshalJSON renders the parsed value itself, or {"error": ...} for failures.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	return json.Marshal(r.Value)
}

// Extractor sends an instruction plus a payload to a model and returns the
// parsed JSON answer. Implementations report every failure through
// Result.Error instead of returning a Go error.
type Extractor interface {
	Extract(ctx context.Context, kind PayloadKind, payload any, instruction string) Result
}

type requestIDKey struct{}

// WithRequestID tags ctx with the analysis request id. Extractors use it to
// key persisted results.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
