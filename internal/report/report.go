// Package report turns the free-form scoring answer into a typed ScoreReport
// and derives what the presentation layers show from it.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	MinScore = 0
	MaxScore = 100
)

var ErrNotAnObject = errors.New("score report must be a json object")

// ScoreReport is the expected shape of the scoring answer. Every field is
// optional; absent fields stay at their zero value.
type ScoreReport struct {
	OverallScore    int      `json:"overall_score"`
	KeywordMatching []string `json:"keyword_matching"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
	ImportantKeys   []string `json:"important_keys"`
}

type rawReport struct {
	OverallScore    any      `mapstructure:"overall_score"`
	KeywordMatching []string `mapstructure:"keyword_matching"`
	MissingKeywords []string `mapstructure:"missing_keywords"`
	Suggestions     []string `mapstructure:"suggestions"`
	ImportantKeys   []string `mapstructure:"important_keys"`
}

// Decode converts a parsed model answer into a ScoreReport. Scalars are
// weakly typed ("85" and 85.4 both become 85), single strings become one
// element lists, and objects inside lists are flattened to text.
func Decode(v any) (*ScoreReport, error) {
	if v == nil {
		return &ScoreReport{}, nil
	}

	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("%w, got %T", ErrNotAnObject, v)
	}

	var raw rawReport
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       objectToStringHook,
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(v); err != nil {
		return nil, fmt.Errorf("decode score report: %w", err)
	}

	return &ScoreReport{
		OverallScore:    coerceScore(raw.OverallScore),
		KeywordMatching: cleanList(raw.KeywordMatching),
		MissingKeywords: cleanList(raw.MissingKeywords),
		Suggestions:     cleanList(raw.Suggestions),
		ImportantKeys:   cleanList(raw.ImportantKeys),
	}, nil
}

// Matches reports whether keyword is among the matching keywords, ignoring case.
func (r *ScoreReport) Matches(keyword string) bool {
	return containsFold(r.KeywordMatching, keyword)
}

// Misses reports whether keyword is among the missing keywords, ignoring case.
func (r *ScoreReport) Misses(keyword string) bool {
	return containsFold(r.MissingKeywords, keyword)
}

func containsFold(items []string, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	for _, item := range items {
		if strings.EqualFold(item, keyword) {
			return true
		}
	}
	return false
}

func objectToStringHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}

	switch val := data.(type) {
	case map[string]any:
		// {"suggestion": "..."} style items: a single text value is the item.
		if len(val) == 1 {
			for _, inner := range val {
				if s, ok := inner.(string); ok {
					return s, nil
				}
			}
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val), nil
		}
		return string(b), nil
	case []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val), nil
		}
		return string(b), nil
	default:
		return data, nil
	}
}

func coerceScore(v any) int {
	var f float64

	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		// "72/100" style answers.
		if idx := strings.IndexByte(trimmed, '/'); idx != -1 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) {
		return 0
	}

	score := int(math.Round(f))
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
