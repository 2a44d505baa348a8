package gemini

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// DecodeErrorMessage is the Result.Error for responses that are not JSON.
const DecodeErrorMessage = "Failed to decode JSON from response."

var errNoJSON = errors.New(DecodeErrorMessage)

// fencedBlock matches the first markdown code fence with an optional
// language tag and captures its body.
var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*?)```")

// parseJSON decodes the model text. Only fence markers are removed; the body
// is left untouched, so strings such as "json" inside values survive.
func parseJSON(raw string) (any, error) {
	for _, candidate := range jsonCandidates(raw) {
		var v any
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	return nil, errNoJSON
}

// jsonCandidates lists the substrings worth trying, most specific first.
func jsonCandidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	candidates := make([]string, 0, 3)

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	} else if strings.HasPrefix(raw, "```") {
		// Opening fence without a closing one, e.g. a truncated response.
		body := strings.TrimPrefix(raw, "```")
		if idx := strings.IndexByte(body, '\n'); idx != -1 {
			body = body[idx+1:]
		}
		candidates = append(candidates, strings.TrimSpace(body))
	}

	candidates = append(candidates, raw)

	if outer := outermostJSON(raw); outer != "" {
		candidates = append(candidates, outer)
	}

	return candidates
}

// outermostJSON returns the span from the first opening brace or bracket to
// the last matching closer, for answers wrapped in prose.
func outermostJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return ""
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}

	return s[start : end+1]
}
