package report

import (
	"sort"
	"strings"
)

// TopN is how many matched/missing keywords and priority suggestions are
// shown before the rest is folded away.
const TopN = 5

type Level string

const (
	LevelStrong  Level = "strong"
	LevelPartial Level = "partial"
	LevelWeak    Level = "weak"
)

// Verdict classifies an overall score.
type Verdict struct {
	Level   Level
	Color   string
	Message string
}

func VerdictFor(score int) Verdict {
	switch {
	case score >= 80:
		return Verdict{Level: LevelStrong, Color: "#2ECC71", Message: "Your resume strongly aligns with the job requirements!"}
	case score >= 60:
		return Verdict{Level: LevelPartial, Color: "#F39C12", Message: "Your resume partially aligns with the job description. Consider improving a few areas."}
	default:
		return Verdict{Level: LevelWeak, Color: "#E74C3C", Message: "Your resume needs significant improvements to match the job description."}
	}
}

// Category groups suggestions by what part of the résumé they are about.
type Category struct {
	Name  string
	Items []string
}

type categoryRule struct {
	name     string
	keywords []string
}

var categoryRules = []categoryRule{
	{name: "Skills & Certifications", keywords: []string{"skill", "certification", "training"}},
	{name: "Experience & Work History", keywords: []string{"experience", "projects", "work history"}},
	{name: "Resume Formatting & Structure", keywords: []string{"format", "layout", "structure", "design"}},
	{name: "Education & Qualifications", keywords: []string{"education", "degree", "qualification"}},
}

// Categorize assigns every suggestion to the first category whose keyword it
// mentions. Suggestions matching nothing are dropped; empty categories are
// omitted.
func Categorize(suggestions []string) []Category {
	buckets := make([][]string, len(categoryRules))

	for _, suggestion := range suggestions {
		lower := strings.ToLower(suggestion)
		for i, rule := range categoryRules {
			if containsAny(lower, rule.keywords) {
				buckets[i] = append(buckets[i], suggestion)
				break
			}
		}
	}

	categories := make([]Category, 0, len(categoryRules))
	for i, items := range buckets {
		if len(items) > 0 {
			categories = append(categories, Category{Name: categoryRules[i].name, Items: items})
		}
	}
	return categories
}

type PriorityLevel int

const (
	PriorityLow PriorityLevel = iota
	PriorityMedium
	PriorityHigh
)

func (p PriorityLevel) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

type Priority struct {
	Suggestion string
	Level      PriorityLevel
}

// Prioritize ranks suggestions: experience first, then skills, then the rest,
// keeping the model's order within a level, and returns at most TopN.
func Prioritize(suggestions []string) []Priority {
	out := make([]Priority, 0, len(suggestions))
	for _, suggestion := range suggestions {
		lower := strings.ToLower(suggestion)
		level := PriorityLow
		switch {
		case strings.Contains(lower, "experience"):
			level = PriorityHigh
		case strings.Contains(lower, "skill"):
			level = PriorityMedium
		}
		out = append(out, Priority{Suggestion: suggestion, Level: level})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })

	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// View is everything the upload/analytics screens and the CLI render.
type View struct {
	Score        int
	Verdict      Verdict
	TopMatching  []string
	MoreMatching []string
	TopMissing   []string
	MoreMissing  []string
	Categories   []Category
	Priorities   []Priority
	FocusAreas   []string
	Matched      int
	Missing      int
}

func NewView(r *ScoreReport) View {
	if r == nil {
		r = &ScoreReport{}
	}

	topMatching, moreMatching := split(r.KeywordMatching, TopN)
	topMissing, moreMissing := split(r.MissingKeywords, TopN)

	return View{
		Score:        r.OverallScore,
		Verdict:      VerdictFor(r.OverallScore),
		TopMatching:  topMatching,
		MoreMatching: moreMatching,
		TopMissing:   topMissing,
		MoreMissing:  moreMissing,
		Categories:   Categorize(r.Suggestions),
		Priorities:   Prioritize(r.Suggestions),
		FocusAreas:   r.ImportantKeys,
		Matched:      len(r.KeywordMatching),
		Missing:      len(r.MissingKeywords),
	}
}

func split(items []string, n int) ([]string, []string) {
	if len(items) <= n {
		return items, nil
	}
	return items[:n], items[n:]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
