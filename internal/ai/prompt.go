package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts/page.md
var pageTemplate string

//go:embed prompts/score.md
var scoreTemplate string

const (
	placeholderJobDescription = "{{JOB_DESCRIPTION}}"
	placeholderExtractedText  = "{{EXTRACTED_TEXT}}"
)

// PageInstruction is sent with every page image.
func PageInstruction() string {
	return strings.TrimSpace(pageTemplate)
}

// ScoreInstruction embeds the job description and the per-page results, in
// page order, into the final scoring prompt.
func ScoreInstruction(jobDescription string, pages []Result) (string, error) {
	extracted, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal extracted pages: %w", err)
	}

	// The job description slot precedes the extracted one in the template, so
	// placeholders typed by the user or found on a page stay literal.
	prompt := strings.Replace(scoreTemplate, placeholderExtractedText, string(extracted), 1)
	prompt = strings.Replace(prompt, placeholderJobDescription, strings.TrimSpace(jobDescription), 1)

	return strings.TrimSpace(prompt), nil
}
