package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/report"
	"github.com/spigell/resume-analyzer/internal/results"
)

func TestPrintSummary(t *testing.T) {
	view := report.NewView(&report.ScoreReport{
		OverallScore:    65,
		KeywordMatching: []string{"Go", "SQL", "Docker", "Linux", "Git", "gRPC"},
		ImportantKeys:   []string{"distributed systems"},
	})

	var buf bytes.Buffer
	printSummary(&buf, view)
	out := buf.String()

	for _, want := range []string{
		"Matching score: 65% (partial)",
		"Top matching skills (6 total):",
		"  - Git",
		"No critical missing skills.",
		"Key focus areas: distributed systems",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "gRPC") {
		t.Fatalf("expected only the top keywords in the summary, got:\n%s", out)
	}
}

func TestPrintPriorities(t *testing.T) {
	var buf bytes.Buffer
	printPriorities(&buf, report.Prioritize([]string{"Fix the layout", "Add experience with Kafka"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "[High  ] Add experience") {
		t.Fatalf("expected high priority first, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[Low   ] Fix the layout") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestPrintCategoriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	printCategories(&buf, nil)

	if !strings.Contains(buf.String(), "No major improvements needed.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestKeywordStatus(t *testing.T) {
	rep := &report.ScoreReport{
		KeywordMatching: []string{"Python"},
		MissingKeywords: []string{"SQL"},
	}

	tests := []struct {
		keyword string
		want    string
	}{
		{keyword: "python", want: "matched"},
		{keyword: " sql ", want: "missing"},
		{keyword: "Rust", want: "not mentioned by the report"},
	}

	for _, tt := range tests {
		if got := keywordStatus(rep, tt.keyword); got != tt.want {
			t.Fatalf("keywordStatus(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestDumpToTmpFile(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	name, err := dumpToTmpFile(&analyzer.Analysis{
		RequestID: "abc",
		Report:    &report.ScoreReport{OverallScore: 42},
	})
	if err != nil {
		t.Fatalf("dumpToTmpFile returned error: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(name), app+"-abc-") {
		t.Fatalf("unexpected file name %q", name)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	if !strings.Contains(string(data), `"overall_score": 42`) {
		t.Fatalf("unexpected dump content %s", data)
	}
}

func TestLoadViewReadsLatestResult(t *testing.T) {
	store := results.New(results.Config{Dir: t.TempDir()})

	if _, err := store.Save("req-1", map[string]any{"overall_score": 55}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save("req-2", map[string]any{"overall_score": 82, "keyword_matching": []string{"Go"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	latest, err := loadView(store, "")
	if err != nil {
		t.Fatalf("loadView returned error: %v", err)
	}
	if latest.Score != 82 || latest.Matched != 1 {
		t.Fatalf("expected the latest report, got %+v", latest)
	}

	first, err := loadView(store, "req-1")
	if err != nil {
		t.Fatalf("loadView returned error: %v", err)
	}
	if first.Score != 55 {
		t.Fatalf("expected the requested report, got score %d", first.Score)
	}
}

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := getConfig()
	if err != nil {
		t.Fatalf("getConfig returned error: %v", err)
	}

	if cfg.Rasterizer.OutputDir != "pdf_images" || cfg.Rasterizer.DPI != 300 || cfg.Rasterizer.Quality != 90 {
		t.Fatalf("unexpected rasterizer config %+v", cfg.Rasterizer)
	}
	if cfg.Analyzer.PageWorkers != 1 {
		t.Fatalf("unexpected page workers %d", cfg.Analyzer.PageWorkers)
	}
	if cfg.Results.File != "result.json" || cfg.Results.Dir != "." {
		t.Fatalf("unexpected results config %+v", cfg.Results)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" || cfg.Gemini.MaxLogLength != 200 {
		t.Fatalf("unexpected gemini config %+v", cfg.Gemini)
	}
	if cfg.Serve.Listen != ":8501" || cfg.Serve.UploadDir != "uploads" {
		t.Fatalf("unexpected serve config %+v", cfg.Serve)
	}
}

func TestGeminiKeyFromEnv(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "from-env")

	if got := viper.GetString("gemini.api-key"); got != "from-env" {
		t.Fatalf("expected key from GENAI_API_KEY, got %q", got)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if got := buf.String(); got != "resume-analyzer version: unknown\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
