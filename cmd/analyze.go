package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/rasterizer"
	"github.com/spigell/resume-analyzer/internal/report"
)

const (
	PromptSummary      = "Summary"
	PromptMatched      = "Matching keywords"
	PromptMissing      = "Missing keywords"
	PromptImprovements = "Categorized improvements"
	PromptPriorities   = "Priority suggestions"
	PromptKeyword      = "Check a keyword"
	PromptDump         = "Dump report to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSummary, PromptMatched, PromptMissing, PromptImprovements, PromptPriorities, PromptKeyword, PromptDump, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a PDF resume against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "path to the PDF resume")
	analyzeCmd.Flags().String("job", "", "job description text")
	analyzeCmd.Flags().String("job-file", "", "file with the job description")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "print the summary and exit without the interactive menu")

	analyzeCmd.MarkFlagRequired("resume")
}

func analyze(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, config := setup()

	logger.Info("starting the resume-analyzer", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")

	pages, err := rasterizer.Inspect(resumePath)
	if err != nil {
		logger.Fatal("reading the resume", zap.String("path", resumePath), zap.Error(err))
	}
	logger.Info("resume loaded", zap.String("path", resumePath), zap.Int("pages", pages))

	jd, err := jobDescription(cmd)
	if err != nil {
		logger.Fatal("getting the job description", zap.Error(err))
	}

	pipeline, err := newAnalyzer(ctx, config, logger)
	if err != nil {
		logger.Fatal(
			"building the analyzer",
			zap.Error(err),
			zap.String("hint", "set GENAI_API_KEY environment variable or the 'gemini.api-key-file' key in the configuration file"),
		)
	}

	analysis, err := pipeline.Analyze(ctx, resumePath, jd)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if analysis != nil {
			fields = append(fields, zap.String("request_id", analysis.RequestID), zap.Int("pages", len(analysis.Pages)))
		}
		logger.Fatal("analysis failed", fields...)
	}

	view := report.NewView(analysis.Report)

	logger.Info("analysis finished",
		zap.String("request_id", analysis.RequestID),
		zap.Int("score", view.Score),
		zap.Int("failed_pages", analysis.FailedPages()),
		zap.Duration("took", analysis.Duration),
	)

	printSummary(os.Stdout, view)

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, analysis, view); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, analysis *analyzer.Analysis, view report.View) error {
	switch action {
	case PromptSummary:
		printSummary(os.Stdout, view)
	case PromptMatched:
		printKeywords(os.Stdout, "Matching keywords", analysis.Report.KeywordMatching)
	case PromptMissing:
		printKeywords(os.Stdout, "Missing keywords", analysis.Report.MissingKeywords)
	case PromptImprovements:
		printCategories(os.Stdout, view.Categories)
	case PromptPriorities:
		printPriorities(os.Stdout, view.Priorities)
	case PromptKeyword:
		keywordPrompt := promptui.Prompt{Label: "Keyword"}
		keyword, err := keywordPrompt.Run()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n\n", strings.TrimSpace(keyword), keywordStatus(analysis.Report, keyword))
	case PromptDump:
		filename, err := dumpToTmpFile(analysis)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
	return nil
}

// jobDescription takes --job, then --job-file, then asks interactively.
func jobDescription(cmd *cobra.Command) (string, error) {
	if jd, _ := cmd.Flags().GetString("job"); strings.TrimSpace(jd) != "" {
		return jd, nil
	}

	if path, _ := cmd.Flags().GetString("job-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", analyzer.ErrEmptyJobDescription
		}
		return string(data), nil
	}

	jdPrompt := promptui.Prompt{
		Label: "Paste the job description",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return analyzer.ErrEmptyJobDescription
			}
			return nil
		},
	}

	return jdPrompt.Run()
}

func dumpToTmpFile(analysis *analyzer.Analysis) (string, error) {
	f, err := os.CreateTemp("", app+"-"+analysis.RequestID+"-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis.Report); err != nil {
		return "", err
	}

	return f.Name(), nil
}
