package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/report"
	"github.com/spigell/resume-analyzer/internal/results"
)

var showCmd = &cobra.Command{
	Use:   "show [request-id]",
	Short: "Render a saved score report",
	Long:  "Render a saved score report. Without a request id the latest result is shown.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		show(id)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func show(requestID string) {
	logger, config := setup()

	view, err := loadView(results.New(config.Results), requestID)
	if err != nil {
		logger.Fatal("loading the score report", zap.String("request_id", requestID), zap.Error(err))
	}

	printSummary(os.Stdout, view)
	printCategories(os.Stdout, view.Categories)
	printPriorities(os.Stdout, view.Priorities)
}

// loadView reads a saved score report. An empty requestID reads the latest one.
func loadView(store *results.Store, requestID string) (report.View, error) {
	raw, err := store.Load(requestID)
	if err != nil {
		return report.View{}, err
	}

	rep, err := report.Decode(raw)
	if err != nil {
		return report.View{}, fmt.Errorf("decode score report: %w", err)
	}

	return report.NewView(rep), nil
}
