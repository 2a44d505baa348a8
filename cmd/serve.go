package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/session"
	"github.com/spigell/resume-analyzer/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser UI",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8501)")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the resume-analyzer ui", zap.String("version", version))

	pipeline, err := newAnalyzer(ctx, config, logger)
	if err != nil {
		logger.Fatal(
			"building the analyzer",
			zap.Error(err),
			zap.String("hint", "set GENAI_API_KEY environment variable or the 'gemini.api-key-file' key in the configuration file"),
		)
	}

	srv, err := web.New(config.Serve, pipeline, session.NewManager(), logger)
	if err != nil {
		logger.Fatal("building the web ui", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving the web ui", zap.Error(err))
	}
}
