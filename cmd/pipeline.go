package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/ai/gemini"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/rasterizer"
	"github.com/spigell/resume-analyzer/internal/results"
	"github.com/spigell/resume-analyzer/internal/secrets"
)

// setup builds the logger and reads the configuration shared by all commands.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// the api key must never end up in the logs
	redacted := *config
	redacted.Gemini = &GeminiConfig{
		APIKeyFile:   config.Gemini.APIKeyFile,
		Model:        config.Gemini.Model,
		MaxLogLength: config.Gemini.MaxLogLength,
	}
	pretty, _ := json.MarshalIndent(redacted, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// newAnalyzer wires the rasterizer, the Gemini extraction client and the
// result store into a pipeline.
func newAnalyzer(ctx context.Context, config *Config, lg *zap.Logger) (*analyzer.Analyzer, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  config.Gemini.APIKeyFile,
		Value: config.Gemini.APIKey,
		Env:   []string{"GENAI_API_KEY", "GEMINI_API_KEY"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GENAI_API_KEY or gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, lg)
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithCommonFields(lg, "gemini", generator.Model())
	genLogger.Info("gemini client ready")

	store := results.New(config.Results)
	extractor := gemini.NewExtractor(generator, store, genLogger, config.Gemini.MaxLogLength)
	pages := rasterizer.New(config.Rasterizer, lg)

	return analyzer.New(pages, extractor, config.Analyzer, lg), nil
}
