package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-analyzer/internal/analyzer"
	"github.com/spigell/resume-analyzer/internal/rasterizer"
	"github.com/spigell/resume-analyzer/internal/results"
	"github.com/spigell/resume-analyzer/internal/web"
)

const (
	app = "resume-analyzer"
)

type Config struct {
	Rasterizer rasterizer.Config `mapstructure:",squash"`
	Analyzer   analyzer.Config   `mapstructure:",squash"`
	Results    results.Config    `mapstructure:"results"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	Serve      web.Config        `mapstructure:"serve"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-analyzer scores a PDF resume against a job description with Gemini",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	if err := viper.BindEnv("gemini.api-key", "GENAI_API_KEY", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GENAI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-analyzer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("output-dir", rasterizer.DefaultOutputDir)
	viper.SetDefault("dpi", rasterizer.DefaultDPI)
	viper.SetDefault("jpeg-quality", rasterizer.DefaultQuality)
	viper.SetDefault("page-workers", 1)
	viper.SetDefault("results.dir", ".")
	viper.SetDefault("results.file", results.DefaultFile)
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.max-log-length", 200)
	viper.SetDefault("serve.listen", ":8501")
	viper.SetDefault("serve.upload-dir", "uploads")
	viper.SetDefault("serve.max-upload-mb", 20)
	viper.SetDefault("serve.session-ttl", "2h")
}

func initConfig() {
	// A missing .env is fine; the variables may come from the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}

	return config, nil
}
