package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-finder"
)

type Config struct {
	Search *SearchConfig `mapstructure:"search"`
	Serper *SerperConfig `mapstructure:"serper"`
	AI     *AIConfig     `mapstructure:"ai"`
	Cache  *CacheConfig  `mapstructure:"cache"`
	Output string        `mapstructure:"output"`
}

type SearchConfig struct {
	Location       string   `mapstructure:"location"`
	ChunkSize      int      `mapstructure:"chunk-size"`
	TopN           int      `mapstructure:"top-n"`
	TrustedDomains []string `mapstructure:"trusted-domains"`
	// Skills is the manual skill list used when AI extraction is disabled
	// or no resume file is given.
	Skills []string `mapstructure:"skills"`
}

type SerperConfig struct {
	APIKey      string `mapstructure:"api-key"`
	APIKeyFile  string `mapstructure:"api-key-file"`
	GL          string `mapstructure:"gl"`
	HL          string `mapstructure:"hl"`
	MaxRetries  int    `mapstructure:"max-retries"`
	Concurrency int    `mapstructure:"concurrency"`
	// QueryTimeoutSeconds bounds a single search call, retries included.
	QueryTimeoutSeconds int `mapstructure:"query-timeout-seconds"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RedisURL   string `mapstructure:"redis-url"`
	TTLMinutes int    `mapstructure:"ttl-minutes"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-finder matches the skills from your resume against fresh job-board listings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("serper.api-key-file", "SERPER_API_KEY_FILE"); err != nil {
		log.Fatalf("binding SERPER_API_KEY_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-finder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the run command. If there is no config, we can skip initialization.
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
