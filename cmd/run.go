package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"jobfinder/internal/ai"
	"jobfinder/internal/ai/gemini"
	"jobfinder/internal/cache"
	"jobfinder/internal/logger"
	"jobfinder/internal/pipeline"
	"jobfinder/internal/secrets"
	"jobfinder/internal/serper"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultOutputFile   = "job_results.csv"
	defaultCacheTTL     = 30 * time.Minute
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultProviderName = "gemini"
)

var prompt = promptui.Select{
	Label: "Proceed with the search?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job-finder main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume-file", "r", "", "plain-text resume to extract skills from")
	runCmd.Flags().StringP("output", "o", "", "path of the CSV report (default is "+defaultOutputFile+")")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before issuing search queries")

	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-finder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil || config.Search == nil {
		logger.Fatal("a search section with a location is required")
	}

	pipelineCfg := buildPipelineConfig(config.Search)
	if err := pipelineCfg.Validate(); err != nil {
		logger.Fatal("validating search configuration", zap.Error(err))
	}

	skills := resolveSkills(ctx, cmd, config, logger)

	if len(skills) == 0 {
		logger.Info("no skills available, falling back to a generic location search")
	} else {
		logger.Info("using skills", zap.Int("count", len(skills)), zap.Strings("skills", skills))
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	searcher, closeCache, err := buildSearcher(config, logger)
	if err != nil {
		logger.Fatal("building the searcher", zap.Error(err))
	}
	defer closeCache()

	opts := pipeline.Options{}
	if config.Serper != nil {
		opts.Concurrency = config.Serper.Concurrency
		if config.Serper.QueryTimeoutSeconds > 0 {
			opts.QueryTimeout = time.Duration(config.Serper.QueryTimeoutSeconds) * time.Second
		}
	}

	pipe, err := pipeline.New(searcher, pipelineCfg, logger, opts)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	report, err := pipe.Run(ctx, skills)
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err))
	}

	output := strings.TrimSpace(viper.GetString("output"))
	if output == "" {
		output = defaultOutputFile
	}

	if err := report.SaveCSV(output); err != nil {
		logger.Fatal("saving the report", zap.Error(err))
	}

	logger.Info("job search complete",
		zap.Int("rows", report.Len()),
		zap.String("file", output),
	)
}

func buildPipelineConfig(search *SearchConfig) *pipeline.Config {
	chunkSize := search.ChunkSize
	if chunkSize == 0 {
		chunkSize = pipeline.DefaultChunkSize
	}

	topN := search.TopN
	if topN == 0 {
		topN = pipeline.DefaultTopN
	}

	return &pipeline.Config{
		Location:       search.Location,
		ChunkSize:      chunkSize,
		TopN:           topN,
		TrustedDomains: search.TrustedDomains,
	}
}

// resolveSkills prefers AI extraction from the resume file and falls back to
// the manual skill list from the config. Extraction failures degrade to the
// fallback, never abort the run.
func resolveSkills(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) []string {
	resumeFile := strings.TrimSpace(cmd.Flag("resume-file").Value.String())

	if resumeFile == "" || config.AI == nil || !config.AI.Enabled {
		return config.Search.Skills
	}

	text, err := os.ReadFile(resumeFile)
	if err != nil {
		logger.Warn("reading resume file, falling back to configured skills", zap.Error(err))
		return config.Search.Skills
	}

	extractor, err := newSkillExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("building skill extractor, falling back to configured skills", zap.Error(err))
		return config.Search.Skills
	}

	skills, err := extractor.ExtractSkills(ctx, string(text))
	if err != nil {
		logger.Warn("extracting skills, falling back to configured skills", zap.Error(err))
		return config.Search.Skills
	}

	logger.Info("extracted skills from resume",
		zap.String("file", resumeFile),
		zap.Int("count", len(skills)),
	)

	return skills
}

func newSkillExtractor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.SkillExtractor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != defaultProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	model := cfg.Gemini.Model
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}

	extractorLogger := logger.With(
		zap.String("provider", defaultProviderName),
		zap.String("model", generator.Model()),
	)

	return gemini.NewExtractor(generator, extractorLogger, cfg.Gemini.MaxLogLength), nil
}

// buildSearcher wires the Serper client and, when enabled, the Redis batch
// cache in front of it. The returned closer is a no-op without a cache.
func buildSearcher(config *Config, logger *zap.Logger) (pipeline.Searcher, func(), error) {
	if config.Serper == nil {
		return nil, nil, fmt.Errorf("a serper section is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "serper api key",
		Value: config.Serper.APIKey,
		File:  config.Serper.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set serper.api-key-file or SERPER_API_KEY_FILE)", err)
	}

	client := serper.New(apiKey, logger)

	if config.Serper.GL != "" {
		client.GL = config.Serper.GL
	}
	if config.Serper.HL != "" {
		client.HL = config.Serper.HL
	}
	if config.Serper.MaxRetries > 0 {
		client.MaxRetries = config.Serper.MaxRetries
	}

	if config.Cache == nil || !config.Cache.Enabled {
		return client, func() {}, nil
	}

	ttl := defaultCacheTTL
	if config.Cache.TTLMinutes > 0 {
		ttl = time.Duration(config.Cache.TTLMinutes) * time.Minute
	}

	batchCache, err := cache.New(config.Cache.RedisURL, ttl, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting the search cache: %w", err)
	}

	closer := func() {
		if err := batchCache.Close(); err != nil {
			logger.Warn("closing the search cache", zap.Error(err))
		}
	}

	return cache.NewSearcher(client, batchCache), closer, nil
}
