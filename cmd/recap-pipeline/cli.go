package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/farleyknight/legal-outcome-prediction/internal/config"
	"github.com/farleyknight/legal-outcome-prediction/pkg/cache"
	"github.com/farleyknight/legal-outcome-prediction/pkg/courtlistener"
	"github.com/farleyknight/legal-outcome-prediction/pkg/logging"
	"github.com/farleyknight/legal-outcome-prediction/pkg/pipeline"
	"github.com/farleyknight/legal-outcome-prediction/pkg/ratelimit"
	"github.com/farleyknight/legal-outcome-prediction/pkg/resolver"
)

// tokenEnvVar holds the API token; the token never travels through flags
// so it stays out of shell history.
const tokenEnvVar = "COURTLISTENER_API_TOKEN"

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "recap-pipeline",
		Usage:   "Match civil termination cases to court records and build the outcome dataset",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: ".", Usage: "Directory containing config.json"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error"},
			&cli.BoolFlag{Name: "pretty", Usage: "Human-readable console logs instead of JSON"},
		},
		Commands: []*cli.Command{
			runCmd(),
			checkCmd(),
		},
	}
}

// runCmd creates the run command.
func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full matching pipeline",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "sample", Usage: "Limit to N cases after filtering"},
			&cli.StringFlag{Name: "data", Usage: "Civil terminations extract (CSV, optionally .bz2)"},
			&cli.StringFlag{Name: "out", Usage: "Output CSV path"},
			&cli.StringFlag{Name: "cache-dir", Usage: "Directory for the sqlite response cache"},
			&cli.StringFlag{Name: "cache-backend", Usage: "Cache backend: sqlite|redis"},
			&cli.StringFlag{Name: "redis-addr", Usage: "Redis address for the redis backend"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if v := c.String("data"); v != "" {
				cfg.DataPath = v
			}
			if v := c.String("out"); v != "" {
				cfg.OutputPath = v
			}
			if v := c.String("cache-dir"); v != "" {
				cfg.CacheDir = v
			}
			if v := c.String("cache-backend"); v != "" {
				cfg.CacheBackend = v
			}
			if v := c.String("redis-addr"); v != "" {
				cfg.RedisAddr = v
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := pipeline.New(resolver.New(client, store), pipeline.Config{
				DataPath:         cfg.DataPath,
				OutputPath:       cfg.OutputPath,
				UnmatchedLogPath: cfg.UnmatchedLogPath,
				MetricsPath:      cfg.MetricsPath,
				SampleSize:       c.Int("sample"),
				NOSCodes:         cfg.NOSCodes,
			})

			summary, err := runner.Run(c.Context)
			if err != nil {
				return err
			}

			fmt.Printf("Run %s: %d matched, %d unmatched, %d transient (%.2f%% match rate)\n",
				summary.RunID, summary.MatchedCount, summary.UnmatchedCount,
				summary.TransientCount, summary.MatchRatePercentage)
			return nil
		},
	}
}

// checkCmd creates the check command.
func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify API connectivity and token validity",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			if err := client.CheckConnection(c.Context); err != nil {
				return fmt.Errorf("connection check failed: %w", err)
			}
			fmt.Println("API connection OK")
			return nil
		},
	}
}

// loadConfig reads config.json and applies global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: c.Bool("pretty"),
	})
	return cfg, nil
}

// newClient builds the API client from config and the token env var.
func newClient(cfg *config.Config) (*courtlistener.Client, error) {
	token := os.Getenv(tokenEnvVar)
	if token == "" {
		return nil, fmt.Errorf("%s is not set", tokenEnvVar)
	}

	retry := courtlistener.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}

	return courtlistener.New(courtlistener.Config{
		BaseURL: cfg.BaseURL,
		Token:   token,
		Gate:    ratelimit.NewGate(cfg.Interval()),
		Retry:   retry,
	})
}

// openStore builds the configured response cache backend.
func openStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "", "sqlite":
		store, err := cache.OpenSQLite(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
