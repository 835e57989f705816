// Package config loads the trainer/evaluator configuration from an
// optional YAML file, environment variables (DRIVERL_ prefix), and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// TrainerConfig configures one trainer/evaluator pair.
type TrainerConfig struct {
	// RootDir is where evaluation artifacts live: summaries and the
	// history database under <root>/eval, checkpoints under
	// <root>/train/algorithm.
	RootDir string `mapstructure:"root_dir"`

	// NumEvalEpisodes is the episode count per evaluation round.
	NumEvalEpisodes int `mapstructure:"num_eval_episodes"`
	// NumEvalEnvironments is the evaluation batch size.
	NumEvalEnvironments int `mapstructure:"num_eval_environments"`

	// AsyncEval runs evaluation on a dedicated worker instead of inline
	// in the training loop.
	AsyncEval bool `mapstructure:"async_eval"`

	// RandomSeed seeds the evaluation environments. The worker offsets
	// it so evaluation never replays the training seed stream.
	RandomSeed uint64 `mapstructure:"random_seed"`

	// Gamma is the discount factor for the discounted-return metric.
	Gamma float64 `mapstructure:"gamma"`

	// CompressSummaries gzips the evaluation summary stream.
	CompressSummaries bool `mapstructure:"compress_summaries"`
	// EvalHistory enables the sqlite evaluation-history store.
	EvalHistory bool `mapstructure:"eval_history"`

	// SaveBestCheckpoint saves a checkpoint tagged "best" whenever a
	// round beats the best BestMetric value seen so far.
	SaveBestCheckpoint bool `mapstructure:"save_best_checkpoint"`
	// BestMetric names the metric the best-checker compares; empty means
	// the average-return metric.
	BestMetric string `mapstructure:"best_metric"`

	// Remote runs the async worker as a separate OS process over NATS
	// queues instead of an in-process goroutine. Requires NatsURL.
	Remote  bool   `mapstructure:"remote"`
	NatsURL string `mapstructure:"nats_url"`
}

// Load reads the config from confFile (may be empty) plus DRIVERL_*
// environment variables, and validates it.
func Load(confFile string) (*TrainerConfig, error) {
	v := viper.New()
	v.SetDefault("root_dir", "./runs/default")
	v.SetDefault("num_eval_episodes", 10)
	v.SetDefault("num_eval_environments", 2)
	v.SetDefault("async_eval", false)
	v.SetDefault("random_seed", 42)
	v.SetDefault("gamma", 0.99)
	v.SetDefault("compress_summaries", false)
	v.SetDefault("eval_history", true)
	v.SetDefault("save_best_checkpoint", true)
	v.SetDefault("best_metric", "")
	v.SetDefault("remote", false)
	v.SetDefault("nats_url", "")

	v.SetEnvPrefix("driverl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if confFile != "" {
		v.SetConfigFile(confFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", confFile, err)
		}
	}

	cfg := &TrainerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work. These are fatal; the
// caller should not retry.
func (c *TrainerConfig) Validate() error {
	if c.NumEvalEpisodes < 1 {
		return errors.New("num_eval_episodes must be at least 1")
	}
	if c.NumEvalEnvironments < 1 {
		return errors.New("num_eval_environments must be at least 1")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.Remote && !c.AsyncEval {
		return errors.New("remote evaluation requires async_eval")
	}
	if c.Remote && c.NatsURL == "" {
		return errors.New("remote evaluation requires nats_url")
	}
	return nil
}

// Default returns the built-in defaults, for tests and the demo binaries.
func Default() *TrainerConfig {
	cfg, err := Load("")
	if err != nil {
		// Defaults always validate.
		panic(err)
	}
	return cfg
}
