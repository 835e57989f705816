package evaluator

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/algorithm"
	"github.com/drivelab/driverl/config"
	"github.com/drivelab/driverl/env"
	"github.com/drivelab/driverl/history"
	"github.com/drivelab/driverl/metrics"
	"github.com/drivelab/driverl/summary"
)

// SyncEvaluator runs one evaluation round at a time in the calling
// goroutine: rollout, logging, summary records, history row, and
// checkpoint-on-best.
type SyncEvaluator struct {
	env      env.Environment
	cfg      *config.TrainerConfig
	progress *TrainerProgress

	summaries *summary.Writer
	hist      *history.Store

	checker      *BestEvalChecker
	checkpointer Checkpointer
}

func NewSyncEvaluator(e env.Environment, cfg *config.TrainerConfig, progress *TrainerProgress) (*SyncEvaluator, error) {
	sw, err := summary.NewWriter(cfg.RootDir, cfg.CompressSummaries)
	if err != nil {
		return nil, fmt.Errorf("creating summary writer: %w", err)
	}
	se := &SyncEvaluator{
		env:       e,
		cfg:       cfg,
		progress:  progress,
		summaries: sw,
	}
	if cfg.EvalHistory {
		hist, err := history.Open(filepath.Join(cfg.RootDir, "eval", "history.db"))
		if err != nil {
			sw.Close()
			return nil, fmt.Errorf("opening eval history: %w", err)
		}
		se.hist = hist
	}
	return se, nil
}

// SetBestChecker enables checkpoint-on-best with the given checker and
// checkpointer. Both must be set together.
func (se *SyncEvaluator) SetBestChecker(checker *BestEvalChecker, ckpt Checkpointer) {
	se.checker = checker
	se.checkpointer = ckpt
}

// Eval runs exactly one evaluation round. If the rollout was cancelled by
// a pending stop message it returns without logging or checkpointing.
// stepMetricValues must contain EnvironmentStepsKey.
func (se *SyncEvaluator) Eval(alg algorithm.Algorithm, stepMetricValues map[string]int64,
	lookahead *PeekableQueue) error {

	if _, ok := stepMetricValues[EnvironmentStepsKey]; !ok {
		return fmt.Errorf("step metrics must contain %q", EnvironmentStepsKey)
	}

	log.Info().Int("episodes", se.cfg.NumEvalEpisodes).Msg("starting evaluation")
	ms := Evaluate(se.env, alg, se.cfg.NumEvalEpisodes, se.cfg.Gamma, lookahead)
	if ms == nil {
		// Cancelled mid-round; not an error.
		return nil
	}

	counter := se.progress.GlobalCounter()
	se.logMetrics(counter, ms)

	if err := se.summaries.Write(counter, stepMetricValues, ms); err != nil {
		return fmt.Errorf("writing evaluation summaries: %w", err)
	}

	best := false
	if se.checker != nil {
		var err error
		best, err = se.checker.Check(counter, ms)
		if err != nil {
			return err
		}
	}

	if se.hist != nil {
		values := make(map[string]float64, len(ms))
		for _, m := range ms {
			values[m.Name()] = m.Result()
		}
		if err := se.hist.RecordRound(counter, stepMetricValues[EnvironmentStepsKey], values, best); err != nil {
			return fmt.Errorf("recording evaluation history: %w", err)
		}
	}

	if best {
		log.Info().Int64("globalCounter", counter).Msg("saving the best checkpoint")
		if err := se.checkpointer.Save("best", alg, se.progress); err != nil {
			return fmt.Errorf("saving best checkpoint: %w", err)
		}
	}
	return nil
}

func (se *SyncEvaluator) logMetrics(counter int64, ms []metrics.StepMetric) {
	for _, m := range ms {
		ev := log.Info().Int64("globalCounter", counter).Str("metric", m.Name()).
			Float64("value", m.Result())
		if s, ok := m.(metrics.Sampler); ok {
			stat := metrics.Statistic{}
			for _, v := range s.Samples() {
				stat.Push(v)
			}
			ev = ev.Float64("stderr95", metrics.Z95*stat.StandardError()).
				Int("episodes", stat.Iterations())
		}
		ev.Msg("evaluation metric")
	}
}

// Close releases the summary and history resources. It does not close the
// environment; the owner of the environment does that.
func (se *SyncEvaluator) Close() error {
	var firstErr error
	if err := se.summaries.Close(); err != nil {
		firstErr = err
	}
	if se.hist != nil {
		if err := se.hist.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
