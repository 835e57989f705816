// Package evaluator coordinates out-of-band policy evaluation with
// training: a rollout loop feeding episode metrics, a synchronous
// evaluator with checkpoint-on-best, and an asynchronous worker protocol
// over FIFO job/done queues.
package evaluator

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/algorithm"
	"github.com/drivelab/driverl/config"
	"github.com/drivelab/driverl/env"
)

// Factory builds the evaluation-side environment and algorithm replicas.
// The async worker owns its own copies, entirely decoupled from the
// trainer's; the factory is how configuration is replayed to it.
type Factory struct {
	NewEnv       func(numEnvs int, seed uint64) (env.Environment, error)
	NewAlgorithm func(spec env.Spec) (algorithm.Algorithm, error)
}

// Evaluator evaluates the current algorithm, either inline in the calling
// goroutine or asynchronously on a dedicated worker, chosen once at
// construction.
//
// There is no liveness checking: if the worker dies, the next Eval or
// WaitComplete call blocks forever. See the package tests for the
// documented limitation.
type Evaluator struct {
	async    bool
	progress *TrainerProgress

	// Synchronous mode.
	env env.Environment
	se  *SyncEvaluator

	// Asynchronous mode.
	jobQ       Queue
	doneQ      Queue
	workerDone chan struct{}
}

// New builds an evaluator per cfg. In async mode the worker runs as a
// dedicated goroutine with in-process FIFO queues; use NewWithQueues to
// drive a worker living in another OS process.
func New(cfg *config.TrainerConfig, factory Factory, progress *TrainerProgress) (*Evaluator, error) {
	if !cfg.AsyncEval {
		e, err := factory.NewEnv(cfg.NumEvalEnvironments, cfg.RandomSeed)
		if err != nil {
			return nil, fmt.Errorf("creating evaluation environment: %w", err)
		}
		se, err := newConfiguredSyncEvaluator(e, cfg, progress)
		if err != nil {
			e.Close()
			return nil, err
		}
		return &Evaluator{progress: progress, env: e, se: se}, nil
	}

	jobQ := NewFIFO()
	doneQ := NewFIFO()
	ev := &Evaluator{
		async:      true,
		progress:   progress,
		jobQ:       jobQ,
		doneQ:      doneQ,
		workerDone: make(chan struct{}),
	}
	go func() {
		defer close(ev.workerDone)
		RunWorker("evaluator-worker", jobQ, doneQ, cfg, factory)
	}()
	return ev, nil
}

// NewWithQueues builds an async evaluator over externally provided queues
// (e.g. NATS-backed ones from the remote package). The worker process is
// managed by the caller.
func NewWithQueues(jobQ, doneQ Queue, progress *TrainerProgress) *Evaluator {
	return &Evaluator{
		async:    true,
		progress: progress,
		jobQ:     jobQ,
		doneQ:    doneQ,
	}
}

// Eval does one round of evaluation.
//
// In async mode it returns once the worker has made a copy of the
// algorithm's parameters — not once the round finishes. If a previous
// round is still in progress, the FIFO queues make this call block until
// the worker reaches the new job, so Eval calls serialize with respect to
// each other and at most one snapshot is in flight.
//
// stepMetricValues must contain EnvironmentStepsKey; that is a
// configuration error, reported immediately.
func (ev *Evaluator) Eval(alg algorithm.Algorithm, stepMetricValues map[string]int64) error {
	if _, ok := stepMetricValues[EnvironmentStepsKey]; !ok {
		return fmt.Errorf("step metrics must contain %q", EnvironmentStepsKey)
	}
	if !ev.async {
		return ev.se.Eval(alg, stepMetricValues, nil)
	}

	blob, err := alg.StateDict()
	if err != nil {
		return fmt.Errorf("serializing algorithm snapshot: %w", err)
	}
	job := EvalJob{
		Type:          JobEval,
		GlobalCounter: ev.progress.GlobalCounter(),
		StepMetrics:   stepMetricValues,
		StateDict:     blob,
	}
	log.Info().Int64("globalCounter", job.GlobalCounter).Msg("sending evaluation job")
	if err := ev.jobQ.Put(job); err != nil {
		return fmt.Errorf("enqueueing evaluation job: %w", err)
	}
	if _, err := ev.doneQ.Get(); err != nil {
		return fmt.Errorf("waiting for snapshot acknowledgment: %w", err)
	}
	log.Info().Msg("evaluation job accepted")
	return nil
}

// Close stops any ongoing evaluation and releases the evaluator. In async
// mode it blocks until the worker has exited.
func (ev *Evaluator) Close() error {
	if !ev.async {
		if err := ev.se.Close(); err != nil {
			log.Err(err).Msg("closing sync evaluator")
		}
		return ev.env.Close()
	}
	if err := ev.jobQ.Put(EvalJob{Type: JobStop}); err != nil {
		return fmt.Errorf("enqueueing stop job: %w", err)
	}
	if ev.workerDone != nil {
		<-ev.workerDone
		return nil
	}
	// Remote worker: its final acknowledgment doubles as the join.
	_, err := ev.doneQ.Get()
	return err
}

// WaitComplete blocks until every previously submitted evaluation round
// has been fully consumed by the worker. No-op in sync mode.
func (ev *Evaluator) WaitComplete() error {
	if !ev.async {
		return nil
	}
	if err := ev.jobQ.Put(EvalJob{Type: JobWait}); err != nil {
		return fmt.Errorf("enqueueing wait job: %w", err)
	}
	_, err := ev.doneQ.Get()
	return err
}

func newConfiguredSyncEvaluator(e env.Environment, cfg *config.TrainerConfig,
	progress *TrainerProgress) (*SyncEvaluator, error) {

	se, err := NewSyncEvaluator(e, cfg, progress)
	if err != nil {
		return nil, err
	}
	if cfg.SaveBestCheckpoint {
		se.SetBestChecker(NewBestEvalChecker(cfg.BestMetric), NewFileCheckpointer(cfg.RootDir))
	}
	return se, nil
}
