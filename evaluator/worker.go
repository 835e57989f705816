package evaluator

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/config"
)

// evalSeedOffset keeps the worker's environment seed stream disjoint from
// the trainer's.
const evalSeedOffset = 13579

// StopOnSignal enqueues a stop job when a signal arrives, so an
// interrupted worker process still drains through the normal stop arm and
// closes its environment instead of dying mid-round. Returns after
// enqueueing once, or when sigCh is closed.
func StopOnSignal(q Queue, sigCh <-chan os.Signal) {
	sig, ok := <-sigCh
	if !ok {
		return
	}
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal, stopping worker")
	if err := q.Put(EvalJob{Type: JobStop}); err != nil {
		log.Err(err).Msg("enqueueing stop job on signal")
	}
}

// RunWorker is the evaluation worker loop. It owns a dedicated
// environment and algorithm replica built from the factory and serves
// jobs from jobQ strictly in FIFO order, acknowledging on doneQ.
//
// For eval jobs the acknowledgment is pushed immediately after the
// snapshot is loaded, before the round runs, so the trainer can resume
// updating parameters while evaluation proceeds. The lookahead queue is
// passed into the round so a later stop job aborts it with step-level
// latency.
//
// Errors during startup or a round are logged with the worker name and
// terminate the loop; the trainer is not notified and will hang on its
// next Eval or WaitComplete call. That silent stall is a known limitation
// of the protocol, kept deliberately.
func RunWorker(name string, jobQ, doneQ Queue, cfg *config.TrainerConfig, factory Factory) {
	logger := log.With().Str("worker", name).Logger()

	e, err := factory.NewEnv(cfg.NumEvalEnvironments, cfg.RandomSeed+evalSeedOffset)
	if err != nil {
		logger.Err(err).Msg("creating worker environment")
		return
	}
	alg, err := factory.NewAlgorithm(e.ObservationSpec())
	if err != nil {
		e.Close()
		logger.Err(err).Msg("creating worker algorithm")
		return
	}

	progress := &TrainerProgress{}
	se, err := newConfiguredSyncEvaluator(e, cfg, progress)
	if err != nil {
		e.Close()
		logger.Err(err).Msg("creating worker sync evaluator")
		return
	}
	defer se.Close()

	lookahead := NewPeekableQueue(jobQ)
	logger.Info().Msg("evaluator worker started")

	for {
		job, err := lookahead.Get()
		if err != nil {
			e.Close()
			logger.Err(err).Msg("job queue closed")
			return
		}
		switch job.Type {
		case JobEval:
			// Schedules inside the algorithm may depend on the global
			// counter or the training progress, so overwrite the local
			// counters with the values the job carries before loading.
			progress.Update(job.GlobalCounter, job.StepMetrics[EnvironmentStepsKey])
			if err := alg.LoadStateDict(job.StateDict); err != nil {
				e.Close()
				logger.Err(err).Msg("loading parameter snapshot")
				return
			}
			if err := doneQ.Put(EvalJob{}); err != nil {
				e.Close()
				logger.Err(err).Msg("acknowledging evaluation job")
				return
			}
			if err := se.Eval(alg, job.StepMetrics, lookahead); err != nil {
				e.Close()
				logger.Err(err).Msg("evaluation round failed")
				return
			}
		case JobStop:
			e.Close()
			if err := doneQ.Put(EvalJob{}); err != nil {
				logger.Err(err).Msg("acknowledging stop job")
			}
			logger.Info().Msg("evaluator worker stopped")
			return
		case JobWait:
			if err := doneQ.Put(EvalJob{}); err != nil {
				e.Close()
				logger.Err(err).Msg("acknowledging wait job")
				return
			}
		default:
			e.Close()
			logger.Error().Stringer("type", job.Type).Msg("received message of unknown type")
			return
		}
	}
}
