package evaluator

import (
	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/algorithm"
	"github.com/drivelab/driverl/env"
	"github.com/drivelab/driverl/metrics"
)

// Evaluate drives one round of batched rollouts and returns the populated
// metrics, or nil if a pending stop message was observed on the lookahead
// queue (cancellation, not failure).
//
// For parallel play we cannot naively keep the first numEpisodes episodes
// that finish, as that biases statistics toward short episodes. Instead
// each slot contributes exactly ceil(numEpisodes/B) episodes; once a slot
// hits its quota, its step type is forced to FIRST on the copy the metrics
// see, so metrics that fire on LAST ignore the surplus.
func Evaluate(e env.Environment, alg algorithm.Algorithm, numEpisodes int, gamma float64,
	lookahead *PeekableQueue) []metrics.StepMetric {

	batch := e.BatchSize()
	ts := e.Reset()
	e.SyncProgress()
	alg.Eval()
	state := alg.InitialPredictState(batch)

	episodesPerEnv := (numEpisodes + batch - 1) / batch
	envEpisodes := make([]int, batch)
	episodes := 0

	ms := []metrics.StepMetric{
		metrics.NewAverageReturnMetric(numEpisodes, batch),
		metrics.NewAverageEpisodeLengthMetric(numEpisodes, batch),
		metrics.NewAverageDiscountedReturnMetric(numEpisodes, batch, gamma),
		metrics.NewAverageRewardMetric(numEpisodes, batch),
	}

	for episodes < numEpisodes {
		metricView := ts.Clone()
		for i := range envEpisodes {
			if envEpisodes[i] >= episodesPerEnv {
				metricView.StepTypes[i] = env.StepFirst
			}
		}

		actions, nextState := alg.Predict(ts, state)
		next := e.Step(actions)

		for _, m := range ms {
			m.Update(metricView)
		}

		// Count completed episodes from the unmodified step types; slots
		// already at quota were overridden above and never count twice.
		for i := range envEpisodes {
			if envEpisodes[i] >= episodesPerEnv {
				ts.StepTypes[i] = env.StepFirst
			}
			if ts.StepTypes[i] == env.StepLast {
				envEpisodes[i]++
				episodes++
			}
		}

		state = nextState
		ts = next

		if lookahead != nil {
			if job, ok := lookahead.Peek(); ok && job.Type == JobStop {
				log.Info().Msg("received stop signal, aborting evaluation")
				return nil
			}
		}
	}

	e.Reset()
	return ms
}
