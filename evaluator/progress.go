package evaluator

import "sync/atomic"

// TrainerProgress holds the monotonic training counters summaries are
// stamped with. The trainer owns one instance; the async worker owns a
// separate replica and overwrites it from the counters carried in each
// eval job, so schedules that depend on global step match the trainer
// without any cross-process shared state.
type TrainerProgress struct {
	globalCounter atomic.Int64
	envSteps      atomic.Int64
}

func (p *TrainerProgress) Update(globalCounter, envSteps int64) {
	p.globalCounter.Store(globalCounter)
	p.envSteps.Store(envSteps)
}

func (p *TrainerProgress) GlobalCounter() int64 {
	return p.globalCounter.Load()
}

func (p *TrainerProgress) EnvSteps() int64 {
	return p.envSteps.Load()
}
