package env

import (
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ScalarEnv is a single (non-batched) environment. ParallelEnv composes
// B of these into one batched Environment.
type ScalarEnv interface {
	Reset() Observation
	// Step returns the next observation, the reward for the action, and
	// whether the episode just terminated.
	Step(action Action) (Observation, float64, bool)
	ObservationSpec() Spec
	Close() error
}

// ParallelEnv steps a set of scalar environments concurrently, one
// goroutine per slot per step. Slots that terminated on the previous step
// are reset instead of stepped, so the batched step stream auto-restarts
// episodes the way the evaluator expects.
type ParallelEnv struct {
	envs      []ScalarEnv
	needReset []bool
	steps     int64
}

func NewParallelEnv(envs []ScalarEnv) (*ParallelEnv, error) {
	if len(envs) == 0 {
		return nil, errors.New("parallel env needs at least one scalar env")
	}
	spec := envs[0].ObservationSpec()
	for _, e := range envs[1:] {
		if e.ObservationSpec().NumElements() != spec.NumElements() {
			return nil, errors.New("all scalar envs must share an observation spec")
		}
	}
	return &ParallelEnv{
		envs:      envs,
		needReset: make([]bool, len(envs)),
	}, nil
}

func (p *ParallelEnv) BatchSize() int {
	return len(p.envs)
}

func (p *ParallelEnv) ObservationSpec() Spec {
	return p.envs[0].ObservationSpec()
}

func (p *ParallelEnv) Reset() TimeStep {
	ts := p.newTimeStep()
	for i, e := range p.envs {
		ts.StepTypes[i] = StepFirst
		ts.Discounts[i] = 1.0
		ts.Observations[i] = e.Reset()
		p.needReset[i] = false
	}
	return ts
}

func (p *ParallelEnv) Step(actions []Action) TimeStep {
	ts := p.newTimeStep()
	g := errgroup.Group{}
	for i := range p.envs {
		g.Go(func() error {
			if p.needReset[i] {
				ts.StepTypes[i] = StepFirst
				ts.Discounts[i] = 1.0
				ts.Observations[i] = p.envs[i].Reset()
				p.needReset[i] = false
				return nil
			}
			obs, reward, done := p.envs[i].Step(actions[i])
			ts.Observations[i] = obs
			ts.Rewards[i] = reward
			if done {
				ts.StepTypes[i] = StepLast
				ts.Discounts[i] = 0.0
				p.needReset[i] = true
			} else {
				ts.StepTypes[i] = StepMid
				ts.Discounts[i] = 1.0
			}
			return nil
		})
	}
	// Slot goroutines never return errors; the group is only a join point.
	_ = g.Wait()
	p.steps += int64(len(p.envs))
	return ts
}

// SyncProgress resets the per-slot restart bookkeeping. Call it after
// Reset when reusing the environment for a fresh round.
func (p *ParallelEnv) SyncProgress() {
	for i := range p.needReset {
		p.needReset[i] = false
	}
}

// TotalSteps returns the number of scalar env steps taken so far.
func (p *ParallelEnv) TotalSteps() int64 {
	return p.steps
}

func (p *ParallelEnv) Close() error {
	var firstErr error
	for i, e := range p.envs {
		if err := e.Close(); err != nil {
			log.Err(err).Int("slot", i).Msg("closing scalar env")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *ParallelEnv) newTimeStep() TimeStep {
	b := len(p.envs)
	return TimeStep{
		StepTypes:    make([]StepType, b),
		Rewards:      make([]float64, b),
		Discounts:    make([]float64, b),
		Observations: make([]Observation, b),
	}
}
