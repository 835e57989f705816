// Package env defines the batched environment abstraction driven by the
// evaluation rollout loop, plus a goroutine-parallel wrapper that turns a
// set of scalar environments into one batched environment.
package env

// Environment is a batched, vectorized simulation stepper. Implementations
// own all of their state; the evaluator never shares an Environment between
// goroutines.
type Environment interface {
	// Reset resets every slot and returns the initial batched time step
	// (all step types FIRST).
	Reset() TimeStep
	// Step advances every slot by one action. Slots whose previous step
	// was LAST are automatically reset and produce a FIRST step.
	Step(actions []Action) TimeStep
	// BatchSize returns the number of parallel slots.
	BatchSize() int
	// ObservationSpec describes one slot's observation.
	ObservationSpec() Spec
	// SyncProgress re-synchronizes any internal step counters after a
	// reset, e.g. when an evaluation round reuses the environment.
	SyncProgress()
	Close() error
}
