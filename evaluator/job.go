package evaluator

import "fmt"

// JobType tags the messages exchanged between the trainer and the
// evaluation worker. The set is closed; consumers switch on it
// exhaustively and treat anything else as a fatal protocol error.
type JobType int8

const (
	// JobEval carries a parameter snapshot plus the trainer's counters
	// and requests one round of evaluation.
	JobEval JobType = iota + 1
	// JobStop tells the worker to abandon any in-flight round, close its
	// environment and exit.
	JobStop
	// JobWait is a synchronization barrier: the worker acknowledges it
	// only once all prior eval jobs have been consumed.
	JobWait
)

func (t JobType) String() string {
	switch t {
	case JobEval:
		return "eval"
	case JobStop:
		return "stop"
	case JobWait:
		return "wait"
	}
	return fmt.Sprintf("unknown(%d)", int8(t))
}

// EvalJob is one message on the job queue. Immutable once constructed.
// Only GlobalCounter, StepMetrics and StateDict are meaningful, and only
// for JobEval; the other types carry the tag alone.
type EvalJob struct {
	Type          JobType          `json:"type"`
	GlobalCounter int64            `json:"global_counter,omitempty"`
	StepMetrics   map[string]int64 `json:"step_metrics,omitempty"`
	StateDict     []byte           `json:"state_dict,omitempty"`
}

// EnvironmentStepsKey is the one step-metric key every eval job must
// carry; the worker replays it into its trainer-progress counters.
const EnvironmentStepsKey = "EnvironmentSteps"
