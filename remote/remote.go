// Package remote carries the evaluator job/done queues over NATS so the
// evaluation worker can run as a separate OS process (or host). The wire
// format is JSON-encoded EvalJobs on two plain subjects; like the
// in-process queues, it is private to one trainer/worker pair and relies
// on FIFO ordering with a single consumer per subject.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/evaluator"
)

const (
	DefaultJobSubject  = "driverl.eval.jobs"
	DefaultDoneSubject = "driverl.eval.done"
)

// Connect dials the NATS server with exponential backoff. Evaluation
// workers often start before the broker is up.
func Connect(url, name string) (*nats.Conn, error) {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(url, nats.Name(name))
			return err
		},
		retry.Attempts(8),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Uint("attempt", n).Err(err).Str("url", url).Msg("nats connect failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return nc, nil
}

// Queue is one direction of the protocol on one subject. A producer-side
// Queue has no subscription and can only Put; a consumer-side Queue
// subscribes and can Get. Implements evaluator.Queue.
type Queue struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewProducer returns a send-only queue on the subject.
func NewProducer(nc *nats.Conn, subject string) *Queue {
	return &Queue{nc: nc, subject: subject}
}

// NewConsumer subscribes to the subject and returns a receive-capable
// queue. There must be exactly one consumer per subject.
func NewConsumer(nc *nats.Conn, subject string) (*Queue, error) {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	return &Queue{nc: nc, subject: subject, sub: sub}, nil
}

func (q *Queue) Put(job evaluator.EvalJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshalling eval job: %w", err)
	}
	if err := q.nc.Publish(q.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", q.subject, err)
	}
	return q.nc.Flush()
}

func (q *Queue) Get() (evaluator.EvalJob, error) {
	if q.sub == nil {
		return evaluator.EvalJob{}, errors.New("queue is send-only")
	}
	for {
		msg, err := q.sub.NextMsg(time.Second)
		if errors.Is(err, nats.ErrTimeout) {
			continue
		}
		if err != nil {
			return evaluator.EvalJob{}, fmt.Errorf("receiving from %s: %w", q.subject, err)
		}
		var job evaluator.EvalJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			return evaluator.EvalJob{}, fmt.Errorf("unmarshalling eval job: %w", err)
		}
		return job, nil
	}
}

func (q *Queue) Empty() bool {
	if q.sub == nil {
		return true
	}
	n, _, err := q.sub.Pending()
	return err != nil || n == 0
}

func (q *Queue) Close() error {
	if q.sub != nil {
		return q.sub.Unsubscribe()
	}
	return nil
}
