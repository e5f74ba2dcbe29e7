package processor

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// HaltAll signals every processor to stop. It never blocks — Halt itself
// is fire-and-forget by design (§4.8) — so callers that need to know when
// shutdown actually completes should keep the Task each Start returned and
// pass them to TaskSet.
func HaltAll(processors ...EventProcessor) {
	for _, p := range processors {
		p.Halt()
	}
}

// TaskSet joins a set of previously-started processors' Task handles,
// aggregating every straggler's timeout into a single error via multierr —
// the generalized form of the teacher's main.go shutdown sequence, which
// stopped each pinned consumer and waited on its done channel in turn.
func TaskSet(timeout time.Duration, tasks ...Task) error {
	var err error
	for i, t := range tasks {
		if !t.Wait(timeout) {
			err = multierr.Append(err, &haltTimeoutError{index: i})
		}
	}
	return err
}

type haltTimeoutError struct {
	index int
}

func (e *haltTimeoutError) Error() string {
	return fmt.Sprintf("processor: task %d did not halt within timeout", e.index)
}
