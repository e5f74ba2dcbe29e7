package wait

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ringline/disruptor/cpu"
)

const (
	sleepSpinTries  = 200
	sleepYieldTries = 100
	minSleepNs      = int64(1 * time.Microsecond)
	maxSleepNs      = int64(1 * time.Millisecond)

	// hotWindow is how long after the last observed progress a consumer
	// keeps treating the producer as "busy" and stays in the cheap spin
	// state instead of paying a sleep's wake-up latency. Lifted from the
	// teacher's control.SignalActivity/PollCooldown hot-flag idiom, but
	// kept as instance state on the strategy rather than a package global.
	hotWindow = 1 * time.Second
)

// SleepingWaitStrategy spins briefly, then yields, then sleeps with
// exponential backoff up to maxSleepNs — the classic low-idle-CPU policy.
// It additionally tracks recent activity: as long as progress was observed
// within hotWindow, it keeps resetting to the cheap spin phase instead of
// escalating to sleep, on the theory that a producer that was just active
// is likely to publish again shortly.
type SleepingWaitStrategy struct {
	lastActiveNs int64 // unix nanos, atomic
}

// NewSleeping constructs a SleepingWaitStrategy.
func NewSleeping() *SleepingWaitStrategy {
	return &SleepingWaitStrategy{lastActiveNs: time.Now().UnixNano()}
}

func (w *SleepingWaitStrategy) WaitFor(expected int64, _, dependents Dependents, barrier Barrier) (int64, error) {
	counter := sleepSpinTries + sleepYieldTries
	sleepNs := minSleepNs
	for {
		if barrier.IsAlerted() {
			return 0, ErrAlerted
		}
		if v := dependents.Value(); v >= expected {
			atomic.StoreInt64(&w.lastActiveNs, time.Now().UnixNano())
			return v, nil
		}
		counter, sleepNs = w.backoff(counter, sleepNs)
	}
}

func (w *SleepingWaitStrategy) backoff(counter int, sleepNs int64) (int, int64) {
	if counter <= 0 && w.recentlyActive() {
		// hot window still open: skip the sleep tax and go back to spinning.
		return sleepSpinTries + sleepYieldTries, minSleepNs
	}
	switch {
	case counter > sleepYieldTries:
		cpu.Relax()
		return counter - 1, sleepNs
	case counter > 0:
		runtime.Gosched()
		return counter - 1, sleepNs
	default:
		time.Sleep(time.Duration(sleepNs))
		if sleepNs *= 2; sleepNs > maxSleepNs {
			sleepNs = maxSleepNs
		}
		return 0, sleepNs
	}
}

func (w *SleepingWaitStrategy) recentlyActive() bool {
	last := atomic.LoadInt64(&w.lastActiveNs)
	return time.Since(time.Unix(0, last)) <= hotWindow
}

func (w *SleepingWaitStrategy) SignalAllWhenBlocking() {}

// Park applies the same spin/yield/sleep escalation to a producer waiting
// on a wrap-gate, keyed off its retry attempt rather than persistent state.
func (w *SleepingWaitStrategy) Park(attempt int) {
	switch {
	case attempt < sleepSpinTries:
		cpu.Relax()
	case attempt < sleepSpinTries+sleepYieldTries:
		runtime.Gosched()
	default:
		time.Sleep(time.Duration(minSleepNs))
	}
}
