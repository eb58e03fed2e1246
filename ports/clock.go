package ports

import "time"

// Clock abstracts the passage of time so trial waits are testable. The
// sequencer only ever sleeps between input samples and trials.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall-clock implementation used outside tests
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
