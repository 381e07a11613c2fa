package slots

import "time"

// Clock abstracts wall-clock time so the reaper and scheduler can be
// tested with a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real clock used outside tests.
var SystemClock Clock = systemClock{}
