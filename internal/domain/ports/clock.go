package ports

import "time"

// Clock abstracts wall-clock time so the lifecycle rules (§4.K) and lock
// manager (§4.B) can be tested deterministically against boundary cases
// (SPEC_FULL §9). Production code uses the RealClock; tests use a fixed
// fake.
type Clock interface {
	Now() time.Time
}

// RealClock delegates to time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
