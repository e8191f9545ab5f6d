package TaskEngine

import "time"

// Clock supplies the current instant. It is injected everywhere the engine
// needs "now" so claim-expiry and horizon math stay testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the real system time.
func SystemClock() Clock { return systemClock{} }

// FixedClock always reports the same instant. Intended for tests and
// dry-run generation previews.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
