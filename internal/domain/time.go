package domain

import "time"

// TimeProvider abstracts the clock so elapsed-time rules (the refund
// window, timestamp bumps) stay deterministic under test.
type TimeProvider interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now().UTC() }

// SystemTime reads the wall clock. Production wiring uses this one.
var SystemTime TimeProvider = systemTime{}
