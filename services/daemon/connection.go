package daemon

import (
	"time"

	"github.com/jpillora/backoff"
)

// reconnectBaseDelay is the delay after the first failed connection attempt.
// Each further failure doubles it up to the configured ceiling.
const reconnectBaseDelay = 60 * time.Second

// ReconnectPolicy computes the wait between connection attempts. Delays grow
// exponentially from the base and are capped at the ceiling; a successful
// connection resets the sequence.
type ReconnectPolicy struct {
	b *backoff.Backoff
}

func NewReconnectPolicy(ceiling time.Duration) *ReconnectPolicy {
	if ceiling < reconnectBaseDelay {
		ceiling = reconnectBaseDelay
	}
	return &ReconnectPolicy{
		b: &backoff.Backoff{
			Min:    reconnectBaseDelay,
			Max:    ceiling,
			Factor: 2,
			Jitter: false,
		},
	}
}

// NextDelay records a failed attempt and returns how long to wait before the
// next one.
func (p *ReconnectPolicy) NextDelay() time.Duration {
	return p.b.Duration()
}

// Attempt returns the number of failed attempts since the last reset.
func (p *ReconnectPolicy) Attempt() int {
	return int(p.b.Attempt())
}

func (p *ReconnectPolicy) Reset() {
	p.b.Reset()
}
