package push

import (
	"time"

	"github.com/helmwright/helmwright/config"
)

// Policy bounds the reconnect loop. The delay before attempt n doubles
// from BaseDelay and never exceeds MaxDelay; after MaxAttempts failed
// attempts the client gives up and stays disconnected.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// PolicyFromConfig builds a Policy from the push section of the config,
// falling back to the documented defaults for unset fields.
func PolicyFromConfig(cfg config.PushConfig) Policy {
	p := Policy{
		BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		MaxAttempts: cfg.MaxAttempts,
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Duration(config.DefaultBaseDelayMs) * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = time.Duration(config.DefaultMaxDelayMs) * time.Millisecond
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = config.DefaultMaxAttempts
	}
	return p
}

// Delay returns the wait before reconnect attempt n (1-based):
// BaseDelay doubled n times, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}
