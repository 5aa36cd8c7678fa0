package infra

import "time"

const (
	backoffBase = 1 * time.Second
	backoffMax  = 60 * time.Second
)

// CalculateBackoff returns an exponential reconnect delay capped at one
// minute: 1s, 2s, 4s, ...
func CalculateBackoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	delay := backoffBase << uint(retry)
	if delay <= 0 || delay > backoffMax {
		return backoffMax
	}
	return delay
}
