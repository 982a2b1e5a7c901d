package test

import "time"

// Default timeouts for require.Eventually style checks.
const (
	WaitDuration = 2 * time.Second
	WaitTick     = 50 * time.Millisecond
)
