package service

import "time"

// SetPublishTimeout overrides publishTimeout until restore is called.
func SetPublishTimeout(d time.Duration) (restore func()) {
	prev := publishTimeout
	publishTimeout = d
	return func() { publishTimeout = prev }
}
