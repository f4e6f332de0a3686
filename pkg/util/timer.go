package util

import (
	"time"

	"github.com/fagongzi/goetty"
)

var (
	// DefaultTW default TW
	DefaultTW = goetty.NewTimeoutWheel(goetty.WithTickInterval(time.Millisecond * 100))
)

// After calls the func once after the duration
func After(d time.Duration, fn func()) error {
	_, err := DefaultTW.Schedule(d, func(arg interface{}) {
		fn()
	}, nil)
	return err
}
