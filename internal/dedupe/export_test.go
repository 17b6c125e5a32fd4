package dedupe

import "time"

// SetTimeNow replaces the package time source and returns a restore func.
// This file only compiles during `go test`.
func SetTimeNow(fn func() time.Time) (restore func()) {
	prev := timeNow
	timeNow = fn
	return func() { timeNow = prev }
}
