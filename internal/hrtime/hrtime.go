// Package hrtime provides high-resolution timestamps read from the monotonic clock.
//
// Values are offsets from process start, so they are unaffected by wall-clock
// adjustments and are only meaningful relative to each other.
package hrtime

import (
	"fmt"
	"time"
)

var epoch = time.Now()

// Time is a monotonic timestamp.
type Time struct {
	offset time.Duration
}

// Now returns the current monotonic timestamp.
func Now() Time {
	return Time{offset: time.Since(epoch)}
}

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration {
	return t.offset - u.offset
}

// Before reports whether t is earlier than u.
func (t Time) Before(u Time) bool {
	return t.offset < u.offset
}

// Elapsed returns the time passed since t.
func (t Time) Elapsed() time.Duration {
	return Now().Sub(t)
}

// Milliseconds returns t as fractional milliseconds since process start.
func (t Time) Milliseconds() float64 {
	return float64(t.offset) / float64(time.Millisecond)
}

// Seconds returns t as fractional seconds since process start.
func (t Time) Seconds() float64 {
	return t.offset.Seconds()
}

func (t Time) String() string {
	return fmt.Sprintf("%.3fms", t.Milliseconds())
}
