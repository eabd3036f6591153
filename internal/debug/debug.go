// Package debug writes verbose diagnostics that callers switch on per call
// with a localDebug flag.
package debug

import (
	"fmt"
	"log"
	"time"
)

const stampLayout = "15:04:05.000"

// Section logs a begin marker for name and returns the func that logs the
// matching end marker. Both are silent when disabled.
func Section(enabled bool, name string) (end func()) {
	if !enabled {
		return func() {}
	}
	log.Printf("--- %s begin ---", name)
	return func() { log.Printf("--- %s end ---", name) }
}

// Output logs a timestamped line when enabled
func Output(enabled bool, format string, args ...interface{}) {
	if !enabled {
		return
	}
	log.Printf("debug %s %s", time.Now().Format(stampLayout), fmt.Sprintf(format, args...))
}

// Timing logs the elapsed time of op once the returned func runs
func Timing(enabled bool, op string) (done func()) {
	if !enabled {
		return func() {}
	}
	start := time.Now()
	return func() {
		Output(true, "%s took %v", op, time.Since(start).Round(time.Microsecond))
	}
}
