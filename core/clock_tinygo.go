//go:build tinygo

package core

import "sync/atomic"

// Written from the tick interrupt, read and corrected from the main loop.
var millisValue uint32

// getMillis returns the current clock value
func getMillis() uint32 {
	return atomic.LoadUint32(&millisValue)
}

// setMillis sets the clock value
func setMillis(ms uint32) {
	atomic.StoreUint32(&millisValue, ms)
}

// addMillis advances the clock value
func addMillis(delta uint32) {
	atomic.AddUint32(&millisValue, delta)
}
