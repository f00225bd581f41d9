//go:build !tinygo

package core

var millisValue uint32

// getMillis returns the current clock value (regular Go implementation)
func getMillis() uint32 {
	return millisValue
}

// setMillis sets the clock value (regular Go implementation)
func setMillis(ms uint32) {
	millisValue = ms
}

// addMillis advances the clock value (regular Go implementation)
func addMillis(delta uint32) {
	millisValue += delta
}
