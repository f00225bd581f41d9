//go:build !tinygo

package core

import "sync/atomic"

// State is the saved interrupt-enable flag on regular Go.
type State uintptr

// Regular Go has no interrupt controller, so the global enable flag is
// simulated. Tests use it to check that timed sequences and clock
// corrections run with interrupts masked.
var interruptsMasked uint32

// disableInterrupts masks the simulated interrupts and returns the previous state
func disableInterrupts() State {
	return State(atomic.SwapUint32(&interruptsMasked, 1))
}

// restoreInterrupts restores the simulated interrupt state
func restoreInterrupts(state State) {
	atomic.StoreUint32(&interruptsMasked, uint32(state))
}

// InterruptsEnabled reports whether the simulated interrupts are unmasked
func InterruptsEnabled() bool {
	return atomic.LoadUint32(&interruptsMasked) == 0
}
