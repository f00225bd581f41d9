package core

// ClockFreq is the rate of the system millisecond clock in ticks per second
const ClockFreq = 1000

// MillisClock is the system millisecond clock as seen by the sleep scheduler.
type MillisClock interface {
	// Millis returns the current clock value in milliseconds
	Millis() uint32

	// Adjust advances the clock by deltaMs. It is an additive correction,
	// never an overwrite, because the periodic tick keeps advancing the same
	// counter independently.
	Adjust(deltaMs uint32)
}

// Millis returns the system clock in milliseconds since boot
func Millis() uint32 {
	return getMillis()
}

// SetMillis sets the system clock (for testing/hardware integration)
func SetMillis(ms uint32) {
	setMillis(ms)
}

// TickMillis advances the clock by one millisecond.
// Called from the periodic tick interrupt.
func TickMillis() {
	addMillis(1)
}

// AdjustMillis adds deltaMs to the clock with interrupts masked, so the
// periodic tick cannot interleave with the correction.
func AdjustMillis(deltaMs uint32) {
	if deltaMs == 0 {
		return
	}
	state := disableInterrupts()
	addMillis(deltaMs)
	restoreInterrupts(state)
}

// SystemClock is the MillisClock backed by the process-wide millisecond counter.
type SystemClock struct{}

func (SystemClock) Millis() uint32 { return Millis() }

func (SystemClock) Adjust(deltaMs uint32) { AdjustMillis(deltaMs) }
