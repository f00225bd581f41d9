package core

// WatchdogInterval selects one of the watchdog's prescaled timeout periods.
// Code 0 is ~16 ms, each code doubles the period, code 9 is ~8 s.
type WatchdogInterval int8

const (
	WatchdogOff         WatchdogInterval = -1
	WatchdogMinInterval WatchdogInterval = 0
	WatchdogMaxInterval WatchdogInterval = 9
)

// WatchdogGranularityMs is the nominal period of the shortest interval.
// Budgets below it are never slept.
const WatchdogGranularityMs = 16

// Valid reports whether c selects a real period (WatchdogOff is not one)
func (c WatchdogInterval) Valid() bool {
	return c >= WatchdogMinInterval && c <= WatchdogMaxInterval
}

// Period returns the nominal timeout in milliseconds, 0 for invalid codes
func (c WatchdogInterval) Period() uint32 {
	if !c.Valid() {
		return 0
	}
	return WatchdogGranularityMs << uint(c)
}

// HalfPeriod returns half the nominal timeout in milliseconds
func (c WatchdogInterval) HalfPeriod() uint32 {
	return c.Period() / 2
}

// SelectInterval picks the interval for a remaining sleep budget: the
// largest code whose nominal period does not exceed remainingMs, capped at
// WatchdogMaxInterval. Budgets under 32 ms map to code 0.
func SelectInterval(remainingMs uint32) WatchdogInterval {
	code := WatchdogMinInterval
	for m := remainingMs; m >= 2*WatchdogGranularityMs && code < WatchdogMaxInterval; m >>= 1 {
		code++
	}
	return code
}

// WatchdogDriver is the abstract watchdog interface that core code uses.
// Platform-specific implementations program the hardware registers.
type WatchdogDriver interface {
	// Configure arms the watchdog to raise an interrupt (never a system
	// reset) after the nominal period of code, or disarms it entirely for
	// WatchdogOff. Any pending watchdog-reset status flag is cleared first.
	// The register writes are timing-critical and run with interrupts off.
	Configure(code WatchdogInterval)
}

// Global singleton used by core code.
var watchdogDriver WatchdogDriver

// SetWatchdogDriver is called by target-specific code to register its driver.
func SetWatchdogDriver(d WatchdogDriver) {
	watchdogDriver = d
}

// MustWatchdog returns the configured driver or panics if missing.
func MustWatchdog() WatchdogDriver {
	if watchdogDriver == nil {
		panic("watchdog driver not configured")
	}
	return watchdogDriver
}

// ConfigureWatchdog arms or disarms the watchdog interrupt through the
// registered driver.
func ConfigureWatchdog(code WatchdogInterval) {
	MustWatchdog().Configure(code)
}
