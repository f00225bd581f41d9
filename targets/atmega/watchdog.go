//go:build avr

package atmega

import (
	"runtime/interrupt"

	"sleepy/core"
)

// WatchdogDriver programs the watchdog in interrupt-only mode. It never
// sets WDE, so an expiry raises the WDT interrupt instead of resetting.
type WatchdogDriver struct{}

// NewWatchdogDriver creates the watchdog driver
func NewWatchdogDriver() *WatchdogDriver {
	return &WatchdogDriver{}
}

// Configure arms the watchdog with the given interval, or stops it for
// WatchdogOff
func (d *WatchdogDriver) Configure(code core.WatchdogInterval) {
	configureWatchdog(mcusr, wdtcsr, code)
}

// handleWatchdogInterrupt runs on every watchdog expiry
func handleWatchdogInterrupt(interrupt.Interrupt) {
	core.WatchdogExpired()
}
