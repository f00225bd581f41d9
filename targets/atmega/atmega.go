//go:build avr

// Package atmega drives the ATmega328P watchdog, sleep controller and
// Timer2 for the sleep scheduler in core.
package atmega

import (
	"device/avr"
	"runtime/interrupt"

	"sleepy/core"
)

// Init stops a watchdog left running by a reset, starts the millisecond
// clock and registers the watchdog and power drivers with core
func Init() {
	wd := NewWatchdogDriver()
	// A watchdog reset leaves the watchdog running with WDE set
	wd.Configure(core.WatchdogOff)

	InitClock()
	interrupt.New(avr.IRQ_WDT, handleWatchdogInterrupt)

	core.SetWatchdogDriver(wd)
	core.SetPowerDriver(NewPowerDriver())
}
