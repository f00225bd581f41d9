package core

import "sync/atomic"

// WatchdogCounter counts watchdog expiry notifications.
//
// It has exactly one writer, the watchdog interrupt (Increment), and one
// reader, the sleep scheduler (Reset/Read). The scheduler resets it, halts
// the CPU and reads it only after the waking interrupt has been serviced,
// so the halt itself orders the accesses and no lock is involved. Only the
// low byte is significant: 256 increments without a reset read back as 0.
type WatchdogCounter struct {
	n uint32
}

// Reset clears the counter. Scheduler side.
func (c *WatchdogCounter) Reset() {
	atomic.StoreUint32(&c.n, 0)
}

// Read returns the number of expiries since the last Reset, modulo 256.
func (c *WatchdogCounter) Read() uint8 {
	return uint8(atomic.LoadUint32(&c.n))
}

// Increment records one watchdog expiry. Interrupt side.
func (c *WatchdogCounter) Increment() {
	atomic.AddUint32(&c.n, 1)
}

// Process-wide counter fed by the watchdog interrupt vector
var watchdogEvents WatchdogCounter

// WatchdogEvents returns the process-wide watchdog counter
func WatchdogEvents() *WatchdogCounter {
	return &watchdogEvents
}

// WatchdogExpired is the watchdog interrupt hook. Target code must call it
// from the watchdog timeout vector, once per expiry.
func WatchdogExpired() {
	watchdogEvents.Increment()
}
