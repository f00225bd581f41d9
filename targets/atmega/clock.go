//go:build avr

package atmega

import (
	"device/avr"
	"machine"
	"runtime/interrupt"

	"sleepy/core"
)

// InitClock runs Timer2 in CTC mode at core.ClockFreq and counts each
// compare match into the millisecond clock. Timer2 stops in power-down;
// the sleeper adds the slept time back on wake.
func InitClock() {
	core.RegisterConstant("MCU", "atmega328p")

	top := timer2Top(machine.CPUFrequency())

	interrupt.New(avr.IRQ_TIMER2_COMPA, handleTimer2Compare)

	state := interrupt.Disable()
	tccr2a.Set(tccr2aWGM21)
	tccr2b.Set(tccr2bCS22)
	ocr2a.Set(top)
	timsk2.SetBits(timsk2OCIE2A)
	interrupt.Restore(state)
}

func handleTimer2Compare(interrupt.Interrupt) {
	core.TickMillis()
}
