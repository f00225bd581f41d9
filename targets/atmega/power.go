//go:build avr

package atmega

import (
	"device/avr"
	"runtime/interrupt"
)

// PowerDriver halts the CPU in power-down mode. Only the watchdog,
// external and pin change interrupts or a TWI address match end it.
type PowerDriver struct{}

// NewPowerDriver creates the power driver
func NewPowerDriver() *PowerDriver {
	return &PowerDriver{}
}

// EnterLowPower powers down until the next interrupt. The ADC and the
// peripheral clocks are off while asleep and restored afterwards. It always
// returns with interrupts enabled, whatever the state on entry.
func (d *PowerDriver) EnterLowPower() {
	drainUART()

	adcsraSave := adcsra.Get()
	prrSave := prr.Get()

	adcsra.ClearBits(adcsraADEN)
	// ADC must be disabled before its clock is gated. USART0 stays clocked
	// so its configuration survives.
	prr.Set(0xFF &^ prrPRUSART0)

	smcr.Set(smcrSM1 | smcrSE)

	interrupt.Disable()
	// BODS stays set for three cycles after the timed sequence
	mcucr.Set(mcucr.Get() | mcucrBODS | mcucrBODSE)
	mcucr.Set((mcucr.Get() &^ mcucrBODSE) | mcucrBODS)
	// sei takes effect after the next instruction, so no interrupt can
	// slip in before sleep
	avr.Asm("sei\n\tsleep")

	smcr.ClearBits(smcrSE)

	prr.Set(prrSave)
	adcsra.Set(adcsraSave)
}

// drainUART waits for the data register to empty and the last frame to
// leave the shift register
func drainUART() {
	for !ucsr0a.HasBits(ucsr0aUDRE0) {
	}
	// TXC is only meaningful once cleared; bound the wait to one frame
	ucsr0a.Set(ucsr0a.Get() | ucsr0aTXC0)
	for i := 0; i < 2000 && !ucsr0a.HasBits(ucsr0aTXC0); i++ {
	}
}
