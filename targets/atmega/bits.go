package atmega

import "sleepy/core"

// Register bits
const (
	mcusrWDRF = 1 << 3

	wdtcsrWDIF = 1 << 7
	wdtcsrWDIE = 1 << 6
	wdtcsrWDP3 = 1 << 5
	wdtcsrWDCE = 1 << 4
	wdtcsrWDE  = 1 << 3

	smcrSM1 = 1 << 2 // SM = 010, power-down
	smcrSE  = 1 << 0

	mcucrBODS  = 1 << 6
	mcucrBODSE = 1 << 5

	adcsraADEN = 1 << 7

	prrPRUSART0 = 1 << 1

	tccr2aWGM21  = 1 << 1 // CTC
	tccr2bCS22   = 1 << 2 // clk/64
	timsk2OCIE2A = 1 << 1

	ucsr0aTXC0  = 1 << 6
	ucsr0aUDRE0 = 1 << 5
)

// wdtcsrValue maps an interval to WDTCSR. WDP3 lives in bit 5, not bit 3.
func wdtcsrValue(code core.WatchdogInterval) uint8 {
	if !code.Valid() {
		return 0
	}
	value := uint8(code&0x07) | wdtcsrWDIE
	if code&0x08 != 0 {
		value |= wdtcsrWDP3
	}
	return value
}

// timer2Prescaler matches tccr2bCS22
const timer2Prescaler = 64

// timer2Top is the OCR2A value for one compare match per clock tick
func timer2Top(cpuHz uint32) uint8 {
	return uint8(cpuHz/timer2Prescaler/core.ClockFreq - 1)
}

// register8 is the part of volatile.Register8 the timed sequences use
type register8 interface {
	Get() uint8
	Set(value uint8)
}

// timedWrite sets the change-enable bits and then writes value. The
// hardware drops the second write unless it lands within four cycles of
// the first, so both run in one critical section with nothing in between.
func timedWrite[R register8](reg R, enable, value uint8) {
	core.Atomic(func() {
		reg.Set(reg.Get() | enable)
		reg.Set(value)
	})
}

// configureWatchdog programs WDTCSR for code. WDRF forces WDE on while
// set, so it is cleared first.
func configureWatchdog[R register8](mcusr, wdtcsr R, code core.WatchdogInterval) {
	// Computed up front, there is no time for it inside the sequence
	value := wdtcsrValue(code)

	mcusr.Set(mcusr.Get() &^ mcusrWDRF)
	timedWrite(wdtcsr, wdtcsrWDCE|wdtcsrWDE, value)
}
