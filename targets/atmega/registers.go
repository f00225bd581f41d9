//go:build avr

package atmega

import (
	"runtime/volatile"
	"unsafe"
)

// ATmega328P register addresses in data space
const (
	regMCUSR  = 0x54
	regSMCR   = 0x53
	regMCUCR  = 0x55
	regWDTCSR = 0x60
	regPRR    = 0x64
	regTIMSK2 = 0x70
	regADCSRA = 0x7A
	regTCCR2A = 0xB0
	regTCCR2B = 0xB1
	regOCR2A  = 0xB3
	regUCSR0A = 0xC0
)

var (
	mcusr  = (*volatile.Register8)(unsafe.Pointer(uintptr(regMCUSR)))
	smcr   = (*volatile.Register8)(unsafe.Pointer(uintptr(regSMCR)))
	mcucr  = (*volatile.Register8)(unsafe.Pointer(uintptr(regMCUCR)))
	wdtcsr = (*volatile.Register8)(unsafe.Pointer(uintptr(regWDTCSR)))
	prr    = (*volatile.Register8)(unsafe.Pointer(uintptr(regPRR)))
	timsk2 = (*volatile.Register8)(unsafe.Pointer(uintptr(regTIMSK2)))
	adcsra = (*volatile.Register8)(unsafe.Pointer(uintptr(regADCSRA)))
	tccr2a = (*volatile.Register8)(unsafe.Pointer(uintptr(regTCCR2A)))
	tccr2b = (*volatile.Register8)(unsafe.Pointer(uintptr(regTCCR2B)))
	ocr2a  = (*volatile.Register8)(unsafe.Pointer(uintptr(regOCR2A)))
	ucsr0a = (*volatile.Register8)(unsafe.Pointer(uintptr(regUCSR0A)))
)
