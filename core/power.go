package core

// PowerDriver halts the processor.
type PowerDriver interface {
	// EnterLowPower selects the deepest sleep mode, disables the brown-out
	// detector for the duration of the sleep and halts the CPU. It returns
	// once any enabled interrupt has fired and been serviced; the caller
	// inspects other state to learn which one. With no interrupt source
	// enabled it never returns.
	EnterLowPower()
}

// Global singleton used by core code.
var powerDriver PowerDriver

// SetPowerDriver is called by target-specific code to register its driver.
func SetPowerDriver(d PowerDriver) {
	powerDriver = d
}

// MustPower returns the configured driver or panics if missing.
func MustPower() PowerDriver {
	if powerDriver == nil {
		panic("power driver not configured")
	}
	return powerDriver
}

// EnterLowPower halts the CPU through the registered driver until the next
// interrupt.
func EnterLowPower() {
	MustPower().EnterLowPower()
}
