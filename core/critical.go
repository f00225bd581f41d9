package core

// Atomic runs fn with all interrupts masked and restores the previous
// interrupt-enable state afterwards, whatever it was.
//
// Register sequences with a cycle budget, such as the watchdog change
// enable, must do both writes inside one Atomic call and must not call
// anything between them.
func Atomic(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
