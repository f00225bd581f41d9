package core

import "testing"

func TestMillisClock(t *testing.T) {
	SetMillis(0xFFFFFFFE)
	TickMillis()
	TickMillis()
	if Millis() != 0 {
		t.Errorf("Expected clock to wrap to 0, got %d", Millis())
	}

	AdjustMillis(250)
	AdjustMillis(0)
	if Millis() != 250 {
		t.Errorf("Expected 250 after adjust, got %d", Millis())
	}

	var clock MillisClock = SystemClock{}
	clock.Adjust(50)
	if clock.Millis() != 300 {
		t.Errorf("Expected SystemClock to read 300, got %d", clock.Millis())
	}
}

func TestAtomicMasksInterrupts(t *testing.T) {
	if !InterruptsEnabled() {
		t.Fatal("Interrupts should start enabled")
	}

	Atomic(func() {
		if InterruptsEnabled() {
			t.Error("Interrupts enabled inside critical section")
		}
		Atomic(func() {})
		if InterruptsEnabled() {
			t.Error("Nested critical section re-enabled interrupts")
		}
	})

	if !InterruptsEnabled() {
		t.Error("Interrupts not restored after critical section")
	}
}

func TestAtomicRestoresMaskedState(t *testing.T) {
	state := disableInterrupts()
	Atomic(func() {})
	if InterruptsEnabled() {
		t.Error("Atomic enabled interrupts that were masked before it")
	}
	restoreInterrupts(state)
}
