package core

import "testing"

func captureDebug(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	ClearSleepTrace()
	t.Cleanup(func() {
		SetDebugWriter(func(string) {})
		SetDebugEnabled(false)
		SetTraceEnabled(true)
		ClearSleepTrace()
	})
	return &lines
}

func TestDumpSleepTrace(t *testing.T) {
	lines := captureDebug(t)

	h := newSleepHarness()
	h.clock.now = 1000
	h.sleeper.SleepFor(50)

	// Dumps even with debug output off
	if IsDebugEnabled() {
		t.Fatal("Debug output should start disabled")
	}
	DumpSleepTrace()

	expected := []string{
		"[SLEEP] === Sleep Trace Dump ===",
		"[SLEEP] ARM code=1 clock=1000 v=50",
		"[SLEEP] WAKE code=1 clock=1000 v=1",
		"[SLEEP] ARM code=0 clock=1000 v=18",
		"[SLEEP] WAKE code=0 clock=1000 v=1",
		"[SLEEP] ADJUST code=-1 clock=1048 v=48",
		"[SLEEP] === End Dump ===",
	}
	if len(*lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %q", len(expected), *lines)
	}
	for i, want := range expected {
		if (*lines)[i] != want {
			t.Errorf("Line %d: expected %q, got %q", i, want, (*lines)[i])
		}
	}
}

func TestDumpSleepTraceInterrupted(t *testing.T) {
	lines := captureDebug(t)

	h := newSleepHarness()
	h.power.foreignAt = 0
	h.sleeper.SleepFor(100)
	DumpSleepTrace()

	want := "[SLEEP] INTERRUPTED! code=2 clock=0 v=68"
	for _, l := range *lines {
		if l == want {
			return
		}
	}
	t.Errorf("Expected %q in dump, got %q", want, *lines)
}

func TestSetTraceEnabled(t *testing.T) {
	lines := captureDebug(t)

	SetTraceEnabled(false)
	h := newSleepHarness()
	h.sleeper.SleepFor(50)
	if n := len(SleepTrace()); n != 0 {
		t.Errorf("Expected no events with trace disabled, got %d", n)
	}

	DumpSleepTrace()
	if len(*lines) != 2 {
		t.Errorf("Expected only dump header and footer, got %q", *lines)
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	lines := captureDebug(t)

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	if !IsDebugEnabled() {
		t.Fatal("IsDebugEnabled false after SetDebugEnabled(true)")
	}
	DebugPrintln("shown")

	if len(*lines) != 1 || (*lines)[0] != "shown" {
		t.Errorf("Expected only the enabled message, got %q", *lines)
	}
}

func TestSleepTraceRingKeepsNewest(t *testing.T) {
	captureDebug(t)

	for i := 0; i < SleepTraceSize+5; i++ {
		recordSleepEvent(EvtWake, 0, uint32(i), 0)
	}
	events := SleepTrace()
	if len(events) != SleepTraceSize {
		t.Fatalf("Expected %d events, got %d", SleepTraceSize, len(events))
	}
	if events[0].Clock != 5 || events[SleepTraceSize-1].Clock != SleepTraceSize+4 {
		t.Errorf("Expected clocks 5..%d, got %d..%d", SleepTraceSize+4, events[0].Clock, events[SleepTraceSize-1].Clock)
	}
}
