package core

import "testing"

func TestWatchdogCounter(t *testing.T) {
	var c WatchdogCounter

	if c.Read() != 0 {
		t.Errorf("Expected new counter to read 0, got %d", c.Read())
	}

	c.Increment()
	c.Increment()
	if c.Read() != 2 {
		t.Errorf("Expected 2, got %d", c.Read())
	}

	c.Reset()
	if c.Read() != 0 {
		t.Errorf("Expected 0 after reset, got %d", c.Read())
	}
}

func TestWatchdogCounterWraparound(t *testing.T) {
	var c WatchdogCounter
	for i := 0; i < 256; i++ {
		c.Increment()
	}
	if c.Read() != 0 {
		t.Errorf("Expected 256 increments to wrap to 0, got %d", c.Read())
	}

	c.Increment()
	if c.Read() != 1 {
		t.Errorf("Expected 1 after wrap, got %d", c.Read())
	}
}

func TestWatchdogExpiredFeedsGlobalCounter(t *testing.T) {
	WatchdogEvents().Reset()
	WatchdogExpired()
	if WatchdogEvents().Read() != 1 {
		t.Errorf("Expected global counter at 1, got %d", WatchdogEvents().Read())
	}
	WatchdogEvents().Reset()
}
