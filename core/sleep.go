package core

// SleepStats accumulates scheduler activity across SleepFor calls
type SleepStats struct {
	Calls       uint32 // SleepFor invocations
	Cycles      uint32 // watchdog sleep cycles
	Interrupted uint32 // cycles cut short by a foreign interrupt
	ElapsedMs   uint32 // total estimated time spent asleep
}

// Sleeper is the sleep budget scheduler. It trades exact timekeeping for
// power: a requested duration is broken into watchdog intervals, the CPU is
// powered down for each, and the estimated elapsed time is added back to
// the millisecond clock at the end.
//
// Nil Watchdog or Power fall back to the drivers registered with
// SetWatchdogDriver and SetPowerDriver at call time.
type Sleeper struct {
	Watchdog WatchdogDriver
	Power    PowerDriver
	Counter  *WatchdogCounter
	Clock    MillisClock

	stats SleepStats
}

// NewSleeper creates a scheduler bound to the given drivers, the
// process-wide watchdog counter and the system clock
func NewSleeper(wd WatchdogDriver, pd PowerDriver) *Sleeper {
	return &Sleeper{
		Watchdog: wd,
		Power:    pd,
		Counter:  &watchdogEvents,
		Clock:    SystemClock{},
	}
}

var defaultSleeper = NewSleeper(nil, nil)

// DefaultSleeper returns the scheduler used by LoseSomeTime and the sleep
// commands. It uses whichever drivers are registered.
func DefaultSleeper() *Sleeper {
	return defaultSleeper
}

// LoseSomeTime sleeps for approximately ms milliseconds in power-down mode
// using the registered drivers. It returns false if a foreign interrupt
// woke the CPU early.
func LoseSomeTime(ms uint32) bool {
	return defaultSleeper.SleepFor(ms)
}

// SleepFor powers the CPU down for approximately ms milliseconds and
// advances the clock by the estimated time slept. It returns false if a
// foreign interrupt cut the sleep short.
func (s *Sleeper) SleepFor(ms uint32) bool {
	_, exact := s.Sleep(ms)
	return exact
}

// Sleep is SleepFor that also returns the estimated milliseconds slept,
// which is the correction applied to the clock.
//
// Budgets under WatchdogGranularityMs return true at once without touching
// the hardware. Each cycle arms the largest interval that fits the
// remaining budget. A cycle ended by the watchdog is charged its full
// nominal period. A cycle ended by any other interrupt is charged half its
// period, the loop stops there and SleepFor returns false.
func (s *Sleeper) Sleep(ms uint32) (elapsed uint32, exact bool) {
	exact = true
	remaining := ms
	s.stats.Calls++

	for remaining >= WatchdogGranularityMs {
		wd, pd, counter, clock := s.watchdog(), s.power(), s.counter(), s.clock()
		code := SelectInterval(remaining)
		recordSleepEvent(EvtArm, code, clock.Millis(), remaining)

		counter.Reset()
		wd.Configure(code)
		pd.EnterLowPower()
		wd.Configure(WatchdogOff)

		fired := counter.Read()
		recordSleepEvent(EvtWake, code, clock.Millis(), uint32(fired))
		s.stats.Cycles++

		// True wake time within the interval is unknown, charge the midpoint
		half := code.HalfPeriod()
		remaining -= half
		if fired == 0 {
			exact = false
			s.stats.Interrupted++
			recordSleepEvent(EvtInterrupted, code, clock.Millis(), remaining)
			break
		}
		remaining -= half
	}

	elapsed = ms - remaining
	if elapsed > 0 {
		clock := s.clock()
		clock.Adjust(elapsed)
		s.stats.ElapsedMs += elapsed
		recordSleepEvent(EvtAdjust, WatchdogOff, clock.Millis(), elapsed)
	}

	if debugEnabled && !exact {
		DebugPrintln("[SLEEP] woken early after " + utoa(elapsed) + " of " + utoa(ms) + " ms")
	}
	return elapsed, exact
}

// Stats returns the accumulated scheduler statistics
func (s *Sleeper) Stats() SleepStats {
	return s.stats
}

// ResetStats clears the accumulated statistics
func (s *Sleeper) ResetStats() {
	s.stats = SleepStats{}
}

func (s *Sleeper) watchdog() WatchdogDriver {
	if s.Watchdog != nil {
		return s.Watchdog
	}
	return MustWatchdog()
}

func (s *Sleeper) power() PowerDriver {
	if s.Power != nil {
		return s.Power
	}
	return MustPower()
}

func (s *Sleeper) counter() *WatchdogCounter {
	if s.Counter != nil {
		return s.Counter
	}
	return &watchdogEvents
}

func (s *Sleeper) clock() MillisClock {
	if s.Clock != nil {
		return s.Clock
	}
	return SystemClock{}
}
