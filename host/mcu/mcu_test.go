package mcu

import (
	"bytes"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"sleepy/core"
	"sleepy/protocol"
)

// simWatchdog and simPower stand in for the AVR peripherals: every
// power-down with the watchdog armed ends in a watchdog expiry.
type simWatchdog struct {
	armed core.WatchdogInterval
}

func (w *simWatchdog) Configure(code core.WatchdogInterval) { w.armed = code }

type simPower struct {
	wd *simWatchdog
	// foreignAt wakes the CPU by another interrupt on this cycle (1-based)
	foreignAt int
	cycles    int
}

func (p *simPower) EnterLowPower() {
	p.cycles++
	if p.cycles == p.foreignAt {
		return
	}
	if p.wd.armed != core.WatchdogOff {
		core.WatchdogExpired()
	}
}

// runFirmware serves the command set on conn until it is closed
func runFirmware(conn net.Conn) {
	output := protocol.NewScratchOutput()
	transport := protocol.NewTransport(output, core.DispatchCommand)
	transport.SetFlushCallback(func() {
		conn.Write(output.Result())
		output.Reset()
	})
	core.SetGlobalTransport(transport)

	fifo := protocol.NewFifoBuffer(256)
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		fifo.Write(buf[:n])
		transport.Receive(fifo)
	}
}

func startFirmware(t *testing.T, power *simPower) *MCU {
	t.Helper()

	core.ResetCommands()
	core.InitCoreCommands()
	core.InitSleepCommands()
	core.RegisterConstant("MCU", "sim")
	core.GetGlobalDictionary().BuildDictionary()

	wd := &simWatchdog{armed: core.WatchdogOff}
	if power == nil {
		power = &simPower{}
	}
	power.wd = wd
	core.SetWatchdogDriver(wd)
	core.SetPowerDriver(power)
	core.DefaultSleeper().ResetStats()
	core.SetMillis(500)

	hostEnd, mcuEnd := net.Pipe()
	go runFirmware(mcuEnd)

	m := NewMCU()
	m.ConnectPort(hostEnd)
	t.Cleanup(func() {
		m.Close()
		mcuEnd.Close()
	})

	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	return m
}

func TestRetrieveDictionary(t *testing.T) {
	m := startFirmware(t, nil)

	dict := m.GetDictionary()
	if dict.Version != core.Version {
		t.Errorf("Expected version %q, got %q", core.Version, dict.Version)
	}
	if dict.Config["MCU"] != "sim" || dict.Config["WATCHDOG_MIN_MS"] != "16" {
		t.Errorf("Unexpected config: %v", dict.Config)
	}
	if len(m.GetDictionaryRaw()) <= identifyChunk {
		t.Errorf("Expected a multi-chunk dictionary, got %d bytes", len(m.GetDictionaryRaw()))
	}
	for _, name := range []string{"lose_time", "get_millis", "get_sleep_stats", "reset_sleep_stats"} {
		if _, ok := m.commandIDs[name]; !ok {
			t.Errorf("Command %s missing from dictionary", name)
		}
	}

	var out bytes.Buffer
	m.PrintDictionary(&out)
	if !strings.Contains(out.String(), "lose_time ms=%u") {
		t.Errorf("PrintDictionary output missing lose_time:\n%s", out.String())
	}
}

func TestMillis(t *testing.T) {
	m := startFirmware(t, nil)

	clock, err := m.Millis()
	if err != nil {
		t.Fatalf("Millis failed: %v", err)
	}
	if clock != 500 {
		t.Errorf("Expected clock 500, got %d", clock)
	}
}

func TestLoseTime(t *testing.T) {
	m := startFirmware(t, nil)

	elapsed, exact, err := m.LoseTime(100)
	if err != nil {
		t.Fatalf("LoseTime failed: %v", err)
	}
	if elapsed != 96 || !exact {
		t.Errorf("Expected 96 exact, got %d exact=%v", elapsed, exact)
	}

	clock, err := m.Millis()
	if err != nil {
		t.Fatalf("Millis failed: %v", err)
	}
	if clock != 596 {
		t.Errorf("Expected clock corrected to 596, got %d", clock)
	}
}

func TestLoseTimeInterrupted(t *testing.T) {
	m := startFirmware(t, &simPower{foreignAt: 2})

	// 100 ms runs code 2 then code 1; the code 1 cycle is cut short and
	// charged its 16 ms half-period
	elapsed, exact, err := m.LoseTime(100)
	if err != nil {
		t.Fatalf("LoseTime failed: %v", err)
	}
	if elapsed != 80 || exact {
		t.Errorf("Expected 80 inexact, got %d exact=%v", elapsed, exact)
	}
}

func TestSleepStats(t *testing.T) {
	m := startFirmware(t, nil)

	for _, ms := range []uint32{50, 10} {
		if _, _, err := m.LoseTime(ms); err != nil {
			t.Fatalf("LoseTime(%d) failed: %v", ms, err)
		}
	}

	st, err := m.SleepStats()
	if err != nil {
		t.Fatalf("SleepStats failed: %v", err)
	}
	want := SleepStats{Calls: 2, Cycles: 2, Interrupted: 0, ElapsedMs: 48}
	if st != want {
		t.Errorf("Expected %+v, got %+v", want, st)
	}

	if err := m.ResetSleepStats(); err != nil {
		t.Fatalf("ResetSleepStats failed: %v", err)
	}
	st, err = m.SleepStats()
	if err != nil {
		t.Fatalf("SleepStats failed: %v", err)
	}
	if st != (SleepStats{}) {
		t.Errorf("Expected zero stats after reset, got %+v", st)
	}
}

func TestUnknownCommand(t *testing.T) {
	m := startFirmware(t, nil)

	if err := m.SendCommand("no_such_command", nil); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestNotConnected(t *testing.T) {
	m := NewMCU()
	if err := m.RetrieveDictionary(); err != errNotConnected {
		t.Errorf("Expected errNotConnected, got %v", err)
	}
	if _, err := m.Millis(); err == nil {
		t.Error("Expected error from Millis when not connected")
	}
}

func TestLoseTimeTimeout(t *testing.T) {
	tests := []struct {
		ms       uint32
		expected time.Duration
	}{
		{0, 2 * time.Second},
		{100, 2125 * time.Millisecond},
		{60000, 77 * time.Second},
	}

	for _, tt := range tests {
		got := loseTimeTimeout(tt.ms)
		if got != tt.expected {
			t.Errorf("loseTimeTimeout(%d) = %v, expected %v", tt.ms, got, tt.expected)
		}
		// A watchdog running 10% slow must still fit
		if slow := time.Duration(tt.ms) * time.Millisecond * 11 / 10; got <= slow {
			t.Errorf("loseTimeTimeout(%d) = %v does not cover %v", tt.ms, got, slow)
		}
	}

	// The largest budget does not overflow
	if got := loseTimeTimeout(math.MaxUint32); got <= time.Duration(math.MaxUint32)*time.Millisecond {
		t.Errorf("loseTimeTimeout(MaxUint32) = %v", got)
	}
}
