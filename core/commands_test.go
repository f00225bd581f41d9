package core

import (
	"sleepy/protocol"
	"testing"
)

type capturedResponse struct {
	id   uint16
	args []byte
}

// captureSender stands in for the transport and keeps every response
type captureSender struct {
	responses []capturedResponse
}

func (c *captureSender) SendCommand(cmdID uint16, args func(output protocol.OutputBuffer)) {
	out := protocol.NewScratchOutput()
	if args != nil {
		args(out)
	}
	c.responses = append(c.responses, capturedResponse{id: cmdID, args: append([]byte(nil), out.Result()...)})
}

// decode returns the VLQ arguments of the last response, checking its name
func (c *captureSender) decode(t *testing.T, name string, n int) []uint32 {
	t.Helper()
	if len(c.responses) == 0 {
		t.Fatalf("No response sent, expected %s", name)
	}
	last := c.responses[len(c.responses)-1]
	cmd, ok := GetGlobalRegistry().GetCommand(last.id)
	if !ok || cmd.Name != name {
		t.Fatalf("Expected response %s, got ID %d", name, last.id)
	}
	data := last.args
	vals := make([]uint32, n)
	for i := range vals {
		v, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			t.Fatalf("Decoding %s argument %d: %v", name, i, err)
		}
		vals[i] = v
	}
	return vals
}

func setupCommands(t *testing.T) (*captureSender, *fakePower) {
	t.Helper()
	ResetCommands()
	InitCoreCommands()
	InitSleepCommands()

	sender := &captureSender{}
	SetGlobalTransport(sender)

	wd := newFakeWatchdog()
	power := newFakePower(wd, WatchdogEvents())
	SetWatchdogDriver(wd)
	SetPowerDriver(power)
	DefaultSleeper().ResetStats()

	t.Cleanup(func() {
		SetGlobalTransport(nil)
		SetWatchdogDriver(nil)
		SetPowerDriver(nil)
	})
	return sender, power
}

func dispatchByName(t *testing.T, name string, args ...uint32) {
	t.Helper()
	cmd, ok := GetGlobalRegistry().GetCommandByName(name)
	if !ok {
		t.Fatalf("Command %s not registered", name)
	}
	out := protocol.NewScratchOutput()
	for _, a := range args {
		protocol.EncodeVLQUint(out, a)
	}
	data := out.Result()
	if err := DispatchCommand(cmd.ID, &data); err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
}

func TestBootstrapCommandIDs(t *testing.T) {
	setupCommands(t)

	for name, id := range map[string]uint16{"identify_response": 0, "identify": 1} {
		cmd, ok := GetGlobalRegistry().GetCommandByName(name)
		if !ok || cmd.ID != id {
			t.Errorf("Expected %s at ID %d, got %+v", name, id, cmd)
		}
	}
}

func TestLoseTimeCommand(t *testing.T) {
	sender, _ := setupCommands(t)
	SetMillis(500)

	dispatchByName(t, "lose_time", 100)
	vals := sender.decode(t, "lose_time_result", 2)
	if vals[0] != 96 || vals[1] != 1 {
		t.Errorf("Expected elapsed=96 exact=1, got %v", vals)
	}

	dispatchByName(t, "get_millis")
	if clock := sender.decode(t, "millis", 1)[0]; clock != 596 {
		t.Errorf("Expected clock 596, got %d", clock)
	}
}

func TestLoseTimeCommandInterrupted(t *testing.T) {
	sender, power := setupCommands(t)
	power.foreignAt = 0

	dispatchByName(t, "lose_time", 5000)
	vals := sender.decode(t, "lose_time_result", 2)
	if vals[0] != SelectInterval(5000).HalfPeriod() || vals[1] != 0 {
		t.Errorf("Expected elapsed=%d exact=0, got %v", SelectInterval(5000).HalfPeriod(), vals)
	}
}

func TestSleepStatsCommands(t *testing.T) {
	sender, _ := setupCommands(t)

	dispatchByName(t, "lose_time", 50)
	dispatchByName(t, "lose_time", 5)
	dispatchByName(t, "get_sleep_stats")

	vals := sender.decode(t, "sleep_stats", 4)
	expected := []uint32{2, 2, 0, 48}
	for i := range expected {
		if vals[i] != expected[i] {
			t.Fatalf("Expected stats %v, got %v", expected, vals)
		}
	}

	dispatchByName(t, "reset_sleep_stats")
	dispatchByName(t, "get_sleep_stats")
	for _, v := range sender.decode(t, "sleep_stats", 4) {
		if v != 0 {
			t.Fatalf("Expected zero stats after reset")
		}
	}
}

func TestIdentifyCommand(t *testing.T) {
	sender, _ := setupCommands(t)
	full := GetGlobalDictionary().Generate()

	dispatchByName(t, "identify", 0, 16)

	last := sender.responses[len(sender.responses)-1]
	data := last.args
	offset, _ := protocol.DecodeVLQUint(&data)
	chunk, err := protocol.DecodeVLQBytes(&data)
	if err != nil {
		t.Fatalf("Decoding identify_response: %v", err)
	}
	if offset != 0 || string(chunk) != string(full[:16]) {
		t.Errorf("Expected first 16 dictionary bytes at offset 0, got %d %q", offset, chunk)
	}
}

func TestSendResponseUnregisteredPanics(t *testing.T) {
	setupCommands(t)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for unregistered response")
		}
	}()
	SendResponse("no_such_response", nil)
}
