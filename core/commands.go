package core

import "sleepy/protocol"

// ResponseSender frames a message for the host. *protocol.Transport
// implements it.
type ResponseSender interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

// Global transport for sending responses (set by main)
var globalTransport ResponseSender

// SetGlobalTransport sets the transport used by SendResponse
func SetGlobalTransport(transport ResponseSender) {
	globalTransport = transport
}

// SendResponse sends a registered response message using the global transport
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		// All responses are registered at init, a miss is a firmware bug
		panic("response not registered: " + responseName)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

// InitCoreCommands registers the bootstrap and clock commands.
// identify_response and identify must be IDs 0 and 1: the host asks for
// the dictionary before it knows any other ID.
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")       // ID 0
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify) // ID 1

	RegisterCommand("get_millis", "", handleGetMillis)
	RegisterResponse("millis", "clock=%u")

	RegisterConstant("CLOCK_FREQ", uint32(ClockFreq))
}

// InitSleepCommands registers the power-down commands served by the
// default sleeper
func InitSleepCommands() {
	RegisterCommand("lose_time", "ms=%u", handleLoseTime)
	RegisterResponse("lose_time_result", "elapsed=%u exact=%c")
	RegisterCommand("get_sleep_stats", "", handleGetSleepStats)
	RegisterResponse("sleep_stats", "calls=%u cycles=%u interrupted=%u elapsed=%u")
	RegisterCommand("reset_sleep_stats", "", handleResetSleepStats)

	RegisterConstant("WATCHDOG_MIN_MS", uint32(WatchdogGranularityMs))
	RegisterConstant("WATCHDOG_MAX_CODE", WatchdogMaxInterval)
}

// ResetCommands replaces the global registry and dictionary with empty ones
func ResetCommands() {
	globalRegistry = NewCommandRegistry()
	globalDictionary = NewDictionary(globalRegistry)
}

// handleIdentify returns a chunk of the data dictionary
// Format: identify offset=%u count=%c
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := globalDictionary.GetChunk(offset, uint8(count))
	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

// handleGetMillis reports the millisecond clock
func handleGetMillis(_ *[]byte) error {
	clock := Millis()
	SendResponse("millis", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})
	return nil
}

// handleLoseTime powers down for the requested time and reports the
// estimate. The ACK for this command is only sent after waking.
// Format: lose_time ms=%u
func handleLoseTime(data *[]byte) error {
	ms, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	elapsed, exact := defaultSleeper.Sleep(ms)
	SendResponse("lose_time_result", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, elapsed)
		protocol.EncodeVLQUint(output, boolToUint(exact))
	})
	return nil
}

// handleGetSleepStats reports the default sleeper's counters
func handleGetSleepStats(_ *[]byte) error {
	st := defaultSleeper.Stats()
	SendResponse("sleep_stats", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, st.Calls)
		protocol.EncodeVLQUint(output, st.Cycles)
		protocol.EncodeVLQUint(output, st.Interrupted)
		protocol.EncodeVLQUint(output, st.ElapsedMs)
	})
	return nil
}

func handleResetSleepStats(_ *[]byte) error {
	defaultSleeper.ResetStats()
	return nil
}
