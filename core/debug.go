package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// SleepEvent captures one scheduler step for post-mortem analysis
type SleepEvent struct {
	EventType uint8            // Event type code
	Code      WatchdogInterval // Interval armed for the cycle
	Clock     uint32           // Millisecond clock at event
	Value     uint32           // Context-dependent value
}

// Event type codes
const (
	EvtArm         = 1 // watchdog armed, Value = remaining budget
	EvtWake        = 2 // CPU woke, Value = watchdog counter
	EvtInterrupted = 3 // foreign interrupt, Value = remaining budget
	EvtAdjust      = 4 // clock corrected, Value = elapsed ms
)

const (
	SleepTraceSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Sleep trace ring buffer (non-blocking, for post-mortem)
	sleepTrace     [SleepTraceSize]SleepEvent
	sleepTraceHead uint8        // Next write position
	sleepTraceLen  uint8        // Number of valid entries
	traceEnabled   bool  = true // Always capture sleep events
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetTraceEnabled turns sleep event capture on or off
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// recordSleepEvent captures a scheduler event in the ring buffer.
// It never blocks and never allocates.
func recordSleepEvent(eventType uint8, code WatchdogInterval, clock uint32, value uint32) {
	if !traceEnabled {
		return
	}
	idx := sleepTraceHead
	sleepTrace[idx] = SleepEvent{
		EventType: eventType,
		Code:      code,
		Clock:     clock,
		Value:     value,
	}
	sleepTraceHead = (idx + 1) % SleepTraceSize
	if sleepTraceLen < SleepTraceSize {
		sleepTraceLen++
	}
}

// SleepTrace returns a copy of the captured events, oldest first
func SleepTrace() []SleepEvent {
	events := make([]SleepEvent, 0, sleepTraceLen)
	start := (sleepTraceHead + SleepTraceSize - sleepTraceLen) % SleepTraceSize
	for i := uint8(0); i < sleepTraceLen; i++ {
		events = append(events, sleepTrace[(start+i)%SleepTraceSize])
	}
	return events
}

// eventName returns the dump label of an event type
func eventName(eventType uint8) string {
	switch eventType {
	case EvtArm:
		return "ARM"
	case EvtWake:
		return "WAKE"
	case EvtInterrupted:
		return "INTERRUPTED!"
	case EvtAdjust:
		return "ADJUST"
	default:
		return "UNKNOWN"
	}
}

// DumpSleepTrace outputs the trace ring through the debug writer,
// regardless of whether debug output is enabled
func DumpSleepTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[SLEEP] === Sleep Trace Dump ===")
	for _, evt := range SleepTrace() {
		debugPrintln("[SLEEP] " + eventName(evt.EventType) +
			" code=" + itoa(int(evt.Code)) +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[SLEEP] === End Dump ===")
}

// ClearSleepTrace clears the trace buffer
func ClearSleepTrace() {
	for i := range sleepTrace {
		sleepTrace[i] = SleepEvent{}
	}
	sleepTraceHead = 0
	sleepTraceLen = 0
}
