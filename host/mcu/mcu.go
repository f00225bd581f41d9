package mcu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"sleepy/host/serial"
	"sleepy/protocol"
)

// Bootstrap message IDs, fixed before the dictionary is known
const (
	identifyResponseID = 0
	identifyID         = 1
)

// identifyChunk is the dictionary bytes requested per identify
const identifyChunk = 40

var errNotConnected = errors.New("not connected to MCU")

// MCU is a connection to a sleepy firmware
type MCU struct {
	transport *protocol.HostTransport

	dictionary     *Dictionary
	dictionaryData []byte
	commandIDs     map[string]uint16
	responseNames  map[uint16]string

	// Verbose prints progress while retrieving the dictionary
	Verbose bool

	connected bool
}

// Dictionary is the parsed MCU data dictionary
type Dictionary struct {
	Version   string            `json:"version"`
	Config    map[string]string `json:"config"`
	Commands  map[string]int    `json:"commands"`
	Responses map[string]int    `json:"responses"`
}

// SleepStats mirrors the firmware's sleep counters
type SleepStats struct {
	Calls       uint32
	Cycles      uint32
	Interrupted uint32
	ElapsedMs   uint32
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.ConnectPort(port)

	// Opening the port resets most Arduino boards; wait for the bootloader
	time.Sleep(2 * time.Second)
	return nil
}

// ConnectPort attaches the MCU to an already open port
func (m *MCU) ConnectPort(port serial.Port) {
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.connected = false
	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// RetrieveDictionary downloads and parses the MCU dictionary
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return errNotConnected
	}

	var dictBuffer bytes.Buffer
	for offset := uint32(0); ; {
		chunk, err := m.sendIdentify(offset, identifyChunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		dictBuffer.Write(chunk)
		offset += uint32(len(chunk))

		if m.Verbose {
			fmt.Printf("  Retrieved %d bytes...\n", offset)
		}
		if len(chunk) < identifyChunk {
			break
		}
	}

	m.dictionaryData = dictBuffer.Bytes()
	if err := m.parseDictionary(); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return nil
}

// sendIdentify requests one dictionary chunk
func (m *MCU) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	err := m.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify command: %w", err)
	}

	payload, err := m.waitResponse(identifyResponseID, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}

	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}

	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return data, nil
}

// parseDictionary parses the dictionary JSON and indexes messages by name
func (m *MCU) parseDictionary() error {
	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	m.commandIDs = make(map[string]uint16, len(dict.Commands))
	for sig, id := range dict.Commands {
		m.commandIDs[messageName(sig)] = uint16(id)
	}
	m.responseNames = make(map[uint16]string, len(dict.Responses))
	for sig, id := range dict.Responses {
		m.responseNames[uint16(id)] = messageName(sig)
	}

	m.dictionary = dict
	return nil
}

// messageName strips the argument format from a dictionary key
func messageName(signature string) string {
	name, _, _ := strings.Cut(signature, " ")
	return name
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// GetDictionaryRaw returns the raw dictionary data
func (m *MCU) GetDictionaryRaw() []byte {
	return m.dictionaryData
}

// PrintDictionary writes a summary of the dictionary
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}

	fmt.Fprintln(w, "=== MCU Dictionary ===")
	fmt.Fprintf(w, "Version: %s\n", m.dictionary.Version)

	fmt.Fprintln(w, "Config:")
	for _, k := range sortedKeys(m.dictionary.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, m.dictionary.Config[k])
	}

	fmt.Fprintf(w, "Commands (%d):\n", len(m.dictionary.Commands))
	for _, sig := range sortedKeys(m.dictionary.Commands) {
		fmt.Fprintf(w, "  [%d] %s\n", m.dictionary.Commands[sig], sig)
	}

	fmt.Fprintf(w, "Responses (%d):\n", len(m.dictionary.Responses))
	for _, sig := range sortedKeys(m.dictionary.Responses) {
		fmt.Fprintf(w, "  [%d] %s\n", m.dictionary.Responses[sig], sig)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SendCommand sends a command by name and waits for its ACK
func (m *MCU) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	return m.sendCommand(name, args, 2*time.Second)
}

func (m *MCU) sendCommand(name string, args func(output protocol.OutputBuffer), timeout time.Duration) error {
	if !m.connected {
		return errNotConnected
	}
	if m.dictionary == nil {
		return errors.New("dictionary not loaded")
	}

	cmdID, ok := m.commandIDs[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	return m.transport.SendCommandWithTimeout(cmdID, args, timeout)
}

// Query sends a command and returns the arguments of the named response
func (m *MCU) Query(name string, args func(output protocol.OutputBuffer), response string, timeout time.Duration) ([]byte, error) {
	respID, ok := m.responseID(response)
	if !ok {
		return nil, fmt.Errorf("unknown response: %s", response)
	}
	if err := m.sendCommand(name, args, timeout); err != nil {
		return nil, err
	}
	return m.waitResponse(respID, timeout)
}

func (m *MCU) responseID(name string) (uint16, bool) {
	for id, n := range m.responseNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// waitResponse skips other messages until respID arrives and returns its
// arguments
func (m *MCU) waitResponse(respID uint16, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := m.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		payload := resp.Payload
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode response command ID: %w", err)
		}
		if uint16(cmdID) == respID {
			return payload, nil
		}
	}
}

// decodeUints decodes n VLQ values from payload
func decodeUints(payload []byte, n int) ([]uint32, error) {
	vals := make([]uint32, n)
	for i := range vals {
		v, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// Millis reads the MCU's millisecond clock
func (m *MCU) Millis() (uint32, error) {
	payload, err := m.Query("get_millis", nil, "millis", time.Second)
	if err != nil {
		return 0, err
	}
	vals, err := decodeUints(payload, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to decode millis: %w", err)
	}
	return vals[0], nil
}

// LoseTime puts the MCU into power-down for about ms milliseconds. It
// returns the MCU's estimate of the time slept and whether the sleep ran
// to completion. The MCU acknowledges only after waking.
func (m *MCU) LoseTime(ms uint32) (elapsed uint32, exact bool, err error) {
	timeout := loseTimeTimeout(ms)
	payload, err := m.Query("lose_time", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, ms)
	}, "lose_time_result", timeout)
	if err != nil {
		return 0, false, err
	}
	vals, err := decodeUints(payload, 2)
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode lose_time_result: %w", err)
	}
	return vals[0], vals[1] != 0, nil
}

// loseTimeTimeout bounds the wait for a lose_time ACK. The watchdog's RC
// oscillator can run 10% or more slow, so the slack grows with ms.
func loseTimeTimeout(ms uint32) time.Duration {
	budget := time.Duration(ms) * time.Millisecond
	return budget + budget/4 + 2*time.Second
}

// SleepStats reads the MCU's sleep counters
func (m *MCU) SleepStats() (SleepStats, error) {
	payload, err := m.Query("get_sleep_stats", nil, "sleep_stats", time.Second)
	if err != nil {
		return SleepStats{}, err
	}
	vals, err := decodeUints(payload, 4)
	if err != nil {
		return SleepStats{}, fmt.Errorf("failed to decode sleep_stats: %w", err)
	}
	return SleepStats{Calls: vals[0], Cycles: vals[1], Interrupted: vals[2], ElapsedMs: vals[3]}, nil
}

// ResetSleepStats clears the MCU's sleep counters
func (m *MCU) ResetSleepStats() error {
	return m.SendCommand("reset_sleep_stats", nil)
}
