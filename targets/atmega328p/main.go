//go:build avr

package main

import (
	"machine"

	"sleepy/core"
	"sleepy/protocol"
	"sleepy/targets/atmega"
)

// serialBaud must match the host's serial.DefaultBaud
const serialBaud = 57600

var (
	// Buffers for communication
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	messagesReceived uint32
	msgerrors        uint32
)

func main() {
	atmega.Init()
	machine.Serial.Configure(machine.UARTConfig{BaudRate: serialBaud})

	core.InitCoreCommands()
	core.InitSleepCommands()
	core.RegisterConstant("SERIAL_BAUD", uint32(serialBaud))

	// Build and cache dictionary after all commands registered
	core.GetGlobalDictionary().BuildDictionary()

	inputBuffer = protocol.NewFifoBuffer(128)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, handleCommand)
	transport.SetResetCallback(func() {
		// Clear buffers on host reset
		inputBuffer.Reset()
		outputBuffer.Reset()
		core.DefaultSleeper().ResetStats()
	})
	// ACKs go out before the handler that follows them blocks in power-down
	transport.SetFlushCallback(writeSerial)
	core.SetGlobalTransport(transport)

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			readSerial()

			if inputBuffer.Available() > 0 {
				transport.Receive(inputBuffer)
				messagesReceived++
			}

			writeSerial()
		}()
	}
}

// handleCommand dispatches received commands to the command registry
func handleCommand(cmdID uint16, data *[]byte) error {
	return core.DispatchCommand(cmdID, data)
}

// readSerial moves buffered UART bytes into the input FIFO
func readSerial() {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			msgerrors++
			return
		}
		if inputBuffer.Write([]byte{b}) == 0 {
			// Buffer full
			msgerrors++
			return
		}
	}
}

// writeSerial sends and clears the output buffer
func writeSerial() {
	result := outputBuffer.Result()
	if len(result) == 0 {
		return
	}
	machine.Serial.Write(result)
	outputBuffer.Reset()
}
