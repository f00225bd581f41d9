package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"sleepy/host/mcu"
	"sleepy/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	sleepMs = flag.Uint("sleep", 0, "Power down for this many ms (0 starts the interactive prompt)")
	count   = flag.Int("count", 1, "Number of power-downs with -sleep")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	ms, err := sleepBudget(*sleepMs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	mcuConn := mcu.NewMCU()
	mcuConn.Verbose = *verbose

	fmt.Printf("Connecting to MCU on %s at %d baud...\n", *device, *baud)
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := mcuConn.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mcuConn.Close()

	if err := mcuConn.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		mcuConn.PrintDictionary(os.Stdout)
	}

	if ms > 0 {
		if err := runSleeps(mcuConn, ms, *count); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runPrompt(mcuConn); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// sleepBudget checks that a -sleep value fits the firmware's 32-bit
// millisecond argument
func sleepBudget(v uint) (uint32, error) {
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("-sleep %d exceeds the maximum of %d ms", v, uint32(math.MaxUint32))
	}
	return uint32(v), nil
}

// runSleeps issues lose_time n times and prints the clock and counters
func runSleeps(mcuConn *mcu.MCU, ms uint32, n int) error {
	for i := 0; i < n; i++ {
		if err := loseTime(mcuConn, ms); err != nil {
			return err
		}
	}
	if err := printMillis(mcuConn); err != nil {
		return err
	}
	return printStats(mcuConn)
}

func runPrompt(mcuConn *mcu.MCU) error {
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch parts[0] {
		case "quit", "exit", "q":
			return nil

		case "help", "?":
			printHelp()

		case "dict":
			mcuConn.PrintDictionary(os.Stdout)

		case "raw":
			raw := mcuConn.GetDictionaryRaw()
			fmt.Printf("Raw dictionary data (%d bytes):\n%s\n", len(raw), string(raw))

		case "millis":
			err = printMillis(mcuConn)

		case "sleep":
			if len(parts) != 2 {
				fmt.Println("Usage: sleep <ms>")
				continue
			}
			ms, perr := strconv.ParseUint(parts[1], 10, 32)
			if perr != nil {
				fmt.Printf("Invalid duration %q: %v\n", parts[1], perr)
				continue
			}
			err = loseTime(mcuConn, uint32(ms))

		case "stats":
			err = printStats(mcuConn)

		case "reset_stats":
			err = mcuConn.ResetSleepStats()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  dict           - Print dictionary summary")
	fmt.Println("  raw            - Print raw dictionary data")
	fmt.Println("  millis         - Read the MCU millisecond clock")
	fmt.Println("  sleep <ms>     - Power the MCU down for about <ms> milliseconds")
	fmt.Println("  stats          - Print sleep counters")
	fmt.Println("  reset_stats    - Clear sleep counters")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

func loseTime(mcuConn *mcu.MCU, ms uint32) error {
	start := time.Now()
	elapsed, exact, err := mcuConn.LoseTime(ms)
	if err != nil {
		return fmt.Errorf("lose_time %d: %w", ms, err)
	}

	status := "complete"
	if !exact {
		status = "woken early"
	}
	fmt.Printf("lose_time %d: slept %d ms (%s), host saw %v\n",
		ms, elapsed, status, time.Since(start).Round(time.Millisecond))
	return nil
}

func printMillis(mcuConn *mcu.MCU) error {
	clock, err := mcuConn.Millis()
	if err != nil {
		return fmt.Errorf("get_millis: %w", err)
	}
	fmt.Printf("MCU clock: %d ms\n", clock)
	return nil
}

func printStats(mcuConn *mcu.MCU) error {
	st, err := mcuConn.SleepStats()
	if err != nil {
		return fmt.Errorf("get_sleep_stats: %w", err)
	}
	fmt.Printf("Sleep stats: calls=%d cycles=%d interrupted=%d elapsed=%d ms\n",
		st.Calls, st.Cycles, st.Interrupted, st.ElapsedMs)
	return nil
}
