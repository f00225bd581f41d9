package core

// utoa converts an unsigned integer to a string without using fmt.
// strconv pulls in too much for the smaller AVR parts.
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// itoa converts a signed integer to a string
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// valueToString converts a dictionary constant to its string form
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case int8:
		return itoa(int(val))
	case int32:
		return itoa(int(val))
	case uint8:
		return utoa(uint32(val))
	case uint16:
		return utoa(uint32(val))
	case uint32:
		return utoa(val)
	case WatchdogInterval:
		return itoa(int(val))
	default:
		// All constant types are known at build time
		return ""
	}
}

// boolToUint encodes a flag for the wire
func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
