package core

import "sync"

// Version is reported in the data dictionary
const Version = "sleepy-0.1.0"

// Constant is a firmware constant exposed to the host
type Constant struct {
	Name  string
	Value interface{}
}

// Dictionary is the data dictionary the host downloads with identify.
// It is plain JSON, built by hand because encoding/json is too heavy for
// the AVR targets.
type Dictionary struct {
	mu         sync.RWMutex
	constants  map[string]*Constant
	commandReg *CommandRegistry
	version    string
	cachedDict []byte
}

var globalDictionary = NewDictionary(globalRegistry)

// NewDictionary creates a dictionary describing cmdReg
func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:  make(map[string]*Constant),
		commandReg: cmdReg,
		version:    Version,
	}
}

// RegisterConstant registers a constant in the global dictionary
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

// AddConstant adds a constant and drops any cached dictionary
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.cachedDict = nil
}

// BuildDictionary builds and caches the dictionary. Call it once all
// commands are registered.
func (d *Dictionary) BuildDictionary() {
	entries := d.commandReg.Entries()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cachedDict = d.buildJSONLocked(entries)
	DebugPrintln("[DICT] built " + itoa(len(d.cachedDict)) + " bytes")
}

// Generate returns the dictionary JSON, from cache when built
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cachedDict
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}

	entries := d.commandReg.Entries()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buildJSONLocked(entries)
}

// buildJSONLocked renders the dictionary (caller must hold the lock).
// Format: {"version":..,"config":{..},"commands":{..},"responses":{..}}
func (d *Dictionary) buildJSONLocked(entries []*Command) []byte {
	result := make([]byte, 0, 512)

	result = append(result, `{"version":"`...)
	result = append(result, d.version...)
	result = append(result, `","config":{`...)

	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sortStrings(names)
	for i, name := range names {
		if i > 0 {
			result = append(result, ',')
		}
		result = append(result, '"')
		result = append(result, name...)
		result = append(result, `":"`...)
		result = append(result, valueToString(d.constants[name].Value)...)
		result = append(result, '"')
	}

	result = append(result, `},"commands":{`...)
	result = appendEntries(result, entries, true)
	result = append(result, `},"responses":{`...)
	result = appendEntries(result, entries, false)
	result = append(result, `}}`...)
	return result
}

// appendEntries writes "signature":id pairs for commands (handler set) or
// responses (no handler). Entries arrive sorted by ID.
func appendEntries(result []byte, entries []*Command, commands bool) []byte {
	first := true
	for _, cmd := range entries {
		if (cmd.Handler != nil) != commands {
			continue
		}
		if !first {
			result = append(result, ',')
		}
		result = append(result, '"')
		result = append(result, cmd.Signature()...)
		result = append(result, `":`...)
		result = append(result, utoa(uint32(cmd.ID))...)
		first = false
	}
	return result
}

// sortStrings is an insertion sort; the sort package is avoided on MCUs
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// GetChunk returns a copy of count bytes of the dictionary from offset.
// Past the end it returns an empty slice, which ends the host's download.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}

	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}

	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

// GetGlobalDictionary returns the global dictionary instance
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}
