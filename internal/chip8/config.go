package chip8

import (
	"errors"
	"fmt"
	"strings"
)

// Default machine parameters.
const (
	// DefaultInstructionsPerSecond is the CPU clock used when none is configured.
	DefaultInstructionsPerSecond = 700

	// MaxInstructionsPerSecond keeps the CPU period at one nanosecond or more.
	MaxInstructionsPerSecond = 1_000_000_000

	// ProgramStart is the memory address where CHIP-8 programs are loaded
	// and begin execution.
	ProgramStart = 0x200

	// FontStart is the memory address of the built-in hexadecimal font.
	FontStart = 0x050

	// FontCharSize is the size in bytes of a single font glyph.
	FontCharSize = 5

	// FontSize is the size in bytes of the complete font for digits 0-F.
	FontSize = FontCharSize * 16
)

// ErrInvalidConfig is returned by New for configurations that can not form a machine.
var ErrInvalidConfig = errors.New("invalid machine configuration")

// DefaultFont contains the canonical 4x5 pixel glyphs for the digits 0-F.
var DefaultFont = [FontSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Config contains the machine parameters. It is copied into the machine on
// construction and can not be changed afterwards.
type Config struct {
	InstructionsPerSecond int
	ProgramStart          uint16
	Font                  [FontSize]byte
	FontStart             uint16

	// Compatibility quirks, each of them can be toggled independently.
	CopyVYWhileShifting          bool // 8XY6/8XYE: VX := VY before shifting
	IncrementIndexDuringSaveLoad bool // FX55/FX65: I is advanced for every register
	IndexOverflowFlag            bool // FX1E: VF := 1 when I exceeds 0x0FFF

	Trace bool // log every executed instruction at debug level
}

// DefaultConfig returns the default machine configuration with all quirks disabled.
func DefaultConfig() Config {
	return Config{
		InstructionsPerSecond: DefaultInstructionsPerSecond,
		ProgramStart:          ProgramStart,
		Font:                  DefaultFont,
		FontStart:             FontStart,
	}
}

func (c Config) validate() error {
	if c.InstructionsPerSecond <= 0 {
		return fmt.Errorf("%w: instructions per second must be positive, got %d",
			ErrInvalidConfig, c.InstructionsPerSecond)
	}
	if c.InstructionsPerSecond > MaxInstructionsPerSecond {
		return fmt.Errorf("%w: instructions per second must not exceed %d, got %d",
			ErrInvalidConfig, MaxInstructionsPerSecond, c.InstructionsPerSecond)
	}
	if int(c.ProgramStart) >= MemorySize {
		return fmt.Errorf("%w: program start $%04X outside of memory", ErrInvalidConfig, c.ProgramStart)
	}
	if int(c.FontStart)+FontSize > MemorySize {
		return fmt.Errorf("%w: font at $%04X does not fit into memory", ErrInvalidConfig, c.FontStart)
	}
	return nil
}

// Profile is a named preset of compatibility quirks.
type Profile string

// Supported compatibility profiles.
const (
	ProfileModern Profile = "modern" // all quirks disabled
	ProfileCOSMAC Profile = "cosmac" // original COSMAC VIP interpreter
	ProfileAmiga  Profile = "amiga"  // CHIP-8 interpreter for the Amiga
)

// Profiles lists all supported profiles.
var Profiles = []Profile{ProfileModern, ProfileCOSMAC, ProfileAmiga}

// ParseProfile returns the profile matching the given name, the empty string
// results in the modern profile.
func ParseProfile(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProfileModern, nil
	}
	for _, p := range Profiles {
		if string(p) == name {
			return p, nil
		}
	}

	names := make([]string, len(Profiles))
	for i, p := range Profiles {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unsupported profile: %s. Valid options: %s", name, strings.Join(names, ", "))
}

// String implements the fmt.Stringer interface.
func (p Profile) String() string {
	return string(p)
}

// Apply sets the quirk flags of the configuration to the profile preset.
func (p Profile) Apply(cfg *Config) {
	cfg.CopyVYWhileShifting = false
	cfg.IncrementIndexDuringSaveLoad = false
	cfg.IndexOverflowFlag = false

	switch p {
	case ProfileCOSMAC:
		cfg.CopyVYWhileShifting = true
		cfg.IncrementIndexDuringSaveLoad = true
	case ProfileAmiga:
		// Spacefight 2091! relies on the overflow flag
		cfg.IndexOverflowFlag = true
	case ProfileModern:
	}
}
