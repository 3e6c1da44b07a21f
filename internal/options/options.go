// Package options contains the program options.
package options

import (
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
)

// Frontend selects how the emulation is presented.
type Frontend string

// Supported frontends.
const (
	FrontendWindow   Frontend = "window"
	FrontendTerminal Frontend = "terminal"
	FrontendHeadless Frontend = "headless"
)

// Frontends lists all supported frontends.
var Frontends = []Frontend{FrontendWindow, FrontendTerminal, FrontendHeadless}

// Parameters contains file path options.
type Parameters struct {
	Input      string `flag:"i" usage:"input ROM file"`
	Screenshot string `flag:"screenshot" usage:"write the final display to a PNG file"`
	Wav        string `flag:"wav" usage:"record the beeper to a WAV file"`
}

// Flags contains behavior options.
type Flags struct {
	System   string `flag:"s" usage:"target system: chip8 (default: auto-detect)"`
	Profile  string `flag:"profile" usage:"compatibility profile: modern, cosmac, amiga"`
	Frontend string `flag:"frontend" usage:"frontend: window, terminal, headless" default:"window"`
	Fault    string `flag:"fault" usage:"fault policy: halt, skip, reset" default:"halt"`
	IPS      int    `flag:"ips" usage:"instructions per second" default:"700"`
	Seed     uint64 `flag:"seed" usage:"random seed, 0 for time based"`
	Frames   int    `flag:"frames" usage:"frames to run with the headless frontend" default:"600"`
	Trace    bool   `flag:"trace" usage:"log every executed instruction"`
	Debug    bool   `flag:"debug" usage:"enable debug logging"`
	Quiet    bool   `flag:"q" usage:"quiet mode"`
}

// Quirks contains the quirk override flags. Setting both the enable and the
// disable flag of a quirk is an error.
type Quirks struct {
	ShiftVY          bool `flag:"shift-vy" usage:"8XY6/8XYE copy VY into VX before shifting"`
	NoShiftVY        bool `flag:"no-shift-vy" usage:"8XY6/8XYE shift VX in place"`
	IncrementIndex   bool `flag:"increment-index" usage:"FX55/FX65 advance I"`
	NoIncrementIndex bool `flag:"no-increment-index" usage:"FX55/FX65 leave I unchanged"`
	IndexOverflow    bool `flag:"index-overflow" usage:"FX1E set VF on I overflow"`
	NoIndexOverflow  bool `flag:"no-index-overflow" usage:"FX1E leave VF unchanged"`
}

// OutputFlags contains output options.
type OutputFlags struct {
	Scale int `flag:"scale" usage:"window and screenshot scale factor" default:"10"`
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
	Quirks
	OutputFlags
}

// Emulator defines the validated options that control the emulation.
type Emulator struct {
	Profile  chip8.Profile // explicit profile, empty to detect from the file name
	Frontend Frontend
	Fault    emulator.FaultPolicy

	InstructionsPerSecond int
	Seed                  uint64
	Frames                int
	Scale                 int
	Trace                 bool

	// quirk overrides, nil keeps the value of the profile
	ShiftVY        *bool
	IncrementIndex *bool
	IndexOverflow  *bool
}

// NewEmulator returns a new options instance with default options.
func NewEmulator() Emulator {
	return Emulator{
		Frontend:              FrontendWindow,
		Fault:                 emulator.FaultHalt,
		InstructionsPerSecond: chip8.DefaultInstructionsPerSecond,
		Frames:                600,
		Scale:                 10,
	}
}

// MachineConfig returns the machine configuration for the profile with the
// quirk overrides applied.
func (e Emulator) MachineConfig(profile chip8.Profile) chip8.Config {
	cfg := chip8.DefaultConfig()
	profile.Apply(&cfg)

	cfg.InstructionsPerSecond = e.InstructionsPerSecond
	cfg.Trace = e.Trace

	if e.ShiftVY != nil {
		cfg.CopyVYWhileShifting = *e.ShiftVY
	}
	if e.IncrementIndex != nil {
		cfg.IncrementIndexDuringSaveLoad = *e.IncrementIndex
	}
	if e.IndexOverflow != nil {
		cfg.IndexOverflowFlag = *e.IndexOverflow
	}
	return cfg
}

// ParseFrontend returns the frontend matching the given name.
func ParseFrontend(name string) (Frontend, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Frontends {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}
