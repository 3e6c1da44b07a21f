// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns program and emulator options
func ParseFlags() (options.Program, options.Emulator, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, options.Emulator{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Emulator{}, err
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}

	emuOpts, err := createEmulatorOptions(opts)
	if err != nil {
		return opts, options.Emulator{}, err
	}
	return opts, emuOpts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: retrochip8 [options] <ROM file to run>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// createEmulatorOptions validates the program options and converts them to emulator options
func createEmulatorOptions(opts options.Program) (options.Emulator, error) {
	emuOpts := options.NewEmulator()

	if opts.Profile != "" {
		profile, err := chip8.ParseProfile(opts.Profile)
		if err != nil {
			return emuOpts, err
		}
		emuOpts.Profile = profile
	}

	frontend, ok := options.ParseFrontend(opts.Frontend)
	if !ok {
		names := make([]string, len(options.Frontends))
		for i, f := range options.Frontends {
			names[i] = string(f)
		}
		return emuOpts, fmt.Errorf("unsupported frontend: %s. Valid options: %s",
			opts.Frontend, strings.Join(names, ", "))
	}
	emuOpts.Frontend = frontend

	fault, err := emulator.ParseFaultPolicy(opts.Fault)
	if err != nil {
		return emuOpts, err
	}
	emuOpts.Fault = fault

	if opts.IPS <= 0 || opts.IPS > chip8.MaxInstructionsPerSecond {
		return emuOpts, fmt.Errorf("instructions per second must be between 1 and %d, got %d",
			chip8.MaxInstructionsPerSecond, opts.IPS)
	}
	if opts.Frames <= 0 {
		return emuOpts, fmt.Errorf("frame count must be positive, got %d", opts.Frames)
	}
	if opts.Scale <= 0 {
		return emuOpts, fmt.Errorf("scale must be positive, got %d", opts.Scale)
	}

	emuOpts.InstructionsPerSecond = opts.IPS
	emuOpts.Seed = opts.Seed
	emuOpts.Frames = opts.Frames
	emuOpts.Scale = opts.Scale
	emuOpts.Trace = opts.Trace

	quirks := []struct {
		name      string
		enable    bool
		disable   bool
		overrides **bool
	}{
		{"shift-vy", opts.ShiftVY, opts.NoShiftVY, &emuOpts.ShiftVY},
		{"increment-index", opts.IncrementIndex, opts.NoIncrementIndex, &emuOpts.IncrementIndex},
		{"index-overflow", opts.IndexOverflow, opts.NoIndexOverflow, &emuOpts.IndexOverflow},
	}
	for _, q := range quirks {
		switch {
		case q.enable && q.disable:
			return emuOpts, fmt.Errorf("conflicting quirk flags -%s and -no-%s", q.name, q.name)
		case q.enable:
			*q.overrides = boolPtr(true)
		case q.disable:
			*q.overrides = boolPtr(false)
		}
	}

	return emuOpts, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input ROM file")
	flags.StringVar(&opts.Screenshot, "screenshot", "", "write the display at exit to the given PNG file")
	flags.StringVar(&opts.Wav, "wav", "", "record the beeper to the given WAV file")
	flags.StringVar(&opts.System, "s", "", "system to emulate (chip8) - if not auto-detected from file extension")
	flags.StringVar(&opts.Profile, "profile", "", "compatibility profile (modern/cosmac/amiga) - if not auto-detected from file extension")
	flags.StringVar(&opts.Frontend, "frontend", string(options.FrontendWindow), "frontend to run the emulation in (window/terminal/headless)")
	flags.StringVar(&opts.Fault, "fault", string(emulator.FaultHalt), "reaction to invalid instructions (halt/skip/reset)")
	flags.IntVar(&opts.IPS, "ips", chip8.DefaultInstructionsPerSecond, "instructions executed per second")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random number generator, 0 uses the current time")
	flags.IntVar(&opts.Frames, "frames", 600, "number of 60 Hz frames to run with the headless frontend")
	flags.IntVar(&opts.Scale, "scale", 10, "window and screenshot scale factor")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, requires -debug")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")

	flags.BoolVar(&opts.ShiftVY, "shift-vy", false, "quirk: 8XY6/8XYE copy VY into VX before shifting")
	flags.BoolVar(&opts.NoShiftVY, "no-shift-vy", false, "quirk: 8XY6/8XYE shift VX in place")
	flags.BoolVar(&opts.IncrementIndex, "increment-index", false, "quirk: FX55/FX65 advance I for every register")
	flags.BoolVar(&opts.NoIncrementIndex, "no-increment-index", false, "quirk: FX55/FX65 leave I unchanged")
	flags.BoolVar(&opts.IndexOverflow, "index-overflow", false, "quirk: FX1E sets VF when I overflows")
	flags.BoolVar(&opts.NoIndexOverflow, "no-index-overflow", false, "quirk: FX1E leaves VF unchanged")
}
