// Package pipeline orchestrates the emulation workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/retroenv/retrochip8/internal/audio"
	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/detector"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/screen"
	"github.com/retroenv/retrochip8/internal/terminal"
	"github.com/retroenv/retrochip8/internal/video"
	"github.com/retroenv/retrochip8/internal/wavwriter"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// FrameDuration is the host frame time of the headless frontend.
const FrameDuration = time.Second / 60

// Pipeline orchestrates the complete emulation workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader

	// newBeeper opens the host audio device, replaced in tests
	newBeeper func() (beeper, error)
}

type beeper interface {
	emulator.SoundSink
	Close() error
}

// New creates a new emulation pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
		newBeeper: func() (beeper, error) {
			return audio.New()
		},
	}
}

// Execute runs the complete emulation pipeline.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, emuOpts options.Emulator) (*emulator.Runner, error) {
	// Detect system architecture and compatibility profile
	system, err := p.detector.Detect(opts)
	if err != nil {
		return nil, fmt.Errorf("detecting system: %w", err)
	}
	profile := p.detector.DetectProfile(opts, emuOpts)
	cfg := emuOpts.MachineConfig(profile)

	// Load ROM
	rom, err := p.loader.Load(opts.Input, system, cfg.ProgramStart)
	if err != nil {
		return nil, fmt.Errorf("loading ROM: %w", err)
	}

	return p.ExecuteWithROM(ctx, rom, opts, emuOpts, profile, system)
}

// ExecuteWithROM runs the emulation pipeline with a pre-loaded ROM image.
// This is useful for testing and programmatic usage where the ROM is already in memory.
func (p *Pipeline) ExecuteWithROM(ctx context.Context, rom []byte, opts options.Program,
	emuOpts options.Emulator, profile chip8.Profile, system arch.System) (runner *emulator.Runner, rerr error) {

	cfg := emuOpts.MachineConfig(profile)
	machine, err := chip8.New(p.logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating machine: %w", err)
	}
	if err := machine.LoadProgram(rom); err != nil {
		return nil, fmt.Errorf("installing program: %w", err)
	}

	// Print info before processing
	p.printInfo(opts, emuOpts, profile, system, len(rom))

	sinks, closeSinks := p.createSoundSinks(opts, emuOpts)
	defer func() {
		rerr = errors.Join(rerr, closeSinks())
	}()

	runner = emulator.New(p.logger, machine, emulator.Options{
		Fault: emuOpts.Fault,
		Seed:  emuOpts.Seed,
	}, sinks...)

	// Run the selected frontend
	runErr := p.runFrontend(ctx, runner, opts, emuOpts)

	if opts.Screenshot != "" {
		if err := screen.WritePNG(opts.Screenshot, machine.Framebuffer(), emuOpts.Scale); err != nil {
			return runner, errors.Join(runErr, err)
		}
		p.logger.Info("Screenshot written", log.String("file", opts.Screenshot))
	}

	p.logger.Debug("Emulation finished",
		log.Int("cycles", runner.Cycles()),
		log.Int("faults", runner.Faults()),
		log.Hex("pc", machine.PC()))

	if runErr != nil {
		return runner, fmt.Errorf("running emulation: %w", runErr)
	}
	return runner, nil
}

// createSoundSinks creates the sound outputs and returns a function closing them.
func (p *Pipeline) createSoundSinks(opts options.Program, emuOpts options.Emulator) ([]emulator.SoundSink, func() error) {
	var sinks []emulator.SoundSink
	var closers []func() error

	if opts.Wav != "" {
		ww := wavwriter.New(opts.Wav)
		sinks = append(sinks, ww)
		closers = append(closers, func() error {
			if err := ww.Close(); err != nil {
				return err
			}
			p.logger.Info("Audio written", log.String("file", opts.Wav))
			return nil
		})
	}

	if emuOpts.Frontend != options.FrontendHeadless {
		b, err := p.newBeeper()
		if err != nil {
			p.logger.Warn("Audio output not available", log.Err(err))
		} else {
			sinks = append(sinks, b)
			closers = append(closers, b.Close)
		}
	}

	return sinks, func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
}

// runFrontend executes the emulation in the selected frontend until it ends.
func (p *Pipeline) runFrontend(ctx context.Context, runner *emulator.Runner, opts options.Program, emuOpts options.Emulator) error {
	switch emuOpts.Frontend {
	case options.FrontendHeadless:
		return runner.RunFrames(ctx, emuOpts.Frames, FrameDuration)

	case options.FrontendTerminal:
		return terminal.New(p.logger, runner).Run(ctx)

	case options.FrontendWindow:
		title := "retrochip8 - " + filepath.Base(opts.Input)
		return video.New(p.logger, runner).Run(title, emuOpts.Scale)

	default:
		return fmt.Errorf("unsupported frontend '%s'", emuOpts.Frontend)
	}
}

// printInfo prints information about the ROM being processed.
func (p *Pipeline) printInfo(opts options.Program, emuOpts options.Emulator, profile chip8.Profile, system arch.System, size int) {
	if opts.Quiet {
		return
	}

	switch system {
	case arch.CHIP8System:
		p.logger.Info("Processing Chip-8 ROM",
			log.String("file", opts.Input),
			log.Int("size", size),
			log.Stringer("profile", profile),
			log.Int("ips", emuOpts.InstructionsPerSecond),
			log.String("frontend", string(emuOpts.Frontend)),
		)
	}
}
