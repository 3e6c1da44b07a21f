// Package emulator drives a CHIP-8 machine from a host clock.
package emulator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/log"
)

// ErrHalted is returned once the emulation stopped because of a fault.
var ErrHalted = errors.New("emulation halted")

// MaxBacklog is the most host time a single advance delivers to the machine.
// Any time beyond it, for example after the host stalled, is dropped.
const MaxBacklog = 100 * time.Millisecond

// FaultPolicy defines how the runner reacts to an instruction fault.
type FaultPolicy string

// Supported fault policies.
const (
	FaultHalt  FaultPolicy = "halt"  // stop the emulation
	FaultSkip  FaultPolicy = "skip"  // log and continue after the faulting opcode
	FaultReset FaultPolicy = "reset" // log and restart the program
)

var faultPolicies = []FaultPolicy{FaultHalt, FaultSkip, FaultReset}

// ParseFaultPolicy returns the fault policy matching the given name, the
// empty string results in FaultHalt.
func ParseFaultPolicy(name string) (FaultPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FaultHalt, nil
	}
	for _, p := range faultPolicies {
		if string(p) == name {
			return p, nil
		}
	}

	names := make([]string, len(faultPolicies))
	for i, p := range faultPolicies {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unsupported fault policy: %s. Valid options: %s", name, strings.Join(names, ", "))
}

// SoundSink receives the state of the sound timer after every advance.
type SoundSink interface {
	Sound(on bool, elapsed time.Duration)
}

// Options controls the runner behavior.
type Options struct {
	Fault FaultPolicy
	Seed  uint64 // seed of the random source, 0 uses the current time
}

// Runner feeds elapsed host time into a machine in slices of one CPU period.
type Runner struct {
	logger  *log.Logger
	machine *chip8.Machine
	fault   FaultPolicy
	sinks   []SoundSink
	rng     *rand.Rand

	period  time.Duration
	pending time.Duration // host time not yet delivered to the machine

	cycles int
	faults int
	halted error
}

// New returns a runner for the machine. The machine must already have its
// program loaded.
func New(logger *log.Logger, machine *chip8.Machine, opts Options, sinks ...SoundSink) *Runner {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var chachaSeed [32]byte
	binary.LittleEndian.PutUint64(chachaSeed[:], seed)

	fault := opts.Fault
	if fault == "" {
		fault = FaultHalt
	}

	cfg := machine.Config()
	return &Runner{
		logger:  logger,
		machine: machine,
		fault:   fault,
		sinks:   sinks,
		rng:     rand.New(rand.NewChaCha8(chachaSeed)),
		period:  time.Second / time.Duration(cfg.InstructionsPerSecond),
	}
}

// Machine returns the emulated machine.
func (r *Runner) Machine() *chip8.Machine {
	return r.machine
}

// Cycles returns the number of machine ticks delivered so far.
func (r *Runner) Cycles() int {
	return r.cycles
}

// Faults returns the number of instruction faults that occurred.
func (r *Runner) Faults() int {
	return r.faults
}

// Halted returns the error that stopped the emulation, or nil.
func (r *Runner) Halted() error {
	return r.halted
}

// Advance runs the machine for the elapsed host time. Time that does not
// fill a complete CPU period is carried over to the next call, pending time
// above MaxBacklog is dropped.
func (r *Runner) Advance(elapsed time.Duration) (err error) {
	if r.halted != nil {
		return r.halted
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.halted = fmt.Errorf("%w: %v", ErrHalted, rec)
			r.logger.Debug("Machine crashed", log.String("reason", fmt.Sprint(rec)))
			err = r.halted
		}
	}()

	r.pending += elapsed
	if r.pending > MaxBacklog {
		r.logger.Debug("Dropping host time backlog",
			log.Stringer("dropped", r.pending-MaxBacklog))
		r.pending = MaxBacklog
	}

	for r.pending >= r.period {
		r.pending -= r.period
		r.cycles++

		if tickErr := r.machine.Tick(r.period, r.random); tickErr != nil {
			if err := r.handleFault(tickErr); err != nil {
				return err
			}
		}
	}

	on := r.machine.ShouldPlaySound()
	for _, sink := range r.sinks {
		sink.Sound(on, elapsed)
	}
	return nil
}

// RunFrames advances the machine for the given number of frames without any
// wall clock pacing.
func (r *Runner) RunFrames(ctx context.Context, frames int, frameDuration time.Duration) error {
	for range frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.Advance(frameDuration); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) handleFault(err error) error {
	r.faults++

	switch r.fault {
	case FaultSkip:
		r.logger.Warn("Skipping faulting instruction", log.Err(err))
		return nil

	case FaultReset:
		r.logger.Warn("Resetting machine after fault", log.Err(err))
		r.machine.Reset()
		r.pending = 0
		return nil

	default:
		r.halted = fmt.Errorf("%w: %w", ErrHalted, err)
		r.logger.Debug("Machine halted", log.Err(err))
		return r.halted
	}
}

func (r *Runner) random() byte {
	return byte(r.rng.Uint32())
}
