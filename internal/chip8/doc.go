// Package chip8 implements a CHIP-8 virtual machine core.
//
// # Machine Overview
//
// CHIP-8 is an interpreted instruction set from the 1970s designed for simple games.
// The machine consists of:
//   - 4KB of memory (0x000-MaxAddress)
//   - 16 general-purpose 8-bit registers (V0-VF), VF doubles as flag register
//   - a 16-bit index register (I) and a program counter
//   - a bounded call stack of return addresses
//   - delay and sound timers that count down at 60 Hz
//   - a 64x32 monochrome framebuffer
//   - a 16 key hexadecimal keypad
//
// # Timing
//
// The host advances the machine by calling Tick with the elapsed time since the
// previous call. Tick drives two independent timers: a fixed 60 Hz timer for the
// delay and sound counters and a CPU timer running at Config.InstructionsPerSecond.
// Each timer fires at most once per call, a fired CPU timer executes exactly one
// instruction. Multiple elapsed periods within a single delta collapse into a
// single fire, a stalled host therefore never causes an instruction burst.
//
// # Compatibility Quirks
//
// Three independent toggles in Config cover behaviour that differs between
// historical interpreters:
//   - CopyVYWhileShifting: 8XY6/8XYE copy VY into VX before shifting (COSMAC VIP)
//   - IncrementIndexDuringSaveLoad: FX55/FX65 advance I per register (COSMAC VIP)
//   - IndexOverflowFlag: FX1E sets VF when I leaves the 12-bit range (Amiga)
//
// Profile presets exist for common combinations, the flags stay individually
// combinable.
//
// # Faults
//
// Tick returns a *Fault for an undefined opcode or a return with an empty call
// stack. The program counter has already advanced past the faulting opcode, the
// host decides whether to halt, skip or reset.
//
// # Usage Example
//
//	machine, err := chip8.New(logger, chip8.DefaultConfig())
//	if err != nil {
//		return fmt.Errorf("creating machine: %w", err)
//	}
//	if err := machine.LoadProgram(rom); err != nil {
//		return fmt.Errorf("loading program: %w", err)
//	}
//	for {
//		if err := machine.Tick(delta, randomByte); err != nil {
//			return err
//		}
//	}
package chip8
