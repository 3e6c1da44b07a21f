package chip8

import (
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// CHIP-8 machine dimensions.
//
// CHIP-8 memory map (4KB total):
//
//	0x000-0x1FF: Interpreter area, contains the font at FontStart
//	0x200-0xFFF: User program space
const (
	// MemorySize is the size of the addressable memory in bytes.
	MemorySize = 4096

	// MaxAddress is the highest valid address in CHIP-8 memory space.
	MaxAddress = MemorySize - 1

	// StackSize is the byte budget of the call stack, every return address
	// occupies two bytes.
	StackSize = 2048

	// StackSlots is the maximum nesting depth of subroutine calls.
	StackSlots = StackSize / 2

	// RegisterCount is the number of general-purpose registers V0-VF.
	RegisterCount = 16

	// Width and Height are the framebuffer dimensions in pixels.
	Width  = 64
	Height = 32

	// timerFrequency is the rate of the delay and sound timers in Hz.
	timerFrequency = 60

	// addressMask wraps memory accesses into the 4KB address space.
	addressMask = MaxAddress
)

// ErrProgramTooLarge is returned when a program does not fit into memory
// behind the program start address.
var ErrProgramTooLarge = errors.New("program too large")

// Machine contains the complete state of a CHIP-8 virtual machine.
type Machine struct {
	logger *log.Logger
	cfg    Config

	memory    [MemorySize]byte
	registers [RegisterCount]byte
	index     uint16
	pc        uint16

	stack      [StackSlots]uint16
	stackDepth int

	delay byte
	sound byte

	timerClock Timer // delay and sound timer clock
	cpuClock   Timer

	framebuffer Framebuffer
	keypad      keypad

	program []byte // installed program, reinstalled on reset
}

// New returns a new machine for the given configuration. The font is copied
// into memory and the program counter points to the program start.
func New(logger *log.Logger, cfg Config) (*Machine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}

	m := &Machine{
		logger:     logger,
		cfg:        cfg,
		timerClock: NewTimer(time.Second / timerFrequency),
		cpuClock:   NewTimer(time.Second / time.Duration(cfg.InstructionsPerSecond)),
	}
	if err := m.installFont(); err != nil {
		return nil, err
	}
	m.pc = cfg.ProgramStart
	return m, nil
}

func (m *Machine) installFont() error {
	m.copyFont()

	// the first glyph row has to be the top of the digit 0
	start := int(m.cfg.FontStart)
	if m.memory[start] != DefaultFont[0] {
		return fmt.Errorf("%w: font at $%04X does not start with the digit 0 glyph, got $%02X",
			ErrInvalidConfig, start, m.memory[start])
	}
	return nil
}

func (m *Machine) copyFont() {
	start := int(m.cfg.FontStart)
	copy(m.memory[start:start+FontSize], m.cfg.Font[:])
}

// LoadProgram copies the program image into memory at the program start address.
func (m *Machine) LoadProgram(program []byte) error {
	start := int(m.cfg.ProgramStart)
	if available := MemorySize - start; len(program) > available {
		return fmt.Errorf("%w: %d bytes, %d bytes available", ErrProgramTooLarge, len(program), available)
	}

	copy(m.memory[start:], program)
	m.program = append(m.program[:0], program...)
	return nil
}

// Reset restores the power-on state of the machine and reinstalls the font
// and the loaded program.
func (m *Machine) Reset() {
	m.memory = [MemorySize]byte{}
	m.registers = [RegisterCount]byte{}
	m.index = 0
	m.pc = m.cfg.ProgramStart
	m.stack = [StackSlots]uint16{}
	m.stackDepth = 0
	m.delay = 0
	m.sound = 0
	m.timerClock.reset()
	m.cpuClock.reset()
	m.framebuffer.clear()
	m.keypad = keypad{}

	m.copyFont()
	copy(m.memory[m.cfg.ProgramStart:], m.program)
}

// Config returns the configuration the machine was created with.
func (m *Machine) Config() Config {
	return m.cfg
}

// ShouldPlaySound returns whether the sound timer is active.
func (m *Machine) ShouldPlaySound() bool {
	return m.sound > 0
}

// Framebuffer returns a read-only view of the display.
func (m *Machine) Framebuffer() *Framebuffer {
	return &m.framebuffer
}

// PC returns the program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// Index returns the index register I.
func (m *Machine) Index() uint16 {
	return m.index
}

// Register returns the value of the general-purpose register Vi.
func (m *Machine) Register(i int) byte {
	return m.registers[i&0xF]
}

// DelayTimer returns the current delay timer value.
func (m *Machine) DelayTimer() byte {
	return m.delay
}

// SoundTimer returns the current sound timer value.
func (m *Machine) SoundTimer() byte {
	return m.sound
}

// StackDepth returns the number of return addresses on the call stack.
func (m *Machine) StackDepth() int {
	return m.stackDepth
}

// Memory returns the byte stored at the given address.
func (m *Machine) Memory(address uint16) byte {
	return m.memory[address&addressMask]
}

func (m *Machine) push(address uint16) {
	if m.stackDepth == StackSlots {
		panic(fmt.Sprintf("chip8: call stack overflow at pc $%04X, %d nested calls", m.pc-2, StackSlots))
	}
	m.stack[m.stackDepth] = address
	m.stackDepth++
}

func (m *Machine) pop() (uint16, bool) {
	if m.stackDepth == 0 {
		return 0, false
	}
	m.stackDepth--
	return m.stack[m.stackDepth], true
}

// Framebuffer is the 64x32 monochrome display, stored row-major.
type Framebuffer struct {
	pixels [Width * Height]bool
}

// Pixel returns whether the pixel at the given coordinates is set.
// Coordinates outside of the display return false.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f.pixels[y*Width+x]
}

// Lit returns the number of set pixels.
func (f *Framebuffer) Lit() int {
	var n int
	for _, p := range f.pixels {
		if p {
			n++
		}
	}
	return n
}

func (f *Framebuffer) clear() {
	f.pixels = [Width * Height]bool{}
}

// toggle flips the pixel and returns true if it was set before.
func (f *Framebuffer) toggle(x, y int) bool {
	i := y*Width + x
	was := f.pixels[i]
	f.pixels[i] = !was
	return was
}
