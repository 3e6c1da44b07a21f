package chip8

import (
	"time"

	"github.com/retroenv/retrogolib/log"
)

// instruction is a fetched opcode split into its four nibbles.
type instruction struct {
	pc     uint16 // address of the opcode
	nibble [4]byte
}

func (i instruction) x() byte { return i.nibble[1] }
func (i instruction) y() byte { return i.nibble[2] }
func (i instruction) n() byte { return i.nibble[3] }

func (i instruction) nn() byte {
	return i.nibble[2]<<4 | i.nibble[3]
}

func (i instruction) nnn() uint16 {
	return uint16(i.nibble[1])<<8 | uint16(i.nibble[2])<<4 | uint16(i.nibble[3])
}

func (i instruction) opcode() uint16 {
	return uint16(i.nibble[0])<<12 | i.nnn()
}

func (i instruction) fault(kind FaultKind) *Fault {
	return &Fault{
		Kind:    kind,
		PC:      i.pc,
		Nibbles: i.nibble,
	}
}

// Tick advances the machine by the elapsed time delta. It decrements the delay
// and sound timers when the 60 Hz timer fires and executes a single instruction
// when the CPU timer fires. random is called by CXNN for every random byte.
func (m *Machine) Tick(delta time.Duration, random func() byte) error {
	key, keyPressed := m.keypad.takeLatch()

	if m.timerClock.Check(delta) {
		if m.delay > 0 {
			m.delay--
		}
		if m.sound > 0 {
			m.sound--
		}
	}

	if !m.cpuClock.Check(delta) {
		return nil
	}
	return m.step(key, keyPressed, random)
}

// step fetches, decodes and executes the instruction at the program counter.
func (m *Machine) step(key byte, keyPressed bool, random func() byte) error {
	hi := m.memory[m.pc&addressMask]
	lo := m.memory[(m.pc+1)&addressMask]
	ins := instruction{
		pc:     m.pc,
		nibble: [4]byte{hi >> 4, hi & 0x0F, lo >> 4, lo & 0x0F},
	}
	m.pc += 2

	if m.cfg.Trace {
		m.logger.Debug("Executing instruction",
			log.Hex("pc", ins.pc),
			log.Hex("opcode", ins.opcode()),
			log.String("mnemonic", Mnemonic(ins.opcode())))
	}

	vx := &m.registers[ins.x()]
	vy := m.registers[ins.y()]

	switch ins.nibble[0] {
	case 0x0:
		return m.executeSystem(ins)

	case 0x1: // JP NNN
		m.pc = ins.nnn()

	case 0x2: // CALL NNN
		m.push(m.pc)
		m.pc = ins.nnn()

	case 0x3: // SE VX, NN
		if *vx == ins.nn() {
			m.pc += 2
		}

	case 0x4: // SNE VX, NN
		if *vx != ins.nn() {
			m.pc += 2
		}

	case 0x5: // SE VX, VY
		if *vx == vy {
			m.pc += 2
		}

	case 0x6: // LD VX, NN
		*vx = ins.nn()

	case 0x7: // ADD VX, NN without carry flag
		*vx += ins.nn()

	case 0x8:
		return m.executeALU(ins)

	case 0x9: // SNE VX, VY
		if *vx != vy {
			m.pc += 2
		}

	case 0xA: // LD I, NNN
		m.index = ins.nnn()

	case 0xB: // JP V0, NNN
		m.pc = ins.nnn() + uint16(m.registers[0])

	case 0xC: // RND VX, NN
		*vx = random() & ins.nn()

	case 0xD: // DRW VX, VY, N
		m.draw(*vx, vy, ins.n())

	case 0xE:
		return m.executeKeys(ins)

	case 0xF:
		return m.executeMisc(ins, key, keyPressed)
	}
	return nil
}

// executeSystem handles the 0x0 opcode family.
func (m *Machine) executeSystem(ins instruction) error {
	if ins.nibble[1] != 0x0 || ins.nibble[2] != 0xE {
		return ins.fault(InvalidInstruction)
	}

	switch ins.nibble[3] {
	case 0x0: // CLS
		m.framebuffer.clear()

	case 0xE: // RET
		address, ok := m.pop()
		if !ok {
			return ins.fault(PopEmptyStack)
		}
		m.pc = address

	default:
		return ins.fault(InvalidInstruction)
	}
	return nil
}

// executeALU handles the 0x8 register to register opcode family.
// The add and subtract variants do not modify VF.
func (m *Machine) executeALU(ins instruction) error {
	x, y := ins.x(), ins.y()
	vy := m.registers[y]
	vx := &m.registers[x]

	switch ins.n() {
	case 0x0: // LD VX, VY
		*vx = vy
	case 0x1: // OR VX, VY
		*vx |= vy
	case 0x2: // AND VX, VY
		*vx &= vy
	case 0x3: // XOR VX, VY
		*vx ^= vy
	case 0x4: // ADD VX, VY
		*vx += vy
	case 0x5: // SUB VX, VY
		*vx -= vy

	case 0x6: // SHR VX {, VY}
		m.registers[0xF] = *vx & 0x01
		if m.cfg.CopyVYWhileShifting {
			m.registers[x] = m.registers[y]
		}
		m.registers[x] >>= 1

	case 0x7: // SUBN VX, VY
		*vx = vy - *vx

	case 0xE: // SHL VX {, VY}
		m.registers[0xF] = *vx & 0x80
		if m.cfg.CopyVYWhileShifting {
			m.registers[x] = m.registers[y]
		}
		m.registers[x] <<= 1

	default:
		return ins.fault(InvalidInstruction)
	}
	return nil
}

// executeKeys handles the 0xE keypad skip opcode family.
func (m *Machine) executeKeys(ins instruction) error {
	key := m.registers[ins.x()]
	if key >= KeyCount {
		m.logger.Warn("Key check for out of range key ignored",
			log.Hex("pc", ins.pc),
			log.Uint8("key", key))
		return nil
	}

	switch {
	case ins.nibble[2] == 0x9 && ins.nibble[3] == 0xE: // SKP VX
		if m.keypad.keys[key] {
			m.pc += 2
		}
	case ins.nibble[2] == 0xA && ins.nibble[3] == 0x1: // SKNP VX
		if !m.keypad.keys[key] {
			m.pc += 2
		}
	default:
		return ins.fault(InvalidInstruction)
	}
	return nil
}

// executeMisc handles the 0xF timer, keypad wait, index and memory opcode family.
func (m *Machine) executeMisc(ins instruction, key byte, keyPressed bool) error {
	x := ins.x()
	vx := &m.registers[x]

	switch ins.nn() {
	case 0x07: // LD VX, DT
		*vx = m.delay

	case 0x0A: // LD VX, K
		if keyPressed {
			*vx = key
		} else {
			m.pc -= 2 // execute again on the next cycle
		}

	case 0x15: // LD DT, VX
		m.delay = *vx

	case 0x18: // LD ST, VX
		m.sound = *vx

	case 0x1E: // ADD I, VX
		m.index += uint16(*vx)
		if m.cfg.IndexOverflowFlag && m.index > MaxAddress {
			m.registers[0xF] = 1
		}

	case 0x29: // LD F, VX
		m.index = m.cfg.FontStart + uint16(*vx&0x0F)*FontCharSize

	case 0x33: // LD B, VX
		value := *vx
		m.memory[m.index&addressMask] = value / 100
		m.memory[(m.index+1)&addressMask] = (value / 10) % 10
		m.memory[(m.index+2)&addressMask] = value % 10

	case 0x55: // LD [I], VX
		for i := range int(x) + 1 {
			if m.cfg.IncrementIndexDuringSaveLoad {
				m.memory[m.index&addressMask] = m.registers[i]
				m.index++
			} else {
				m.memory[(m.index+uint16(i))&addressMask] = m.registers[i]
			}
		}

	case 0x65: // LD VX, [I]
		for i := range int(x) + 1 {
			if m.cfg.IncrementIndexDuringSaveLoad {
				m.registers[i] = m.memory[m.index&addressMask]
				m.index++
			} else {
				m.registers[i] = m.memory[(m.index+uint16(i))&addressMask]
			}
		}

	default:
		return ins.fault(InvalidInstruction)
	}
	return nil
}

// draw XORs an 8 pixel wide sprite of the given height read from I into the
// framebuffer. Sprites are clipped at the display edges, VF is set when a set
// pixel gets cleared.
func (m *Machine) draw(vx, vy, height byte) {
	startX := int(vx) % Width
	y := int(vy) % Height
	m.registers[0xF] = 0

	for row := range uint16(height) {
		data := m.memory[(m.index+row)&addressMask]

		for x, bit := startX, 0; bit < 8 && x < Width; x, bit = x+1, bit+1 {
			if data&(0x80>>bit) == 0 {
				continue
			}
			if m.framebuffer.toggle(x, y) {
				m.registers[0xF] = 1
			}
		}

		y++
		if y >= Height {
			break
		}
	}
}
