package chip8

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Lookup returns the instruction definition matching the opcode word, or nil
// if the word is not a known CHIP-8 opcode.
func Lookup(opcode uint16) *chip8.Instruction {
	firstNibble := (opcode & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// Mnemonic returns a short human readable description of the opcode word
// for diagnostics, for example "drw $D125".
func Mnemonic(opcode uint16) string {
	ins := Lookup(opcode)
	if ins == nil {
		return fmt.Sprintf("??? $%04X", opcode)
	}
	return fmt.Sprintf("%s $%04X", ins.Name, opcode)
}
