// Package loader handles ROM file loading operations.
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/arch"
)

// ErrEmptyROM is returned for ROM files without any content.
var ErrEmptyROM = errors.New("empty ROM file")

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the complete ROM file for the given system. CHIP-8 ROMs are raw
// program images without a header, the only validation done is that the
// image fits into memory behind the program start address.
func (l *Loader) Load(path string, system arch.System, programStart uint16) ([]byte, error) {
	if system != arch.CHIP8System {
		return nil, fmt.Errorf("unsupported system '%s'", system)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("loading %s: %w", path, ErrEmptyROM)
	}
	if available := chip8.MemorySize - int(programStart); len(data) > available {
		return nil, fmt.Errorf("loading %s: %w: %d bytes, %d bytes available",
			path, chip8.ErrProgramTooLarge, len(data), available)
	}
	return data, nil
}
