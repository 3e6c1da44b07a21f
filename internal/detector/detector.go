// Package detector handles system and compatibility profile detection.
package detector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles system and profile detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new system detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the system architecture from options or file auto-detection.
// Only CHIP-8 can be emulated, any other explicitly requested system is an error.
func (d *Detector) Detect(opts options.Program) (arch.System, error) {
	if opts.System == "" {
		d.logger.Debug("Auto-detected system",
			log.Stringer("system", arch.CHIP8System),
			log.String("file", opts.Input))
		return arch.CHIP8System, nil
	}

	system, _ := arch.SystemFromString(opts.System)
	if system != arch.CHIP8System {
		return "", fmt.Errorf("unsupported system '%s'", opts.System)
	}
	return system, nil
}

// DetectProfile returns the explicitly requested profile or determines the
// profile from the input filename extension.
func (d *Detector) DetectProfile(opts options.Program, emuOpts options.Emulator) chip8.Profile {
	if emuOpts.Profile != "" {
		return emuOpts.Profile
	}

	profile := d.profileFromFile(opts.Input)
	d.logger.Debug("Auto-detected profile",
		log.Stringer("profile", profile),
		log.String("file", opts.Input))
	return profile
}

// profileFromFile determines the profile based on file extension.
func (d *Detector) profileFromFile(filename string) chip8.Profile {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".c8":
		// .c8 files are usually dumps of COSMAC VIP era programs
		return chip8.ProfileCOSMAC
	default:
		return chip8.ProfileModern
	}
}
