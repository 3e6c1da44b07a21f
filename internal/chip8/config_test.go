package chip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Profile
		wantErr  bool
	}{
		{"empty defaults to modern", "", ProfileModern, false},
		{"modern", "modern", ProfileModern, false},
		{"cosmac mixed case", "COSMAC", ProfileCOSMAC, false},
		{"amiga with spaces", " amiga ", ProfileAmiga, false},
		{"unknown", "schip", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := ParseProfile(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported profile")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, profile)
		})
	}
}

func TestProfile_Apply(t *testing.T) {
	tests := []struct {
		profile         Profile
		copyVY          bool
		incrementIndex  bool
		indexOverflowVF bool
	}{
		{ProfileModern, false, false, false},
		{ProfileCOSMAC, true, true, false},
		{ProfileAmiga, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			// presets replace previously set quirks
			cfg.CopyVYWhileShifting = true
			cfg.IncrementIndexDuringSaveLoad = true
			cfg.IndexOverflowFlag = true

			tt.profile.Apply(&cfg)
			assert.Equal(t, tt.copyVY, cfg.CopyVYWhileShifting)
			assert.Equal(t, tt.incrementIndex, cfg.IncrementIndexDuringSaveLoad)
			assert.Equal(t, tt.indexOverflowVF, cfg.IndexOverflowFlag)
			assert.Equal(t, DefaultInstructionsPerSecond, cfg.InstructionsPerSecond)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.validate())
	assert.Equal(t, uint16(ProgramStart), cfg.ProgramStart)
	assert.Equal(t, uint16(FontStart), cfg.FontStart)
	assert.Equal(t, DefaultFont, cfg.Font)
	assert.False(t, cfg.CopyVYWhileShifting)
	assert.False(t, cfg.IncrementIndexDuringSaveLoad)
	assert.False(t, cfg.IndexOverflowFlag)
}
