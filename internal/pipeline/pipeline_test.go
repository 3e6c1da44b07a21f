package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// drawDigitROM draws the font glyph 0 at 0,0, plays a short beep and loops.
var drawDigitROM = []byte{
	0x60, 0x00, // V0 := 0
	0xF0, 0x29, // I := glyph V0
	0xD0, 0x05, // draw 5 rows at V0,V0
	0x61, 0x04, // V1 := 4
	0xF1, 0x18, // ST := V1
	0x12, 0x0A, // loop
}

type mockBeeper struct {
	calls  int
	closed bool
}

func (b *mockBeeper) Sound(bool, time.Duration) { b.calls++ }

func (b *mockBeeper) Close() error {
	b.closed = true
	return nil
}

func createTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return tmpFile
}

func headlessOptions(frames int) options.Emulator {
	emuOpts := options.NewEmulator()
	emuOpts.Frontend = options.FrontendHeadless
	emuOpts.Frames = frames
	emuOpts.Seed = 1
	emuOpts.Scale = 2
	return emuOpts
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.loader)
	assert.NotNil(t, p.newBeeper)
}

func TestExecute_Headless(t *testing.T) {
	p := New(log.NewTestLogger(t))
	tmpDir := t.TempDir()

	opts := options.Program{
		Parameters: options.Parameters{
			Input:      createTempFile(t, "digit.ch8", drawDigitROM),
			Screenshot: filepath.Join(tmpDir, "shot.png"),
			Wav:        filepath.Join(tmpDir, "beep.wav"),
		},
	}

	runner, err := p.Execute(context.Background(), opts, headlessOptions(30))
	assert.NoError(t, err)
	assert.NotNil(t, runner)

	m := runner.Machine()
	assert.True(t, m.Framebuffer().Pixel(0, 0))
	assert.False(t, m.Framebuffer().Pixel(4, 0))
	assert.Equal(t, 14, m.Framebuffer().Lit())
	assert.Equal(t, 0, runner.Faults())

	info, err := os.Stat(opts.Screenshot)
	assert.NoError(t, err)
	assert.True(t, info.Size() > 0)

	info, err = os.Stat(opts.Wav)
	assert.NoError(t, err)
	assert.True(t, info.Size() > 44)
}

func TestExecute_ProfileFromExtension(t *testing.T) {
	p := New(log.NewTestLogger(t))
	opts := options.Program{
		Parameters: options.Parameters{
			Input: createTempFile(t, "old.c8", drawDigitROM),
		},
	}

	runner, err := p.Execute(context.Background(), opts, headlessOptions(1))
	assert.NoError(t, err)

	cfg := runner.Machine().Config()
	assert.True(t, cfg.CopyVYWhileShifting)
	assert.True(t, cfg.IncrementIndexDuringSaveLoad)
}

func TestExecute_Errors(t *testing.T) {
	p := New(log.NewTestLogger(t))

	t.Run("unsupported system", func(t *testing.T) {
		opts := options.Program{
			Parameters: options.Parameters{Input: createTempFile(t, "game.ch8", drawDigitROM)},
			Flags:      options.Flags{System: "nes"},
		}
		_, err := p.Execute(context.Background(), opts, headlessOptions(1))
		assert.ErrorContains(t, err, "detecting system")
	})

	t.Run("empty ROM", func(t *testing.T) {
		opts := options.Program{
			Parameters: options.Parameters{Input: createTempFile(t, "empty.ch8", nil)},
		}
		_, err := p.Execute(context.Background(), opts, headlessOptions(1))
		assert.ErrorContains(t, err, "loading ROM")
	})
}

func TestExecuteWithROM_Halt(t *testing.T) {
	p := New(log.NewTestLogger(t))
	screenshot := filepath.Join(t.TempDir(), "halt.png")
	opts := options.Program{
		Parameters: options.Parameters{Input: "halt.ch8", Screenshot: screenshot},
	}

	// return without a call halts the machine
	runner, err := p.ExecuteWithROM(context.Background(), []byte{0x00, 0xEE}, opts,
		headlessOptions(10), chip8.ProfileModern, arch.CHIP8System)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, emulator.ErrHalted))
	assert.True(t, errors.Is(err, chip8.ErrPopEmptyStack))
	assert.NotNil(t, runner)

	// the screenshot is still written for diagnosis
	_, statErr := os.Stat(screenshot)
	assert.NoError(t, statErr)
}

func TestExecuteWithROM_Cancelled(t *testing.T) {
	p := New(log.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ExecuteWithROM(ctx, drawDigitROM, options.Program{}, headlessOptions(10),
		chip8.ProfileModern, arch.CHIP8System)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCreateSoundSinks(t *testing.T) {
	p := New(log.NewTestLogger(t))
	mock := &mockBeeper{}
	p.newBeeper = func() (beeper, error) { return mock, nil }

	emuOpts := options.NewEmulator()
	sinks, closeSinks := p.createSoundSinks(options.Program{}, emuOpts)
	assert.Equal(t, 1, len(sinks))
	sinks[0].Sound(true, FrameDuration)
	assert.Equal(t, 1, mock.calls)

	assert.NoError(t, closeSinks())
	assert.True(t, mock.closed)
}

func TestCreateSoundSinks_AudioUnavailable(t *testing.T) {
	p := New(log.NewTestLogger(t))
	p.newBeeper = func() (beeper, error) { return nil, errors.New("no device") }

	sinks, closeSinks := p.createSoundSinks(options.Program{}, options.NewEmulator())
	assert.Equal(t, 0, len(sinks))
	assert.NoError(t, closeSinks())
}

func TestRunFrontend_Unsupported(t *testing.T) {
	p := New(log.NewTestLogger(t))
	emuOpts := headlessOptions(1)
	emuOpts.Frontend = "web"

	err := p.runFrontend(context.Background(), nil, options.Program{}, emuOpts)
	assert.ErrorContains(t, err, "unsupported frontend")
}
