package emulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

const frame = time.Second / 60

type recordingSink struct {
	calls   int
	on      int
	elapsed time.Duration
}

func (s *recordingSink) Sound(on bool, elapsed time.Duration) {
	s.calls++
	if on {
		s.on++
	}
	s.elapsed += elapsed
}

func newTestRunner(t *testing.T, opts Options, program ...uint16) (*Runner, *recordingSink) {
	t.Helper()

	cfg := chip8.DefaultConfig()
	cfg.InstructionsPerSecond = 600
	m, err := chip8.New(log.NewTestLogger(t), cfg)
	assert.NoError(t, err)

	rom := make([]byte, 0, len(program)*2)
	for _, word := range program {
		rom = append(rom, byte(word>>8), byte(word))
	}
	assert.NoError(t, m.LoadProgram(rom))

	sink := &recordingSink{}
	return New(log.NewTestLogger(t), m, opts, sink), sink
}

func TestParseFaultPolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected FaultPolicy
		wantErr  bool
	}{
		{"", FaultHalt, false},
		{"halt", FaultHalt, false},
		{"Skip", FaultSkip, false},
		{"reset", FaultReset, false},
		{"ignore", "", true},
	}

	for _, tt := range tests {
		policy, err := ParseFaultPolicy(tt.input)
		if tt.wantErr {
			assert.ErrorContains(t, err, "unsupported fault policy")
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, policy)
	}
}

func TestAdvance_RunsConfiguredRate(t *testing.T) {
	// 7001: V0 += 1, 1200: loop
	r, sink := newTestRunner(t, Options{Seed: 1}, 0x7001, 0x1200)

	assert.NoError(t, r.Advance(frame))
	// 600 instructions per second result in 10 per frame
	assert.Equal(t, 10, r.Cycles())
	assert.Equal(t, byte(5), r.Machine().Register(0))
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, frame, sink.elapsed)
}

func TestAdvance_CarriesRemainder(t *testing.T) {
	r, _ := newTestRunner(t, Options{Seed: 1}, 0x1200)
	period := time.Second / 600

	assert.NoError(t, r.Advance(period/2))
	assert.Equal(t, 0, r.Cycles())
	assert.NoError(t, r.Advance(period/2+1))
	assert.Equal(t, 1, r.Cycles())
}

func TestAdvance_DropsStalledHostTime(t *testing.T) {
	r, sink := newTestRunner(t, Options{Seed: 1}, 0x1200)

	// a 10 second host stall runs at most one backlog worth of instructions
	assert.NoError(t, r.Advance(10*time.Second))
	maxCycles := int(MaxBacklog / (time.Second / 600))
	assert.Equal(t, maxCycles, r.Cycles())
	assert.Equal(t, 10*time.Second, sink.elapsed)

	// the dropped time is not delivered later
	assert.NoError(t, r.Advance(frame))
	assert.Equal(t, maxCycles+10, r.Cycles())
}

func TestAdvance_SoundSink(t *testing.T) {
	// V0 := 2, ST := V0, loop
	r, sink := newTestRunner(t, Options{Seed: 1}, 0x6002, 0xF018, 0x1204)

	assert.NoError(t, r.Advance(frame))
	assert.Equal(t, 1, sink.on)

	for range 5 {
		assert.NoError(t, r.Advance(frame))
	}
	assert.Equal(t, 6, sink.calls)
	assert.True(t, sink.on < sink.calls)
	assert.False(t, r.Machine().ShouldPlaySound())
}

func TestFaultPolicies(t *testing.T) {
	t.Run("halt", func(t *testing.T) {
		r, _ := newTestRunner(t, Options{Fault: FaultHalt, Seed: 1}, 0x00EE)

		err := r.Advance(frame)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrHalted))
		assert.True(t, errors.Is(err, chip8.ErrPopEmptyStack))
		assert.Equal(t, 1, r.Cycles())
		assert.Equal(t, 1, r.Faults())

		// further advances keep reporting the halt
		assert.True(t, errors.Is(r.Advance(frame), ErrHalted))
		assert.Equal(t, 1, r.Cycles())
		assert.NotNil(t, r.Halted())
	})

	t.Run("skip", func(t *testing.T) {
		// invalid, V0 := 7, loop
		r, _ := newTestRunner(t, Options{Fault: FaultSkip, Seed: 1}, 0xF0FF, 0x6007, 0x1204)

		assert.NoError(t, r.Advance(frame))
		assert.Equal(t, 1, r.Faults())
		assert.Equal(t, byte(7), r.Machine().Register(0))
		assert.Nil(t, r.Halted())
	})

	t.Run("reset", func(t *testing.T) {
		// V0 += 1, then invalid
		r, _ := newTestRunner(t, Options{Fault: FaultReset, Seed: 1}, 0x7001, 0xF0FF)

		assert.NoError(t, r.Advance(frame))
		assert.True(t, r.Faults() > 0)
		assert.True(t, r.Machine().Register(0) <= 1)
		assert.Nil(t, r.Halted())
	})
}

func TestAdvance_RecoversStackOverflow(t *testing.T) {
	// 2200: call itself forever
	r, _ := newTestRunner(t, Options{Seed: 1}, 0x2200)

	var err error
	for range 200 {
		if err = r.Advance(frame); err != nil {
			break
		}
	}
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrHalted))
	assert.ErrorContains(t, err, "stack overflow")
	assert.Equal(t, chip8.StackSlots, r.Machine().StackDepth())
}

func TestRunFrames(t *testing.T) {
	r, _ := newTestRunner(t, Options{Seed: 1}, 0x7001, 0x1200)

	assert.NoError(t, r.RunFrames(context.Background(), 6, frame))
	assert.Equal(t, 60, r.Cycles())
}

func TestRunFrames_Cancelled(t *testing.T) {
	r, _ := newTestRunner(t, Options{Seed: 1}, 0x1200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RunFrames(ctx, 10, frame)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, r.Cycles())
}

func TestSeedIsDeterministic(t *testing.T) {
	// V0..V3 := random bytes, loop
	program := []uint16{0xC0FF, 0xC1FF, 0xC2FF, 0xC3FF, 0x1200}

	run := func(seed uint64) [4]byte {
		r, _ := newTestRunner(t, Options{Seed: seed}, program...)
		assert.NoError(t, r.RunFrames(context.Background(), 3, frame))
		m := r.Machine()
		return [4]byte{m.Register(0), m.Register(1), m.Register(2), m.Register(3)}
	}

	assert.Equal(t, run(42), run(42))
}
