package video

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type mockRunner struct {
	machine *chip8.Machine
	elapsed []time.Duration
	err     error
}

func (r *mockRunner) Advance(elapsed time.Duration) error {
	r.elapsed = append(r.elapsed, elapsed)
	return r.err
}

func (r *mockRunner) Machine() *chip8.Machine {
	return r.machine
}

func newTestGame(t *testing.T, runner *mockRunner) (*Game, *time.Time) {
	t.Helper()

	m, err := chip8.New(log.NewTestLogger(t), chip8.DefaultConfig())
	assert.NoError(t, err)
	runner.machine = m

	now := time.Unix(1000, 0)
	g := New(log.NewTestLogger(t), runner)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestLayout(t *testing.T) {
	g, _ := newTestGame(t, &mockRunner{})
	w, h := g.Layout(640, 480)
	assert.Equal(t, chip8.Width, w)
	assert.Equal(t, chip8.Height, h)
}

func TestAdvance_Elapsed(t *testing.T) {
	runner := &mockRunner{}
	g, now := newTestGame(t, runner)

	assert.NoError(t, g.advance())
	*now = now.Add(20 * time.Millisecond)
	assert.NoError(t, g.advance())

	assert.Equal(t, 2, len(runner.elapsed))
	assert.Equal(t, time.Second/time.Duration(ebiten.TPS()), runner.elapsed[0])
	assert.Equal(t, 20*time.Millisecond, runner.elapsed[1])
}

func TestAdvance_Halted(t *testing.T) {
	halt := fmt.Errorf("%w: crashed", emulator.ErrHalted)
	g, _ := newTestGame(t, &mockRunner{err: halt})

	err := g.advance()
	assert.True(t, errors.Is(err, ebiten.Termination))
	assert.True(t, errors.Is(g.err, emulator.ErrHalted))
}

func TestAdvance_OtherError(t *testing.T) {
	failure := errors.New("failure")
	g, _ := newTestGame(t, &mockRunner{err: failure})

	err := g.advance()
	assert.True(t, errors.Is(err, failure))
	assert.Nil(t, g.err)
}
