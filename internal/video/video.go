// Package video implements the window frontend based on ebiten.
package video

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/emulator"
	"github.com/retroenv/retrochip8/internal/input"
	"github.com/retroenv/retrochip8/internal/screen"
	"github.com/retroenv/retrogolib/log"
)

// Runner is the emulation driven by the window.
type Runner interface {
	Advance(elapsed time.Duration) error
	Machine() *chip8.Machine
}

// Game implements the ebiten.Game interface.
type Game struct {
	logger  *log.Logger
	runner  Runner
	tracker *input.Tracker

	pixels []byte
	image  *ebiten.Image

	now        func() time.Time
	lastUpdate time.Time
	err        error // emulation error that stopped the game
}

// New returns a game for the runner.
func New(logger *log.Logger, runner Runner) *Game {
	return &Game{
		logger:  logger,
		runner:  runner,
		tracker: input.NewTracker(),
		pixels:  make([]byte, 4*chip8.Width*chip8.Height),
		now:     time.Now,
	}
}

// Run opens the window and blocks until it is closed or the emulation stops.
func (g *Game) Run(title string, scale int) error {
	ebiten.SetWindowSize(chip8.Width*scale, chip8.Height*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	return g.err
}

// Update advances the emulation by the time passed since the last update.
func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.tracker.Update(input.PressedEbitenKeys(), g.runner.Machine())
	return g.advance()
}

func (g *Game) advance() error {
	now := g.now()
	elapsed := time.Second / time.Duration(ebiten.TPS())
	if !g.lastUpdate.IsZero() {
		elapsed = now.Sub(g.lastUpdate)
	}
	g.lastUpdate = now

	if err := g.runner.Advance(elapsed); err != nil {
		if errors.Is(err, emulator.ErrHalted) {
			g.err = err
			return ebiten.Termination
		}
		return err
	}
	return nil
}

// Draw renders the framebuffer.
func (g *Game) Draw(dst *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(chip8.Width, chip8.Height)
	}

	screen.RGBA(g.runner.Machine().Framebuffer(), g.pixels)
	g.image.WritePixels(g.pixels)
	dst.DrawImage(g.image, nil)
}

// Layout returns the logical screen size, ebiten scales it to the window.
func (g *Game) Layout(_, _ int) (int, int) {
	return chip8.Width, chip8.Height
}
