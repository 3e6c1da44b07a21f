// Package terminal implements a text frontend that runs inside a terminal.
//
// Terminals only report typed characters and no key releases, every keystroke
// is therefore handled as a key press that is released after a hold time.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/input"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// KeyHoldTime is the time a typed key stays pressed.
const KeyHoldTime = 150 * time.Millisecond

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1B

	frameRate = 60

	escClearScreen = "\x1b[2J"
	escCursorHome  = "\x1b[H"
	escHideCursor  = "\x1b[?25l"
	escShowCursor  = "\x1b[?25h"
)

// ErrNotTerminal is returned when stdin is not an interactive terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Runner is the emulation driven by the terminal.
type Runner interface {
	Advance(elapsed time.Duration) error
	Machine() *chip8.Machine
}

// Terminal renders the display as half block characters and feeds typed
// keys into the keypad.
type Terminal struct {
	logger *log.Logger
	runner Runner
	out    io.Writer

	releaseAt [chip8.KeyCount]time.Time
}

// New returns a terminal frontend writing to stdout.
func New(logger *log.Logger, runner Runner) *Terminal {
	return &Terminal{
		logger: logger,
		runner: runner,
		out:    os.Stdout,
	}
}

// Run switches the terminal into raw mode and runs the emulation until the
// user quits, the context is cancelled or the emulation halts.
func (t *Terminal) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting terminal raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	_, _ = io.WriteString(t.out, escHideCursor+escClearScreen)
	defer func() { _, _ = io.WriteString(t.out, escShowCursor+"\r\n") }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte, 64)
	go readKeys(ctx, os.Stdin, keys)

	return t.loop(ctx, keys)
}

func (t *Terminal) loop(ctx context.Context, keys <-chan byte) error {
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case b, ok := <-keys:
			if !ok || t.handleKey(b, time.Now()) {
				return nil
			}

		case now := <-ticker.C:
			t.releaseExpired(now)

			err := t.runner.Advance(now.Sub(last))
			last = now
			if err := t.render(); err != nil {
				return err
			}
			if err != nil {
				return err
			}
		}
	}
}

// handleKey presses the keypad key of a typed character and returns whether
// the user requested to quit.
func (t *Terminal) handleKey(b byte, now time.Time) bool {
	if b == keyCtrlC || b == keyEscape {
		return true
	}

	key, ok := input.KeyForRune(rune(b))
	if !ok {
		return false
	}
	t.runner.Machine().Press(key)
	t.releaseAt[key] = now.Add(KeyHoldTime)
	return false
}

// releaseExpired releases all keys whose hold time has passed.
func (t *Terminal) releaseExpired(now time.Time) {
	m := t.runner.Machine()
	for key, at := range t.releaseAt {
		if at.IsZero() || now.Before(at) {
			continue
		}
		m.Release(byte(key))
		t.releaseAt[key] = time.Time{}
	}
}

func (t *Terminal) render() error {
	if _, err := io.WriteString(t.out, escCursorHome+Render(t.runner.Machine().Framebuffer())); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Render returns the framebuffer as text, every character covers two rows
// of pixels. Lines are terminated with CR LF for raw mode terminals.
func Render(fb *chip8.Framebuffer) string {
	var sb strings.Builder
	for y := 0; y < chip8.Height; y += 2 {
		for x := range chip8.Width {
			top, bottom := fb.Pixel(x, y), fb.Pixel(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// readKeys forwards every byte read from r until the reader fails or the
// context is cancelled. A read that is blocked on stdin when the context is
// cancelled only returns with the next keystroke or at process exit.
func readKeys(ctx context.Context, r io.Reader, keys chan<- byte) {
	defer close(keys)

	reader := bufio.NewReader(r)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		select {
		case keys <- b:
		case <-ctx.Done():
			return
		}
	}
}
