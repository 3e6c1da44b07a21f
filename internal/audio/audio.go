// Package audio plays the CHIP-8 beeper on the host sound device.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Beeper tone parameters.
const (
	SampleRate = 44100
	Frequency  = 440
	Volume     = 0.15
)

// SquareWave is an endless mono float32 square wave stream that is silent
// while its gate is closed.
type SquareWave struct {
	gate  atomic.Bool
	phase float64
	step  float64
}

// NewSquareWave returns a closed square wave generator.
func NewSquareWave(sampleRate, frequency int) *SquareWave {
	return &SquareWave{
		step: float64(frequency) / float64(sampleRate),
	}
}

// SetGate opens or closes the gate.
func (s *SquareWave) SetGate(on bool) {
	s.gate.Store(on)
}

// Read implements io.Reader and fills p with little endian float32 samples.
func (s *SquareWave) Read(p []byte) (int, error) {
	on := s.gate.Load()
	n := len(p) / 4

	for i := range n {
		var sample float32
		if on {
			sample = Volume
			if s.phase >= 0.5 {
				sample = -Volume
			}
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))

		s.phase += s.step
		if s.phase >= 1 {
			s.phase--
		}
	}
	return n * 4, nil
}

// Beeper outputs the square wave through an oto player.
type Beeper struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *SquareWave
}

// New opens the host audio device and starts the silent beeper stream.
func New() (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	wave := NewSquareWave(SampleRate, Frequency)
	player := ctx.NewPlayer(wave)
	player.Play()

	return &Beeper{
		ctx:    ctx,
		player: player,
		wave:   wave,
	}, nil
}

// Sound implements the emulator sound sink.
func (b *Beeper) Sound(on bool, _ time.Duration) {
	b.wave.SetGate(on)
}

// Close stops the playback.
func (b *Beeper) Close() error {
	b.wave.SetGate(false)
	if err := b.player.Close(); err != nil {
		return fmt.Errorf("closing audio player: %w", err)
	}
	return nil
}
