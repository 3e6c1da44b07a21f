// Package wavwriter records the beeper output to a WAV file. The audio data is
// buffered in memory in its entirety and written to disk on Close.
package wavwriter

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Audio format of the written file.
const (
	SampleRate = 22050
	BitDepth   = 8
	Frequency  = 440 // tone of the beeper in Hz

	channels       = 1
	pcmAudioFormat = 1
	amplitude      = 48 // distance from the 8-bit silence level
	silence        = 128
)

// WavWriter collects 8-bit mono samples of the beeper.
type WavWriter struct {
	filename string
	samples  []int

	phase     float64       // position inside the current square wave period
	remainder time.Duration // time not yet converted to a sample
}

// New returns a writer that saves to the given file on Close.
func New(filename string) *WavWriter {
	return &WavWriter{
		filename: filename,
	}
}

// Sound appends the samples for the elapsed time, a square wave while the
// beeper is on and silence otherwise.
func (w *WavWriter) Sound(on bool, elapsed time.Duration) {
	sampleDuration := time.Second / SampleRate
	w.remainder += elapsed
	count := int(w.remainder / sampleDuration)
	w.remainder -= time.Duration(count) * sampleDuration

	step := float64(Frequency) / SampleRate
	for range count {
		sample := silence
		if on {
			if w.phase < 0.5 {
				sample += amplitude
			} else {
				sample -= amplitude
			}
		}
		w.samples = append(w.samples, sample)

		w.phase += step
		if w.phase >= 1 {
			w.phase--
		}
	}
}

// Samples returns the number of buffered samples.
func (w *WavWriter) Samples() int {
	return len(w.samples)
}

// Close encodes all buffered samples and writes the WAV file.
func (w *WavWriter) Close() (rerr error) {
	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavwriter: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, SampleRate, BitDepth, channels, pcmAudioFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  SampleRate,
		},
		Data:           w.samples,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavwriter: encoding samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavwriter: finishing file: %w", err)
	}
	return nil
}
