// Package input maps host keyboards to the CHIP-8 hexadecimal keypad.
//
// The keypad is laid out on the left side of a QWERTY keyboard:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   =>   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
package input

import (
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrogolib/set"
)

// Keypad receives key transitions.
type Keypad interface {
	Press(key byte)
	Release(key byte)
}

var runeKeys = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// EbitenKeys maps window keyboard keys to keypad keys.
var EbitenKeys = map[ebiten.Key]byte{
	ebiten.Key1: 0x1, ebiten.Key2: 0x2, ebiten.Key3: 0x3, ebiten.Key4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

// KeyForRune returns the keypad key for a typed character.
func KeyForRune(r rune) (byte, bool) {
	key, ok := runeKeys[unicode.ToLower(r)]
	return key, ok
}

// Tracker turns snapshots of held keys into press and release transitions.
type Tracker struct {
	held set.Set[byte]
}

// NewTracker returns a tracker with no keys held.
func NewTracker() *Tracker {
	return &Tracker{
		held: set.New[byte](),
	}
}

// Update compares the currently held keys with the previous snapshot and
// forwards every change to the keypad. Releases are sent before presses.
func (t *Tracker) Update(held set.Set[byte], pad Keypad) {
	for key := range byte(16) {
		if t.held.Contains(key) && !held.Contains(key) {
			pad.Release(key)
		}
	}
	for key := range byte(16) {
		if held.Contains(key) && !t.held.Contains(key) {
			pad.Press(key)
		}
	}

	t.held = set.New[byte]()
	for key := range held {
		t.held.Add(key)
	}
}

// Held returns whether the key was held in the last snapshot.
func (t *Tracker) Held(key byte) bool {
	return t.held.Contains(key)
}

// PressedEbitenKeys returns the keypad keys currently held in the window.
func PressedEbitenKeys() set.Set[byte] {
	held := set.New[byte]()
	for hostKey, key := range EbitenKeys {
		if ebiten.IsKeyPressed(hostKey) {
			held.Add(key)
		}
	}
	return held
}
