package chip8

// KeyCount is the number of keys on the hexadecimal keypad.
const KeyCount = 16

type keypad struct {
	keys [KeyCount]bool

	// latch holds the last key pressed since the previous tick
	latch   byte
	latched bool
}

// takeLatch returns the key pressed since the previous tick and clears the latch.
func (k *keypad) takeLatch() (byte, bool) {
	key, ok := k.latch, k.latched
	k.latch, k.latched = 0, false
	return key, ok
}

// Press marks the key as held down and latches it as pressed for the next tick.
// Keys outside of 0x0-0xF are ignored.
func (m *Machine) Press(key byte) {
	if key >= KeyCount {
		return
	}
	m.keypad.keys[key] = true
	m.keypad.latch = key
	m.keypad.latched = true
}

// Release marks the key as no longer held down.
func (m *Machine) Release(key byte) {
	if key >= KeyCount {
		return
	}
	m.keypad.keys[key] = false
}

// KeyPressed returns whether the key is currently held down.
func (m *Machine) KeyPressed(key byte) bool {
	if key >= KeyCount {
		return false
	}
	return m.keypad.keys[key]
}
