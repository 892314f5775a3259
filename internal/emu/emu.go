// internal/emu/emu.go
package emu

// Key identifies a GBA keypad button. Values follow the bit order of the
// console's KEYINPUT register.
type Key uint8

const (
	KeyA Key = iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL

	NumKeys = 10
)

// AllKeys lists every keypad button, in KEYINPUT bit order.
var AllKeys = [NumKeys]Key{
	KeyA, KeyB, KeySelect, KeyStart, KeyRight,
	KeyLeft, KeyUp, KeyDown, KeyR, KeyL,
}

var keyNames = [NumKeys]string{
	"A", "B", "SELECT", "START", "RIGHT",
	"LEFT", "UP", "DOWN", "R", "L",
}

// String returns the protocol-facing name of the key.
func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "UNKNOWN"
}

// Memory provides raw access to the emulated console's address space.
// Addresses are absolute. Implementations perform no bounds checking; callers
// are responsible for validating pointers before chasing them.
type Memory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
}

// Keypad is the input sink for the emulated console. A pressed key stays
// held until released. Both calls are idempotent: pressing a held key or
// releasing an idle key is a no-op.
type Keypad interface {
	Press(k Key)
	Release(k Key)
}

// StateLoader restores a persisted emulator snapshot. The format of the
// snapshot file is owned by the emulator; the bridge only passes the path
// through and checks the result.
type StateLoader interface {
	LoadStateFile(path string) bool
}
