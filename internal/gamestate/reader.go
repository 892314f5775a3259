// internal/gamestate/reader.go
package gamestate

import "emerald-bridge/internal/emu"

// Pokémon Emerald overworld addresses. The saveblock pointer lives in IWRAM
// and points at a player block allocated in working RAM; its value is only
// trusted when it falls inside the EWRAM interval below.
const (
	saveBlockPtrAddr uint32 = 0x03005D8C
	battleFlagAddr   uint32 = 0x030026F9

	ewramStart uint32 = 0x02000000
	ewramEnd   uint32 = 0x0203FFFF

	offCoordX  uint32 = 0x00 // u16
	offCoordY  uint32 = 0x02 // u16
	offMapBank uint32 = 0x04 // u8
	offMapNum  uint32 = 0x05 // u8
)

// Location is a snapshot of the player's overworld position. Values are
// reported verbatim from game memory; (0,0,0,0) is a legal in-game location,
// so absence is signalled out of band, never by a zero value.
type Location struct {
	X       uint16
	Y       uint16
	MapBank uint8
	MapNum  uint8
}

// Reader pulls structured overworld facts out of raw emulator memory.
type Reader struct {
	mem emu.Memory
}

// NewReader returns a Reader over the given memory source.
func NewReader(mem emu.Memory) *Reader {
	return &Reader{mem: mem}
}

// Location chases the saveblock pointer and reads the four position fields.
// It returns ok=false when the pointer falls outside EWRAM — during resets
// and map loads the pointer holds garbage, and a garbage pointer must never
// be dereferenced.
func (r *Reader) Location() (Location, bool) {
	base := r.mem.Read32(saveBlockPtrAddr)
	if base < ewramStart || base > ewramEnd {
		return Location{}, false
	}
	return Location{
		X:       r.mem.Read16(base + offCoordX),
		Y:       r.mem.Read16(base + offCoordY),
		MapBank: r.mem.Read8(base + offMapBank),
		MapNum:  r.mem.Read8(base + offMapNum),
	}, true
}

// InBattle reads the battle flag byte. The address is statically mapped, so
// no validity gate is needed.
func (r *Reader) InBattle() bool {
	return r.mem.Read8(battleFlagAddr) != 0
}
