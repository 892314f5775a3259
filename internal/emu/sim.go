// internal/emu/sim.go
package emu

// Emerald-style addresses synthesized by the sim. These mirror the layout the
// bridge's state reader expects: a saveblock pointer in IWRAM pointing at a
// player block in EWRAM.
const (
	SimSaveBlockPtrAddr uint32 = 0x03005D8C
	SimSaveBlockBase    uint32 = 0x02025A00
	SimBattleFlagAddr   uint32 = 0x030026F9
)

// Sim is an in-process stand-in for a running emulator. It implements
// Memory, Keypad and StateLoader over a tiny walkable overworld, so the
// bridge and its clients can run without mGBA attached.
//
// The overworld is a single 16x16 map (bank 0, map 9). Walking off the north
// edge warps to bank 0 / map 16 and off the west edge to bank 1 / map 0 —
// the two goal maps. Other borders clamp.
type Sim struct {
	x, y     uint16
	mapBank  uint8
	mapNum   uint8
	inBattle bool

	held     [NumKeys]bool
	prevHeld [NumKeys]bool

	// PtrOverride, when nonzero, is returned instead of the real saveblock
	// pointer. Tests use it to present a dangling pointer.
	PtrOverride uint32

	// FailLoads forces LoadStateFile to report failure.
	FailLoads bool

	// LoadCalls counts snapshot restores.
	LoadCalls int
}

const simMapSize = 16

// NewSim returns a sim positioned at the start of the overworld.
func NewSim() *Sim {
	s := &Sim{}
	s.restart()
	return s
}

func (s *Sim) restart() {
	s.x, s.y = 7, 7
	s.mapBank, s.mapNum = 0, 9
	s.inBattle = false
	s.held = [NumKeys]bool{}
	s.prevHeld = [NumKeys]bool{}
}

// Read8 implements Memory.
func (s *Sim) Read8(addr uint32) uint8 {
	switch addr {
	case SimBattleFlagAddr:
		if s.inBattle {
			return 1
		}
		return 0
	case SimSaveBlockBase + 4:
		return s.mapBank
	case SimSaveBlockBase + 5:
		return s.mapNum
	}
	return 0
}

// Read16 implements Memory.
func (s *Sim) Read16(addr uint32) uint16 {
	switch addr {
	case SimSaveBlockBase:
		return s.x
	case SimSaveBlockBase + 2:
		return s.y
	}
	return 0
}

// Read32 implements Memory.
func (s *Sim) Read32(addr uint32) uint32 {
	if addr == SimSaveBlockPtrAddr {
		if s.PtrOverride != 0 {
			return s.PtrOverride
		}
		return SimSaveBlockBase
	}
	return 0
}

// Press implements Keypad.
func (s *Sim) Press(k Key) {
	if int(k) < NumKeys {
		s.held[k] = true
	}
}

// Release implements Keypad.
func (s *Sim) Release(k Key) {
	if int(k) < NumKeys {
		s.held[k] = false
	}
}

// Held reports whether the key is currently asserted.
func (s *Sim) Held(k Key) bool {
	return int(k) < NumKeys && s.held[k]
}

// SetInBattle toggles the synthesized battle flag.
func (s *Sim) SetInBattle(v bool) { s.inBattle = v }

// LoadStateFile implements StateLoader by restoring the start position.
func (s *Sim) LoadStateFile(path string) bool {
	s.LoadCalls++
	if path == "" || s.FailLoads {
		return false
	}
	s.restart()
	return true
}

// Advance runs one emulated frame: direction keys move the player one tile
// on the frame they transition from released to held, matching a game that
// debounces continuous input. Warps apply when walking off an exit edge.
func (s *Sim) Advance() {
	type move struct {
		key    Key
		dx, dy int
	}
	for _, m := range []move{
		{KeyUp, 0, -1}, {KeyDown, 0, 1}, {KeyLeft, -1, 0}, {KeyRight, 1, 0},
	} {
		if s.held[m.key] && !s.prevHeld[m.key] {
			s.step(m.dx, m.dy)
		}
	}
	s.prevHeld = s.held
}

func (s *Sim) step(dx, dy int) {
	nx := int(s.x) + dx
	ny := int(s.y) + dy

	// Exit edges warp to the goal maps.
	if ny < 0 && s.mapBank == 0 && s.mapNum == 9 {
		s.mapBank, s.mapNum = 0, 16
		s.x, s.y = 7, simMapSize-1
		return
	}
	if nx < 0 && s.mapBank == 0 && s.mapNum == 9 {
		s.mapBank, s.mapNum = 1, 0
		s.x, s.y = simMapSize-1, 7
		return
	}

	if nx < 0 {
		nx = 0
	}
	if ny < 0 {
		ny = 0
	}
	if nx >= simMapSize {
		nx = simMapSize - 1
	}
	if ny >= simMapSize {
		ny = simMapSize - 1
	}
	s.x, s.y = uint16(nx), uint16(ny)
}
