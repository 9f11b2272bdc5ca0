package canvas

import "fmt"

// Mode is the active tool.
type Mode int

const (
	ModeDraw Mode = iota
	ModeSelect
	ModePan
	ModeZoom
	ModeErase
)

var modeNames = [...]string{"draw", "select", "pan", "zoom", "erase"}

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeDraw, ModeSelect, ModePan, ModeZoom, ModeErase}
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a tool name to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
