package input

// Action is the discrete choice an agent issues each step
type Action int

const (
	// ActionCancel presses Esc. Declared for menus, never offered to agents.
	ActionCancel Action = -1
	// ActionFire holds the shot button without moving
	ActionFire Action = 0
)

// commands is immutable after init. Ids 1..8 move while firing, 9..17 add
// focus (slow movement) to the 0..8 set.
var commands = map[Action][]ScanCode{
	ActionCancel: {ScanEsc},
	0:            {ScanZ},
	1:            {ScanZ, ScanLeft},
	2:            {ScanZ, ScanUp},
	3:            {ScanZ, ScanRight},
	4:            {ScanZ, ScanDown},
	5:            {ScanZ, ScanLeft, ScanUp},
	6:            {ScanZ, ScanUp, ScanRight},
	7:            {ScanZ, ScanRight, ScanDown},
	8:            {ScanZ, ScanDown, ScanLeft},
	9:            {ScanLShift, ScanZ},
	10:           {ScanLShift, ScanZ, ScanLeft},
	11:           {ScanLShift, ScanZ, ScanUp},
	12:           {ScanLShift, ScanZ, ScanRight},
	13:           {ScanLShift, ScanZ, ScanDown},
	14:           {ScanLShift, ScanZ, ScanLeft, ScanUp},
	15:           {ScanLShift, ScanZ, ScanUp, ScanRight},
	16:           {ScanLShift, ScanZ, ScanRight, ScanDown},
	17:           {ScanLShift, ScanZ, ScanDown, ScanLeft},
}

// ActionSpaceSize is the number of actions offered to agents (ids 0..17)
func ActionSpaceSize() int {
	return len(commands) - 1
}

// KeysFor returns the keys held for an action. Unknown ids return false.
func KeysFor(a Action) ([]ScanCode, bool) {
	keys, ok := commands[a]
	if !ok {
		return nil, false
	}
	out := make([]ScanCode, len(keys))
	copy(out, keys)
	return out, true
}

// Valid reports whether a is part of the agent-facing action space
func (a Action) Valid() bool {
	return a >= 0 && int(a) < ActionSpaceSize()
}
