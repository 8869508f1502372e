package models

// ========================= Wire Models =========================
// Shapes returned by the remote game service. The controller maps these into
// view cards; nothing here is validated beyond JSON decoding.

// RosterEntry is one line of the pokedex listing: species name and sprite file.
type RosterEntry struct {
	ID     string `json:"id"`
	Sprite string `json:"sprite"`
}

type Images struct {
	Photo        string `json:"photo"`
	TypeIcon     string `json:"typeIcon"`
	WeaknessIcon string `json:"weaknessIcon"`
}

type Info struct {
	Description string `json:"description"`
}

type Move struct {
	Name string `json:"name"`
	Type string `json:"type"`
	DP   int    `json:"dp,omitempty"` // 0 when the move has no damage value
}

// Pokemon is the detail record returned for a single species.
type Pokemon struct {
	Name   string `json:"name"`
	Images Images `json:"images"`
	HP     int    `json:"hp"`
	Info   Info   `json:"info"`
	Moves  []Move `json:"moves"`
}

// GameStart is the reply to a battle-creation request.
type GameStart struct {
	GUID string  `json:"guid"`
	PID  string  `json:"pid"`
	P2   Pokemon `json:"p2"`
}

// Combatant is one side's state after a turn.
type Combatant struct {
	CurrentHP int      `json:"current-hp"`
	HP        int      `json:"hp"`
	Buffs     []string `json:"buffs"`
	Debuffs   []string `json:"debuffs"`
}

type TurnResults struct {
	P1Move   string `json:"p1-move"`
	P1Result string `json:"p1-result"`
	P2Move   string `json:"p2-move"`
	P2Result string `json:"p2-result"`
}

// TurnResult is the reply to a move (or flee) request.
type TurnResult struct {
	GUID    string      `json:"guid"`
	P1      Combatant   `json:"p1"`
	P2      Combatant   `json:"p2"`
	Results TurnResults `json:"results"`
}

// Over reports whether either side has been knocked out.
func (t TurnResult) Over() bool {
	return t.P1.CurrentHP < 1 || t.P2.CurrentHP < 1
}
