package session

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is the controller lifecycle position.
type State int

const (
	Loading State = iota // roster not yet received
	Browsing
	Selected
	Battling
	Ended
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Browsing:
		return "browsing"
	case Selected:
		return "selected"
	case Battling:
		return "battling"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// FleeMove is the move name the service treats as forfeiting.
const FleeMove = "flee"

// NormalizeMove turns a button label into the service's move name:
// lower-cased with all whitespace removed ("Vine Whip" -> "vinewhip").
func NormalizeMove(label string) string {
	// Casers are stateful, so each call gets its own.
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(label)), "")
}
