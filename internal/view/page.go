// Package view is the binding layer between the session controller and the
// rendered page. The controller mutates a Page value; a View paints it. The
// browser renderer in internal/web and the test recorders both implement View,
// so controller logic never touches a live document.
package view

import (
	"fmt"
	"strconv"

	"github.com/pefman/pokedex-duel/internal/models"
)

// MoveSlots is the fixed number of move buttons on a card.
const MoveSlots = 4

// LowHealthPercent is the bar width below which low-health styling applies.
const LowHealthPercent = 20.0

// Titles shown in the page header.
const (
	TitlePokedex = "Your Pokedex"
	TitleBattle  = "Pokemon Battle Mode!"
	TitleWon     = "You Won!"
	TitleLost    = "You Lost!"
)

// View paints page snapshots.
type View interface {
	Render(Page)
}

// ViewFunc adapts a function to View.
type ViewFunc func(Page)

func (f ViewFunc) Render(p Page) { f(p) }

// Assets resolves service-relative image references.
type Assets interface {
	AssetURL(path string) string
	MoveIconURL(moveType string) string
}

type MoveSlot struct {
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	DP      string `json:"dp"`
	Hidden  bool   `json:"hidden"`
	Enabled bool   `json:"enabled"`
}

// Card is the rendered detail panel for one combatant.
type Card struct {
	Visible      bool                `json:"visible"`
	Name         string              `json:"name"`
	Photo        string              `json:"photo"`
	TypeIcon     string              `json:"typeIcon"`
	WeaknessIcon string              `json:"weaknessIcon"`
	HP           string              `json:"hp"`
	Description  string              `json:"description"`
	Moves        [MoveSlots]MoveSlot `json:"moves"`
}

// Filled reports whether a detail record has been loaded into the card.
func (c Card) Filled() bool { return c.Name != "" }

type HealthBar struct {
	Width float64 `json:"width"` // percent
	Low   bool    `json:"low"`
}

// Marker is a buff or debuff indicator.
type Marker struct {
	Kind  string `json:"kind"` // "buff" or "debuff"
	Label string `json:"label"`
}

type Sprite struct {
	ID    string `json:"id"`
	File  string `json:"file"`
	Found bool   `json:"found"`
}

type TurnText struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Page is the complete visual state of the single-page UI.
// Index 0 of the paired arrays is the player, index 1 the opponent.
type Page struct {
	State          string       `json:"state"`
	Title          string       `json:"title"`
	RosterVisible  bool         `json:"rosterVisible"`
	Sprites        []Sprite     `json:"sprites"`
	StartVisible   bool         `json:"startVisible"`
	Player         Card         `json:"player"`
	Opponent       Card         `json:"opponent"`
	HPInfoVisible  bool         `json:"hpInfoVisible"`
	Bars           [2]HealthBar `json:"bars"`
	BuffsVisible   bool         `json:"buffsVisible"`
	Buffs          [2][]Marker  `json:"buffs"`
	ResultsVisible bool         `json:"resultsVisible"`
	Results        [2]TurnText  `json:"results"`
	FleeVisible    bool         `json:"fleeVisible"`
	FleeEnabled    bool         `json:"fleeEnabled"`
	Loading        bool         `json:"loading"`
	EndgameVisible bool         `json:"endgameVisible"`
	Error          string       `json:"error,omitempty"`
}

// Clone returns a copy that shares no slices with p.
func (p Page) Clone() Page {
	out := p
	out.Sprites = append([]Sprite(nil), p.Sprites...)
	for i := range p.Buffs {
		out.Buffs[i] = append([]Marker(nil), p.Buffs[i]...)
	}
	return out
}

// NewCard projects a detail record. Slots beyond the record's moves are hidden;
// every slot starts disabled.
func NewCard(p models.Pokemon, assets Assets) Card {
	c := Card{
		Name:         p.Name,
		Photo:        assets.AssetURL(p.Images.Photo),
		TypeIcon:     assets.AssetURL(p.Images.TypeIcon),
		WeaknessIcon: assets.AssetURL(p.Images.WeaknessIcon),
		HP:           HPText(p.HP),
		Description:  p.Info.Description,
	}
	for i := 0; i < MoveSlots; i++ {
		if i >= len(p.Moves) {
			c.Moves[i] = MoveSlot{Hidden: true}
			continue
		}
		m := p.Moves[i]
		slot := MoveSlot{Name: m.Name, Icon: assets.MoveIconURL(m.Type)}
		if m.DP != 0 {
			slot.DP = strconv.Itoa(m.DP) + "DP"
		}
		c.Moves[i] = slot
	}
	return c
}

// SetMovesEnabled toggles every visible move button.
func (c *Card) SetMovesEnabled(enabled bool) {
	for i := range c.Moves {
		c.Moves[i].Enabled = enabled && !c.Moves[i].Hidden
	}
}

func HPText(hp int) string { return strconv.Itoa(hp) + "HP" }

// Bar computes an HP bar for current out of max.
func Bar(current, max int) HealthBar {
	if max <= 0 {
		return HealthBar{Width: 0, Low: true}
	}
	width := 100 * float64(current) / float64(max)
	return HealthBar{Width: width, Low: width < LowHealthPercent}
}

func FullBar() HealthBar { return HealthBar{Width: 100} }

// Markers builds the indicator list for one side: buffs first, then debuffs.
func Markers(buffs, debuffs []string) []Marker {
	out := make([]Marker, 0, len(buffs)+len(debuffs))
	for _, b := range buffs {
		out = append(out, Marker{Kind: "buff", Label: b})
	}
	for _, d := range debuffs {
		out = append(out, Marker{Kind: "debuff", Label: d})
	}
	return out
}

// TurnLine formats one side's move outcome. player is 1 or 2.
func TurnLine(player int, move, result string) string {
	return fmt.Sprintf("Player %d played %s and %s!", player, move, result)
}
