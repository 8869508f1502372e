package session

import (
	"github.com/pefman/pokedex-duel/internal/models"
	"github.com/pefman/pokedex-duel/internal/view"
)

// Msg is anything the controller loop consumes.
type Msg interface{ isSessionMsg() }

// Select picks a roster entry for the player's card.
type Select struct{ Name string }

// Start opens a battle with the selected species.
type Start struct{}

// Move plays the move shown in the given slot of the player's card.
type Move struct{ Slot int }

// Flee forfeits the battle.
type Flee struct{}

// Acknowledge dismisses the end-of-battle screen.
type Acknowledge struct{}

// GetPage asks for a snapshot of the current page.
type GetPage struct{ Reply chan view.Page }

// GetFound asks for the found species, in discovery order.
type GetFound struct{ Reply chan []string }

type Shutdown struct{}

func (Select) isSessionMsg()      {}
func (Start) isSessionMsg()       {}
func (Move) isSessionMsg()        {}
func (Flee) isSessionMsg()        {}
func (Acknowledge) isSessionMsg() {}
func (GetPage) isSessionMsg()     {}
func (GetFound) isSessionMsg()    {}
func (Shutdown) isSessionMsg()    {}

// Completions posted back by request goroutines.

type rosterLoaded struct {
	entries []models.RosterEntry
	err     error
}

type detailLoaded struct {
	name    string
	pokemon models.Pokemon
	err     error
}

type gameStarted struct {
	start models.GameStart
	err   error
}

type turnResolved struct {
	move string
	turn models.TurnResult
	err  error
}

func (rosterLoaded) isSessionMsg() {}
func (detailLoaded) isSessionMsg() {}
func (gameStarted) isSessionMsg()  {}
func (turnResolved) isSessionMsg() {}
