package stats

import (
	"sync"
	"time"

	"github.com/pefman/pokedex-duel/internal/session"
)

// Record is one browser session's battle history (in-memory only).
type Record struct {
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	Caught       []string `json:"caught"`
	LastOpponent string   `json:"lastOpponent,omitempty"`
	LastBattle   int64    `json:"lastBattle,omitempty"` // unix seconds
}

// Book keeps records keyed by session id.
type Book struct {
	statsMu sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewBook() *Book {
	return &Book{records: make(map[string]Record), now: time.Now}
}

// Observe returns an outcome hook for one session's controller.
func (b *Book) Observe(sessionID string) func(session.Outcome) {
	return func(o session.Outcome) { b.Save(sessionID, o) }
}

func (b *Book) Save(sessionID string, o session.Outcome) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	r := b.records[sessionID]
	if o.Won {
		r.Wins++
	} else {
		r.Losses++
	}
	if o.Caught {
		r.Caught = append(r.Caught, o.Opponent)
	}
	r.LastOpponent = o.Opponent
	r.LastBattle = b.now().Unix()
	b.records[sessionID] = r
}

func (b *Book) Get(sessionID string) Record {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	r := b.records[sessionID]
	r.Caught = append([]string(nil), r.Caught...)
	return r
}

// Forget drops a session's record.
func (b *Book) Forget(sessionID string) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	delete(b.records, sessionID)
}
