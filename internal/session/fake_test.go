package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pefman/pokedex-duel/internal/api"
	"github.com/pefman/pokedex-duel/internal/models"
	"github.com/pefman/pokedex-duel/internal/view"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

const scenarioRoster = "Bulbasaur:bulbasaur.png\nCharmander:charmander.png\nSquirtle:squirtle.png\nPikachu:pikachu.png"

func detail(name string, hp int, moves ...string) models.Pokemon {
	p := models.Pokemon{
		Name:   name,
		HP:     hp,
		Images: models.Images{Photo: "images/" + name + ".jpg", TypeIcon: "icons/t.jpg", WeaknessIcon: "icons/w.jpg"},
		Info:   models.Info{Description: name + " description"},
	}
	for i, m := range moves {
		p.Moves = append(p.Moves, models.Move{Name: m, Type: "normal", DP: 10 * i})
	}
	return p
}

type moveCall struct {
	GUID, PID, Move string
}

// fakeService is an in-memory stand-in for the remote game service.
type fakeService struct {
	mu sync.Mutex

	roster   string
	pokedex  map[string]models.Pokemon
	opponent models.Pokemon
	turns    []models.TurnResult // served in order; the last one repeats

	rosterErr, pokemonErr, startErr, moveErr error

	gate chan struct{} // when set, each PlayMove waits for one token

	pokemonCalls []string
	startCalls   []string
	moveCalls    []moveCall
}

func newFakeService() *fakeService {
	return &fakeService{
		roster: scenarioRoster,
		pokedex: map[string]models.Pokemon{
			"Bulbasaur":  detail("Bulbasaur", 60, "Vine Whip", "Tackle"),
			"Charmander": detail("Charmander", 39, "Ember", "Scratch", "Growl", "Smokescreen"),
			"Squirtle":   detail("Squirtle", 44, "Bubble"),
			"Pikachu":    detail("Pikachu", 35, "Thunder Shock"),
		},
		opponent: detail("Pikachu", 35, "Thunder Shock"),
	}
}

func (f *fakeService) AssetURL(p string) string    { return "https://svc/" + p }
func (f *fakeService) MoveIconURL(t string) string { return "https://svc/icons/" + t + ".jpg" }

func (f *fakeService) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return api.ParseRoster(f.roster), nil
}

func (f *fakeService) Pokemon(ctx context.Context, name string) (models.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pokemonCalls = append(f.pokemonCalls, name)
	if f.pokemonErr != nil {
		return models.Pokemon{}, f.pokemonErr
	}
	return f.pokedex[name], nil
}

func (f *fakeService) StartGame(ctx context.Context, name string) (models.GameStart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls = append(f.startCalls, name)
	if f.startErr != nil {
		return models.GameStart{}, f.startErr
	}
	return models.GameStart{GUID: "guid-0", PID: "pid-1", P2: f.opponent}, nil
}

func (f *fakeService) PlayMove(ctx context.Context, guid, pid, move string) (models.TurnResult, error) {
	f.mu.Lock()
	f.moveCalls = append(f.moveCalls, moveCall{GUID: guid, PID: pid, Move: move})
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.TurnResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return models.TurnResult{}, f.moveErr
	}
	if len(f.turns) == 0 {
		return models.TurnResult{}, nil
	}
	t := f.turns[0]
	if len(f.turns) > 1 {
		f.turns = f.turns[1:]
	}
	return t, nil
}

func (f *fakeService) setTurns(turns ...models.TurnResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = turns
}

func (f *fakeService) moves() []moveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]moveCall(nil), f.moveCalls...)
}

func (f *fakeService) pokemonRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pokemonCalls...)
}

func (f *fakeService) starts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.startCalls...)
}

func turn(guid string, p1, p1max, p2, p2max int) models.TurnResult {
	return models.TurnResult{
		GUID: guid,
		P1:   models.Combatant{CurrentHP: p1, HP: p1max, Buffs: []string{}, Debuffs: []string{}},
		P2:   models.Combatant{CurrentHP: p2, HP: p2max, Buffs: []string{}, Debuffs: []string{}},
		Results: models.TurnResults{
			P1Move: "Vine Whip", P1Result: "hit",
			P2Move: "Thunder Shock", P2Result: "missed",
		},
	}
}

// ----- harness -----

type harness struct {
	t       *testing.T
	svc     *fakeService
	c       *Controller
	logs    *observer.ObservedLogs
	renders *renderCount

	mu       sync.Mutex
	outcomes []Outcome
}

type renderCount struct {
	mu sync.Mutex
	n  int
}

func (r *renderCount) Render(view.Page) {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *renderCount) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func newHarness(t *testing.T, svc *fakeService, opts Options) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{t: t, svc: svc, logs: logs, renders: &renderCount{}}
	opts.Logger = zap.New(core)
	opts.OnOutcome = func(o Outcome) {
		h.mu.Lock()
		h.outcomes = append(h.outcomes, o)
		h.mu.Unlock()
	}
	h.c = New(context.Background(), svc, h.renders, opts)
	t.Cleanup(h.c.Close)
	return h
}

// waitPage polls the controller until pred holds, so tests never hang.
func (h *harness) waitPage(msg string, pred func(view.Page) bool) view.Page {
	h.t.Helper()
	var last view.Page
	require.Eventually(h.t, func() bool {
		last = h.c.Page()
		return pred(last)
	}, testWait, testTick, msg)
	return last
}

func (h *harness) waitLog(message string, n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return h.logs.FilterMessage(message).Len() >= n
	}, testWait, testTick, "waiting for log %q", message)
}

func (h *harness) browsing() view.Page {
	return h.waitPage("roster loaded", func(p view.Page) bool { return p.State == Browsing.String() })
}

func (h *harness) selectPokemon(name string) view.Page {
	h.t.Helper()
	h.browsing()
	h.c.Send(Select{Name: name})
	return h.waitPage("player card filled", func(p view.Page) bool {
		return p.State == Selected.String() && p.Player.Name == name
	})
}

func (h *harness) startBattle(name string) view.Page {
	h.t.Helper()
	h.selectPokemon(name)
	h.c.Send(Start{})
	return h.waitPage("opponent card filled", func(p view.Page) bool {
		return p.State == Battling.String() && p.Opponent.Filled()
	})
}

func (h *harness) outcomesSeen() []Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Outcome(nil), h.outcomes...)
}
