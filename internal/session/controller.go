package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/models"
	"github.com/pefman/pokedex-duel/internal/view"
)

// Service is the remote game service as seen by the controller.
type Service interface {
	view.Assets
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Pokemon(ctx context.Context, name string) (models.Pokemon, error)
	StartGame(ctx context.Context, name string) (models.GameStart, error)
	PlayMove(ctx context.Context, guid, pid, move string) (models.TurnResult, error)
}

// Battle is the token pair identifying the in-progress battle to the service.
type Battle struct {
	GUID string
	PID  string
}

// Outcome describes a finished battle.
type Outcome struct {
	Won      bool
	Opponent string
	Caught   bool // opponent was added to the found set
}

type Options struct {
	// ReportErrors surfaces failed service calls on the page. When false,
	// failures are only logged.
	ReportErrors bool
	// GuardMoves ignores move and flee actions while a turn request is in flight.
	GuardMoves bool
	// OnOutcome is called on the controller goroutine when a battle ends.
	OnOutcome func(Outcome)
	Logger    *zap.Logger
}

// Controller owns one player's session. All state is confined to the loop
// goroutine; user actions and request completions both arrive on the inbox.
type Controller struct {
	inbox  chan Msg
	svc    Service
	view   view.View
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	state      State
	found      *FoundSet
	roster     []models.RosterEntry
	page       view.Page
	battle     Battle
	startingHP string
	won        bool
	inFlight   int // turn requests awaiting a reply
}

// New starts a controller and immediately requests the roster.
func New(parent context.Context, svc Service, v view.View, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		inbox:  make(chan Msg, 64),
		svc:    svc,
		view:   v,
		opts:   opts,
		log:    opts.Logger.Named("session"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		found:  NewFoundSet(),
	}
	c.transition(Loading)
	go c.loop()
	c.loadRoster()
	return c
}

func (c *Controller) Inbox() chan<- Msg { return c.inbox }

// Send delivers m unless the controller has stopped.
func (c *Controller) Send(m Msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

// Page returns a snapshot of the current page. The zero Page is returned
// once the controller has stopped.
func (c *Controller) Page() view.Page {
	reply := make(chan view.Page, 1)
	c.Send(GetPage{Reply: reply})
	select {
	case p := <-reply:
		return p
	case <-c.done:
		return view.Page{}
	}
}

// Found returns the found species in discovery order.
func (c *Controller) Found() []string {
	reply := make(chan []string, 1)
	c.Send(GetFound{Reply: reply})
	select {
	case f := <-reply:
		return f
	case <-c.done:
		return nil
	}
}

// Close stops the loop. Requests still in flight are cancelled.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
}

// Done is closed once the loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) loop() {
	defer close(c.done)
	c.render()
	for {
		select {
		case <-c.ctx.Done():
			return
		case m := <-c.inbox:
			switch msg := m.(type) {
			case GetPage:
				msg.Reply <- c.page.Clone()
				continue
			case GetFound:
				msg.Reply <- c.found.List()
				continue
			case Shutdown:
				c.cancel()
				return
			}
			c.handle(m)
			c.render()
		}
	}
}

func (c *Controller) handle(m Msg) {
	switch msg := m.(type) {
	case Select:
		c.onSelect(msg.Name)
	case Start:
		c.onStart()
	case Move:
		c.onMove(msg.Slot)
	case Flee:
		c.play(FleeMove)
	case Acknowledge:
		c.onAcknowledge()
	case rosterLoaded:
		c.onRosterLoaded(msg)
	case detailLoaded:
		c.onDetailLoaded(msg)
	case gameStarted:
		c.onGameStarted(msg)
	case turnResolved:
		c.onTurnResolved(msg)
	}
}

func (c *Controller) render() {
	c.view.Render(c.page.Clone())
}

// post runs a request off the loop and delivers its completion back to it.
func (c *Controller) post(fn func(ctx context.Context) Msg) {
	go func() {
		m := fn(c.ctx)
		select {
		case c.inbox <- m:
		case <-c.ctx.Done():
		}
	}()
}

func (c *Controller) fail(op string, err error) {
	c.log.Warn("request failed", zap.String("op", op), zap.String("state", c.state.String()), zap.Error(err))
	if c.opts.ReportErrors {
		c.page.Error = err.Error()
		c.page.Loading = false
	}
}

func (c *Controller) clearError() {
	if c.opts.ReportErrors {
		c.page.Error = ""
	}
}

// ----- roster -----

func (c *Controller) loadRoster() {
	c.post(func(ctx context.Context) Msg {
		entries, err := c.svc.Roster(ctx)
		return rosterLoaded{entries: entries, err: err}
	})
}

func (c *Controller) onRosterLoaded(msg rosterLoaded) {
	if msg.err != nil {
		c.fail("roster", msg.err)
		return
	}
	c.roster = msg.entries
	c.refreshSprites()
	c.log.Info("roster loaded", zap.Int("entries", len(c.roster)), zap.Int("found", c.found.Len()))
	if c.state == Loading {
		c.transition(Browsing)
	}
}

func (c *Controller) refreshSprites() {
	sprites := make([]view.Sprite, 0, len(c.roster))
	for _, e := range c.roster {
		sprites = append(sprites, view.Sprite{ID: e.ID, File: e.Sprite, Found: c.found.Has(e.ID)})
	}
	c.page.Sprites = sprites
}

// ----- selection -----

func (c *Controller) onSelect(name string) {
	if c.state != Browsing && c.state != Selected {
		c.log.Debug("select ignored", zap.String("name", name), zap.String("state", c.state.String()))
		return
	}
	if !c.found.Has(name) {
		c.log.Debug("select ignored: not found yet", zap.String("name", name))
		return
	}
	c.clearError()
	c.post(func(ctx context.Context) Msg {
		p, err := c.svc.Pokemon(ctx, name)
		return detailLoaded{name: name, pokemon: p, err: err}
	})
}

func (c *Controller) onDetailLoaded(msg detailLoaded) {
	if msg.err != nil {
		c.fail("pokemon", msg.err)
		return
	}
	if c.state != Browsing && c.state != Selected {
		// A battle started before the detail arrived; the card is already committed.
		c.log.Debug("stale detail dropped", zap.String("name", msg.name), zap.String("state", c.state.String()))
		return
	}
	card := view.NewCard(msg.pokemon, c.svc)
	card.Visible = true
	c.page.Player = card
	c.transition(Selected)
}

// ----- battle -----

func (c *Controller) canStart() bool {
	return (c.state == Selected || c.state == Browsing) && c.page.Player.Filled()
}

func (c *Controller) onStart() {
	if !c.canStart() {
		c.log.Debug("start ignored", zap.String("state", c.state.String()))
		return
	}
	c.clearError()
	c.startingHP = c.page.Player.HP
	c.won = false
	name := c.page.Player.Name
	c.transition(Battling)
	c.log.Info("battle requested", zap.String("pokemon", name))
	c.post(func(ctx context.Context) Msg {
		start, err := c.svc.StartGame(ctx, name)
		return gameStarted{start: start, err: err}
	})
}

func (c *Controller) onGameStarted(msg gameStarted) {
	if msg.err != nil {
		c.fail("startgame", msg.err)
		return
	}
	if c.state != Battling {
		c.log.Debug("stale game start dropped", zap.String("state", c.state.String()))
		return
	}
	c.battle = Battle{GUID: msg.start.GUID, PID: msg.start.PID}
	opp := view.NewCard(msg.start.P2, c.svc)
	opp.Visible = true
	c.page.Opponent = opp
	c.page.BuffsVisible = true
	c.log.Info("battle started", zap.String("guid", c.battle.GUID), zap.String("opponent", opp.Name))
}

func (c *Controller) onMove(slot int) {
	if slot < 0 || slot >= view.MoveSlots {
		return
	}
	m := c.page.Player.Moves[slot]
	if m.Hidden || !m.Enabled {
		c.log.Debug("move ignored", zap.Int("slot", slot), zap.String("state", c.state.String()))
		return
	}
	c.play(m.Name)
}

// play issues a turn request for a move label (or flee).
func (c *Controller) play(label string) {
	if c.state != Battling {
		c.log.Debug("move ignored", zap.String("move", label), zap.String("state", c.state.String()))
		return
	}
	if label == FleeMove && !c.page.FleeEnabled {
		return
	}
	if c.opts.GuardMoves && c.inFlight > 0 {
		c.log.Debug("move ignored: turn in flight", zap.String("move", label))
		return
	}
	c.clearError()
	move := NormalizeMove(label)
	battle := c.battle
	c.inFlight++
	c.page.Loading = true
	c.post(func(ctx context.Context) Msg {
		turn, err := c.svc.PlayMove(ctx, battle.GUID, battle.PID, move)
		return turnResolved{move: move, turn: turn, err: err}
	})
}

func (c *Controller) onTurnResolved(msg turnResolved) {
	if c.inFlight > 0 {
		c.inFlight--
	}
	if msg.err != nil {
		c.fail("move", msg.err)
		return
	}
	if c.state != Battling {
		c.log.Debug("stale turn dropped", zap.String("move", msg.move), zap.String("state", c.state.String()))
		return
	}
	turn := msg.turn
	c.page.Loading = false
	c.page.Player.HP = view.HPText(turn.P1.CurrentHP)
	c.page.Opponent.HP = view.HPText(turn.P2.CurrentHP)
	c.page.Bars[0] = view.Bar(turn.P1.CurrentHP, turn.P1.HP)
	c.page.Bars[1] = view.Bar(turn.P2.CurrentHP, turn.P2.HP)

	if turn.Over() {
		c.end(turn)
		return
	}
	c.battle.GUID = turn.GUID
	c.page.Buffs[0] = view.Markers(turn.P1.Buffs, turn.P1.Debuffs)
	c.page.Buffs[1] = view.Markers(turn.P2.Buffs, turn.P2.Debuffs)
	c.showResults(turn.Results)
}

func (c *Controller) showResults(r models.TurnResults) {
	c.page.ResultsVisible = true
	c.page.Results[0] = view.TurnText{Text: view.TurnLine(1, r.P1Move, r.P1Result), Visible: true}
	c.page.Results[1] = view.TurnText{Text: view.TurnLine(2, r.P2Move, r.P2Result), Visible: true}
}

func (c *Controller) end(turn models.TurnResult) {
	c.showResults(turn.Results)
	if turn.Results.P2Move == "" {
		c.page.Results[1].Visible = false
	}
	c.won = turn.P1.CurrentHP >= 1
	opponent := c.page.Opponent.Name
	caught := false
	if c.won && c.found.Add(opponent) {
		caught = true
		c.refreshSprites()
	}
	c.transition(Ended)
	c.log.Info("battle over",
		zap.Bool("won", c.won),
		zap.String("opponent", opponent),
		zap.Bool("caught", caught),
	)
	if c.opts.OnOutcome != nil {
		c.opts.OnOutcome(Outcome{Won: c.won, Opponent: opponent, Caught: caught})
	}
}

func (c *Controller) onAcknowledge() {
	if c.state != Ended {
		return
	}
	c.clearError()
	c.page.Player.HP = c.startingHP
	c.battle = Battle{}
	c.transition(Browsing)
}

// transition moves to next and derives every visibility and enablement flag
// from it. Data fields (cards, bars, markers, turn text) are owned by the
// handlers, except where leaving a battle resets them.
func (c *Controller) transition(next State) {
	prev := c.state
	c.state = next
	p := &c.page
	p.State = next.String()

	switch next {
	case Loading, Browsing, Selected:
		p.Title = view.TitlePokedex
		p.RosterVisible = true
		p.StartVisible = p.Player.Filled()
		p.Player.Visible = true
		p.Player.SetMovesEnabled(false)
		p.Opponent = view.Card{}
		p.HPInfoVisible = false
		p.Bars = [2]view.HealthBar{view.FullBar(), view.FullBar()}
		p.BuffsVisible = false
		p.Buffs = [2][]view.Marker{}
		p.ResultsVisible = false
		p.Results = [2]view.TurnText{}
		p.FleeVisible = false
		p.FleeEnabled = false
		p.Loading = false
		p.EndgameVisible = false

	case Battling:
		p.Title = view.TitleBattle
		p.RosterVisible = false
		p.StartVisible = false
		p.Opponent.Visible = true
		p.HPInfoVisible = true
		p.ResultsVisible = true
		p.Results = [2]view.TurnText{}
		p.FleeVisible = true
		p.FleeEnabled = true
		p.Player.SetMovesEnabled(true)
		p.EndgameVisible = false

	case Ended:
		if c.won {
			p.Title = view.TitleWon
		} else {
			p.Title = view.TitleLost
		}
		p.Loading = false
		p.Player.SetMovesEnabled(false)
		p.FleeEnabled = false
		p.EndgameVisible = true
	}

	if prev != next {
		c.log.Debug("transition", zap.String("from", prev.String()), zap.String("to", next.String()))
	}
}
