package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/session"
	"github.com/pefman/pokedex-duel/internal/view"
)

const cookieName = "pokedex_sid"

type playerSession struct {
	id   string
	ctrl *session.Controller
	hub  *hub

	mu       sync.Mutex
	lastSeen time.Time
}

func (p *playerSession) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

func (p *playerSession) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

type registry struct {
	mu       sync.Mutex
	sessions map[string]*playerSession

	start  func(id string, v view.View) *session.Controller
	forget func(id string)
	idle   time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// open returns the caller's session, starting a new one when the request
// carries no known session cookie. fresh reports whether a cookie must be set.
func (r *registry) open(req *http.Request) (s *playerSession, fresh bool) {
	now := r.now()
	if c, err := req.Cookie(cookieName); err == nil {
		r.mu.Lock()
		s, ok := r.sessions[c.Value]
		r.mu.Unlock()
		if ok {
			s.touch(now)
			return s, false
		}
	}

	id := newSessionID()
	h := newHub()
	s = &playerSession{id: id, hub: h, lastSeen: now}
	s.ctrl = r.start(id, h)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	r.log.Info("session started", zap.String("session", id), zap.String("remote", req.RemoteAddr))
	return s, true
}

func (r *registry) lookup(req *http.Request) (*playerSession, bool) {
	c, err := req.Cookie(cookieName)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[c.Value]
	return s, ok
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweep closes sessions with no open connection that have been idle longer
// than the configured timeout.
func (r *registry) sweep() int {
	now := r.now()
	var stale []*playerSession
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.hub.connected() == 0 && now.Sub(s.idleSince()) > r.idle {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.ctrl.Close()
		if r.forget != nil {
			r.forget(s.id)
		}
		r.log.Info("session expired", zap.String("session", s.id))
	}
	return len(stale)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*playerSession)
	r.mu.Unlock()
	for _, s := range all {
		s.ctrl.Close()
	}
}

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
