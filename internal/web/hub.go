package web

import (
	"sync"

	"github.com/pefman/pokedex-duel/internal/view"
)

type serverMsg struct {
	Type  string     `json:"type"`
	Data  *view.Page `json:"data,omitempty"`
	Error string     `json:"error,omitempty"`
}

// client is one websocket connection's outbox. Only the newest page is kept;
// a slow reader skips intermediate frames.
type client struct {
	pages   chan view.Page
	notices chan serverMsg
}

func newClient() *client {
	return &client{pages: make(chan view.Page, 1), notices: make(chan serverMsg, 4)}
}

func (c *client) push(p view.Page) {
	for {
		select {
		case c.pages <- p:
			return
		default:
		}
		select {
		case <-c.pages:
		default:
		}
	}
}

func (c *client) notify(m serverMsg) {
	select {
	case c.notices <- m:
	default:
	}
}

// hub is the session's view: every render is fanned out to all of the
// session's open connections. Render never blocks the controller.
type hub struct {
	mu      sync.Mutex
	last    view.Page
	ready   bool
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) Render(p view.Page) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last, h.ready = p, true
	for c := range h.clients {
		c.push(p)
	}
}

// join registers a connection and queues the latest page for it.
func (h *hub) join() *client {
	c := newClient()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.ready {
		c.push(h.last)
	}
	return c
}

func (h *hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
