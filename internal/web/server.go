// Package web serves the Pokedex page to browsers: one session controller per
// visitor, pushed to the browser over a websocket.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/session"
	"github.com/pefman/pokedex-duel/internal/sprites"
	"github.com/pefman/pokedex-duel/internal/stats"
	"github.com/pefman/pokedex-duel/internal/view"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// SpriteSource serves roster sprites, optionally as locked silhouettes.
type SpriteSource interface {
	Get(ctx context.Context, file string, locked bool) (sprites.Image, error)
}

type Options struct {
	Version   string
	BuildTime string
	// Session is copied into every new controller. OnOutcome and Logger are
	// set per session.
	Session     session.Options
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type Server struct {
	svc      session.Service
	sprites  SpriteSource
	book     *stats.Book
	opts     Options
	log      *zap.Logger
	sessions *registry
	upgrader websocket.Upgrader
	router   *mux.Router
}

func NewServer(svc session.Service, sp SpriteSource, book *stats.Book, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if book == nil {
		book = stats.NewBook()
	}
	s := &Server{
		svc:     svc,
		sprites: sp,
		book:    book,
		opts:    opts,
		log:     opts.Logger.Named("web"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.sessions = &registry{
		sessions: make(map[string]*playerSession),
		start:    s.startSession,
		forget:   book.Forget,
		idle:     opts.IdleTimeout,
		now:      time.Now,
		log:      s.log,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/api/page", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/sprites/{file}", s.handleSprite).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) startSession(id string, v view.View) *session.Controller {
	opts := s.opts.Session
	opts.Logger = s.log.With(zap.String("session", id))
	opts.OnOutcome = s.book.Observe(id)
	return session.New(context.Background(), s.svc, v, opts)
}

// Sweep expires idle sessions every interval until ctx is done.
func (s *Server) Sweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.sweep(); n > 0 {
				s.log.Debug("sessions swept", zap.Int("expired", n), zap.Int("open", s.sessions.count()))
			}
		}
	}
}

// Close stops every session controller.
func (s *Server) Close() { s.sessions.closeAll() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, fresh := s.sessions.open(r)
	if fresh {
		http.SetCookie(w, sessionCookie(sess.id))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Version string }{Version: s.opts.Version}
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.Error("render index", zap.Error(err))
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, fresh := s.sessions.open(r)
	if fresh {
		http.SetCookie(w, sessionCookie(sess.id))
	}
	writeJSON(w, http.StatusOK, sess.ctrl.Page())
}

type statsOut struct {
	Found  []string     `json:"found"`
	Record stats.Record `json:"record"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session"})
		return
	}
	writeJSON(w, http.StatusOK, statsOut{Found: sess.ctrl.Found(), Record: s.book.Get(sess.id)})
}

func (s *Server) handleSprite(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	locked := r.URL.Query().Get("locked") == "1"
	img, err := s.sprites.Get(r.Context(), file, locked)
	if err != nil {
		s.log.Warn("sprite unavailable", zap.String("file", file), zap.Bool("locked", locked), zap.Error(err))
		http.Error(w, "sprite unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(img.Data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.count()})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": s.opts.Version,
		"time":    s.opts.BuildTime,
	})
}
