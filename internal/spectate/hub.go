// Package spectate publishes the moves of the running game over HTTP and
// websockets for read-only watchers.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/ChizhovVadim/ccheck/internal/referee"
	"github.com/ChizhovVadim/ccheck/internal/transcript"
	"github.com/ChizhovVadim/ccheck/pkg/common"
)

const pingInterval = 15 * time.Second

type MoveRecord struct {
	Ply  int    `json:"ply"`
	Side string `json:"side"`
	Move string `json:"move"`
	Line string `json:"line"`
}

// Msg is one websocket message.
type Msg struct {
	T      string       `json:"t"`
	Moves  []MoveRecord `json:"moves,omitempty"`
	Move   *MoveRecord  `json:"move,omitempty"`
	Result string       `json:"result,omitempty"`
}

type client struct {
	send chan []byte
}

// Hub is a referee.Observer that remembers the committed moves and pushes
// each one to the connected watchers.
type Hub struct {
	logger  zerolog.Logger
	mu      sync.RWMutex
	moves   []MoveRecord
	result  string
	clients map[*client]struct{}
}

var _ referee.Observer = (*Hub)(nil)

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) MoveCommitted(ply int, side common.Side, m common.Move) {
	var record = MoveRecord{
		Ply:  ply,
		Side: side.String(),
		Move: m.String(),
		Line: transcript.FormatLine(ply, side, m),
	}
	h.publish(Msg{T: "move", Move: &record}, func() {
		h.moves = append(h.moves, record)
	})
}

func (h *Hub) GameOver(result referee.Result) {
	h.publish(Msg{T: "result", Result: result.String()}, func() {
		h.result = result.String()
	})
}

func (h *Hub) snapshot() Msg {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() Msg {
	var moves = make([]MoveRecord, len(h.moves))
	copy(moves, h.moves)
	return Msg{T: "snapshot", Moves: moves, Result: h.result}
}

// publish records a change and sends msg to every watcher under one lock,
// so a watcher sees each change either in its snapshot or as a message.
func (h *Hub) publish(msg Msg, record func()) {
	var data, err = json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	record()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn().Msg("watcher too slow, message dropped")
		}
	}
}

// Router serves /health, /moves and the /ws feed.
func (h *Hub) Router() http.Handler {
	var r = chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/moves", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.snapshot())
	})
	r.Get("/ws", h.serveWS)
	return r
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	var c, err = websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket accept")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "bye")

	var cl = &client{send: make(chan []byte, 64)}
	h.mu.Lock()
	var first, _ = json.Marshal(h.snapshotLocked())
	cl.send <- first
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
	}()
	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("watcher connected")

	// Watchers never talk; CloseRead notices when they leave.
	var ctx = c.CloseRead(r.Context())
	var ping = time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-cl.send:
			if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Serve listens on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	var server = &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}
	var serverErr = make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	h.logger.Info().Str("addr", addr).Msg("spectator feed listening")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	var shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		server.Close()
		return err
	}
	return nil
}
