package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/cues"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/encounter"
)

// maxQueuedCues bounds the cues held for a disconnected player.
const maxQueuedCues = 256

// cueQueue buffers cues between send ticks.
type cueQueue struct {
	mu    sync.Mutex
	items []cues.Cue
}

func (q *cueQueue) push(c cues.Cue) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= maxQueuedCues {
		q.items = q.items[1:]
	}
	q.items = append(q.items, c)
}

func (q *cueQueue) drain() []cues.Cue {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Player is one terminal: a session plus the cues it has produced.
type Player struct {
	ID      string
	Session *encounter.Session
	cues    *cueQueue
	conns   atomic.Int32 // Open websocket connections
}

// attach records an open connection. A watched session is never idle.
func (p *Player) attach() {
	p.conns.Add(1)
	p.Session.Touch()
}

// detach records a closed connection; idle time counts from here.
func (p *Player) detach() {
	p.conns.Add(-1)
	p.Session.Touch()
}

// Connected reports whether any connection is watching the session.
func (p *Player) Connected() bool { return p.conns.Load() > 0 }

// Population is told when players join and leave the hub.
type Population interface {
	SessionOpened()
	SessionClosed()
}

// Hub owns every live session, keyed by session ID.
type Hub struct {
	Players map[string]*Player
	Mu      sync.Mutex

	engine     *anomaly.Engine
	pacing     Pacing
	opts       []encounter.Option
	population Population
}

// NewHub creates a hub whose sessions share engine and pacing. opts are
// applied to every new session.
func NewHub(engine *anomaly.Engine, pacing Pacing, population Population, opts ...encounter.Option) *Hub {
	return &Hub{
		Players:    map[string]*Player{},
		engine:     engine,
		pacing:     pacing,
		opts:       opts,
		population: population,
	}
}

// GetPlayer returns the player with the given ID, creating one if it does not
// exist. An empty or malformed ID always creates a new player.
func (h *Hub) GetPlayer(id string) *Player {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	if p, ok := h.Players[id]; ok {
		return p
	}

	queue := &cueQueue{}
	router := cues.NewRouter(queue.push, h.pacing.BlipEvery)
	opts := append([]encounter.Option{
		encounter.WithID(id),
		encounter.WithCues(router),
	}, h.opts...)

	p := &Player{
		ID:      id,
		Session: encounter.New(h.engine, h.pacing.Session, opts...),
		cues:    queue,
	}
	h.Players[id] = p
	if h.population != nil {
		h.population.SessionOpened()
	}
	return p
}

// Lookup returns an existing player.
func (h *Hub) Lookup(id string) (*Player, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	p, ok := h.Players[id]
	return p, ok
}

// Remove closes and forgets a player.
func (h *Hub) Remove(id string) bool {
	h.Mu.Lock()
	p, ok := h.Players[id]
	if ok {
		delete(h.Players, id)
	}
	h.Mu.Unlock()

	if !ok {
		return false
	}
	p.Session.Close()
	if h.population != nil {
		h.population.SessionClosed()
	}
	return true
}

// Count returns the number of live players.
func (h *Hub) Count() int {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return len(h.Players)
}

// CleanupIdle removes players with no host activity for maxIdle and no open
// connection, and returns how many were removed.
func (h *Hub) CleanupIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.Mu.Lock()
	var stale []string
	for id, p := range h.Players {
		if !p.Connected() && p.Session.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	h.Mu.Unlock()

	removed := 0
	for _, id := range stale {
		if h.Remove(id) {
			removed++
		}
	}
	return removed
}

// CloseAll closes every session.
func (h *Hub) CloseAll() {
	h.Mu.Lock()
	ids := make([]string, 0, len(h.Players))
	for id := range h.Players {
		ids = append(ids, id)
	}
	h.Mu.Unlock()
	for _, id := range ids {
		h.Remove(id)
	}
}
