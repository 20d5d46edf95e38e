package server

import "sync"

// Registry owns the live rooms. Rooms are independent actors; the registry
// only maps ids to them and reaps rooms that have shut down.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	cfg   Config
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
	}
}

// Room returns the room for id, creating it on first reference. The seed
// is derived inside the room from the id, so matchmaking only ever hands
// over an id and two player identities.
func (g *Registry) Room(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[id]; ok {
		return room
	}
	room := NewRoom(id, g.cfg)
	g.rooms[id] = room
	go g.reap(id, room)
	return room
}

// Lookup returns an existing room without creating one.
func (g *Registry) Lookup(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[id]
	return room, ok
}

func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// CloseAll shuts every room down; used on process exit.
func (g *Registry) CloseAll() {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	for _, room := range rooms {
		room.Close()
	}
}

func (g *Registry) reap(id string, room *Room) {
	<-room.Done()
	g.mu.Lock()
	if current, ok := g.rooms[id]; ok && current == room {
		delete(g.rooms, id)
	}
	g.mu.Unlock()
}
