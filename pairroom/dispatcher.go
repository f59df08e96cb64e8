package pairroom

import (
	"sort"
	"sync"
)

// dispatcher fans applied events, state snapshots and connection-state
// changes out to the configured callbacks and registered subscribers.
// Callbacks run on the session's apply goroutine; keep them fast.
type dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(GameState)

	onMessage      func(RoomEvent)
	onConnect      func()
	onDisconnect   func(error)
	onStateChanged func(StateEvent)
}

func newDispatcher(cfg Config) *dispatcher {
	return &dispatcher{
		subs:           make(map[int]func(GameState)),
		onMessage:      cfg.OnMessage,
		onConnect:      cfg.OnConnect,
		onDisconnect:   cfg.OnDisconnect,
		onStateChanged: cfg.OnStateChanged,
	}
}

func (d *dispatcher) subscribe(fn func(GameState)) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subs[id] = fn
	return id
}

func (d *dispatcher) unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, id)
}

// publishState delivers a snapshot to every subscriber. Subscribers added
// or removed during delivery take effect on the next snapshot.
func (d *dispatcher) publishState(s GameState) {
	d.mu.Lock()
	fns := make([]func(GameState), 0, len(d.subs))
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	// map order is random; deliver in subscription order
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, d.subs[id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (d *dispatcher) dispatchEvent(ev RoomEvent) {
	if d.onMessage != nil {
		d.onMessage(ev)
	}
}

func (d *dispatcher) stateChanged(ev StateEvent) {
	if d.onStateChanged != nil {
		d.onStateChanged(ev)
	}
	switch {
	case ev.NewState == StateConnected && ev.OldState != StateConnected:
		if d.onConnect != nil {
			d.onConnect()
		}
	case ev.OldState == StateConnected && ev.NewState != StateConnected:
		if d.onDisconnect != nil {
			d.onDisconnect(ev.Error)
		}
	}
}

// drop releases every subscriber so nothing fires after Close.
func (d *dispatcher) drop() {
	d.mu.Lock()
	d.subs = make(map[int]func(GameState))
	d.mu.Unlock()
}
