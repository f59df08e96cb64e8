package pairroom

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the single object the host application talks to for one room
// membership. It composes the reducer and the connection manager: inbound
// events are applied one at a time on a dedicated goroutine, every resulting
// snapshot is published to subscribers, and sends are validated locally and
// handed to the outbound queue without blocking.
type Session struct {
	cfg        Config
	logger     Logger
	dialer     Dialer
	dispatcher *dispatcher

	events    chan sessionInput
	done      chan struct{}
	applyOnce sync.Once

	mu      sync.Mutex
	mgr     *connManager
	state   GameState
	roomID  string
	slot    Slot
	started bool
	closed  bool
}

// NewSession constructs a session with the provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:        cfg,
		logger:     noopLogger{},
		dispatcher: newDispatcher(cfg),
		events:     make(chan sessionInput, 32),
		done:       make(chan struct{}),
	}
}

// sessionInput is one unit of the apply queue: either an inbound room event
// or a connection-state change. Funneling both through the same queue keeps
// snapshot publication strictly ordered on the apply goroutine.
type sessionInput struct {
	ev RoomEvent
	st *StateEvent
}

// SetLogger overrides the logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
}

// SetDialer overrides the transport dialer (optional). Must be called
// before Connect.
func (s *Session) SetDialer(d Dialer) {
	if d == nil {
		return
	}
	s.dialer = d
}

// Connect joins the room in the given slot and starts the connection
// lifecycle. It is idempotent while the session is connecting or connected.
// Missing identifiers fail fast, synchronously.
func (s *Session) Connect(ctx context.Context, roomID string, slot Slot) error {
	if roomID == "" {
		return NewError(ErrorConfiguration, "empty room id")
	}
	if !slot.Valid() {
		return NewError(ErrorConfiguration, "invalid slot "+string(slot))
	}
	if s.cfg.URL == "" {
		return NewError(ErrorConfiguration, "empty URL")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewError(ErrorClosed, "session closed")
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.roomID = roomID
	s.slot = slot
	s.state = NewGameState(slot)

	dialer := s.dialer
	if dialer == nil {
		dialer = newWebsocketDialer(s.cfg)
	}
	endpoint := s.cfg.URL + "?" + url.Values{
		"room":   {roomID},
		"slot":   {string(slot)},
		"client": {uuid.NewString()},
	}.Encode()
	mgr := newConnManager(s.cfg, s.logger, dialer, endpoint, slot, s.enqueue, s.connStateChanged)
	s.mgr = mgr
	s.mu.Unlock()

	s.applyOnce.Do(func() { go s.applyLoop() })

	if err := mgr.start(ctx); err != nil {
		s.logger.Error("connect failed", map[string]any{"room": roomID, "error": err.Error()})
		mgr.cancel()
		s.mu.Lock()
		s.started = false
		s.mgr = nil
		s.mu.Unlock()
		return err
	}
	s.logger.Info("connected", map[string]any{"room": roomID, "slot": string(slot)})
	return nil
}

// Send validates a locally constructed event and enqueues it for
// transmission. It returns immediately; while not connected the event is
// retained and flushed on reconnection, except Leave which is transmitted
// best-effort and never queued.
func (s *Session) Send(ev RoomEvent) error {
	s.mu.Lock()
	closed, started, slot := s.closed, s.started, s.slot
	mgr := s.mgr
	s.mu.Unlock()

	if closed {
		return NewError(ErrorClosed, "session closed")
	}
	if !started || mgr == nil {
		return NewError(ErrorNotConnected, "session not connected")
	}
	if ev.Sender() != slot {
		return NewError(ErrorValidation, "event sender is not this session's slot")
	}
	if err := ValidateEvent(ev); err != nil {
		return err
	}

	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	if _, isLeave := ev.(Leave); isLeave {
		mgr.sendBestEffort(data)
		return nil
	}
	return mgr.send(data)
}

// FixCategory commits this slot to a category.
func (s *Session) FixCategory(category string) error {
	return s.Send(CategoryFixed{Slot: s.sessionSlot(), Category: category})
}

// CompleteCategory marks a category completed by this slot.
func (s *Session) CompleteCategory(category string) error {
	return s.Send(CategoryCompleted{Slot: s.sessionSlot(), Category: category})
}

// UncompleteCategory removes a category from this slot's completed set.
func (s *Session) UncompleteCategory(category string) error {
	return s.Send(CategoryUncompleted{Slot: s.sessionSlot(), Category: category})
}

// UpdateProgress publishes this slot's progress percentage (0-100).
func (s *Session) UpdateProgress(progress int) error {
	return s.Send(ProgressUpdated{Slot: s.sessionSlot(), Progress: progress})
}

// UploadImage announces a submitted image to the partner.
func (s *Session) UploadImage(img UploadedImage) error {
	return s.Send(ImageUploaded{Slot: s.sessionSlot(), Image: img})
}

// Say appends a chat message to the room transcript.
func (s *Session) Say(message string) error {
	return s.Send(Say{Slot: s.sessionSlot(), Message: message, SentAt: time.Now().UnixMilli()})
}

// SetReady publishes this slot's readiness flag.
func (s *Session) SetReady(ready bool) error {
	if ready {
		return s.Send(IsReady{Slot: s.sessionSlot()})
	}
	return s.Send(NotReady{Slot: s.sessionSlot()})
}

// LeaveRoom announces departure. Best-effort; never queued.
func (s *Session) LeaveRoom() error {
	return s.Send(Leave{Slot: s.sessionSlot()})
}

// Subscribe registers a listener for every state transition and returns its
// subscription id.
func (s *Session) Subscribe(fn func(GameState)) int {
	return s.dispatcher.subscribe(fn)
}

// Unsubscribe removes a listener. Deterministic: after return the listener
// is never invoked again.
func (s *Session) Unsubscribe(id int) {
	s.dispatcher.unsubscribe(id)
}

// State returns the current snapshot. The returned value is independent of
// the session's internal state and safe to retain.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// ConnectionState reports the connection lifecycle state.
func (s *Session) ConnectionState() ConnectionState {
	s.mu.Lock()
	mgr := s.mgr
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return StateClosed
	}
	if mgr == nil {
		return StateDisconnected
	}
	return mgr.connectionState()
}

// Close terminates the connection, cancels heartbeat and any pending
// reconnect backoff, discards the outbound queue and drops all subscribers.
// The session is inert afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	mgr := s.mgr
	roomID := s.roomID
	s.mu.Unlock()

	close(s.done)
	var err error
	if mgr != nil {
		err = mgr.close()
	}
	s.dispatcher.drop()
	s.logger.Info("session closed", map[string]any{"room": roomID})
	return err
}

func (s *Session) sessionSlot() Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

// enqueue hands an inbound event to the apply queue. Delivery into the
// reducer is single-consumer; the reducer itself needs no locking.
func (s *Session) enqueue(ev RoomEvent) {
	select {
	case s.events <- sessionInput{ev: ev}:
	case <-s.done:
	}
}

// connStateChanged funnels connection-state changes into the same apply
// queue as room events, so connectivity snapshots cannot be published out
// of order with event snapshots.
func (s *Session) connStateChanged(ev StateEvent) {
	select {
	case s.events <- sessionInput{st: &ev}:
	case <-s.done:
	}
}

func (s *Session) applyLoop() {
	for {
		select {
		case in := <-s.events:
			if in.st != nil {
				s.applyStateChange(*in.st)
			} else {
				s.apply(in.ev)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) apply(ev RoomEvent) {
	now := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if anomalous(s.state, ev) {
		s.logger.Warn("category completed without prior fix", map[string]any{
			"slot": string(ev.Sender()),
		})
	}
	s.state = Reduce(s.state, ev, now)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.dispatcher.dispatchEvent(ev)
	s.dispatcher.publishState(snapshot)
}

// applyStateChange overlays transport connectivity onto the snapshot and
// forwards lifecycle callbacks. Runs on the apply goroutine only.
func (s *Session) applyStateChange(ev StateEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Connected = ev.NewState == StateConnected
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.dispatcher.stateChanged(ev)
	s.dispatcher.publishState(snapshot)
}
