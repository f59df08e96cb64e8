package pairroom

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

// connManager owns the physical connection of one room membership: dialing,
// the read/write loops, heartbeat, reconnection with backoff and the bounded
// outbound queue. Inbound events are handed to deliver, which the session
// serializes into its apply queue; connection-state transitions go to
// stateChanged.
type connManager struct {
	cfg    Config
	logger Logger
	dialer Dialer
	url    string
	slot   Slot

	deliver      func(RoomEvent)
	stateChanged func(StateEvent)

	// jitter spreads reconnect delays to avoid synchronized retries across
	// clients; tests disable it to assert the doubling schedule.
	jitter bool

	runCtx context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       ConnectionState
	conn        Conn
	connCancel  context.CancelFunc
	gen         int // connection generation, bumped on every attach/failure
	writeCh     chan []byte
	queue       [][]byte
	lastInbound time.Time
	closed      bool
}

func newConnManager(cfg Config, logger Logger, dialer Dialer, url string, slot Slot,
	deliver func(RoomEvent), stateChanged func(StateEvent)) *connManager {
	runCtx, cancel := context.WithCancel(context.Background())
	return &connManager{
		cfg:          cfg,
		logger:       logger,
		dialer:       dialer,
		url:          url,
		slot:         slot,
		deliver:      deliver,
		stateChanged: stateChanged,
		jitter:       true,
		runCtx:       runCtx,
		cancel:       cancel,
		state:        StateDisconnected,
	}
}

// start performs the initial dial synchronously so Connect can report
// failure to the caller. Reconnection after a later transport loss is
// handled internally.
func (m *connManager) start(ctx context.Context) error {
	m.setState(StateConnecting, nil)
	conn, err := m.dialer.Dial(ctx, m.url)
	if err != nil {
		m.setState(StateDisconnected, err)
		return err
	}
	m.attach(conn)
	return nil
}

// attach takes ownership of a fresh connection: flushes the retained queue
// in arrival order and starts the per-connection loops.
func (m *connManager) attach(conn Conn) {
	connCtx, connCancel := context.WithCancel(m.runCtx)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		connCancel()
		_ = conn.Close("client close")
		return
	}
	m.gen++
	gen := m.gen
	m.conn = conn
	m.connCancel = connCancel
	m.lastInbound = time.Now()
	m.writeCh = make(chan []byte, m.cfg.SendQueueSize+16)
	for _, frame := range m.queue {
		m.writeCh <- frame
	}
	m.queue = nil
	ch := m.writeCh
	m.mu.Unlock()

	m.setState(StateConnected, nil)

	go m.readLoop(connCtx, gen, conn)
	go m.writeLoop(connCtx, gen, conn, ch)
	go m.heartbeatLoop(connCtx, gen)
}

// send queues or transmits one encoded frame. While not connected the frame
// is retained (bounded, oldest dropped) and flushed on reconnection.
func (m *connManager) send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return NewError(ErrorClosed, "session closed")
	}
	if m.state == StateConnected && m.writeCh != nil {
		select {
		case m.writeCh <- data:
			return nil
		default:
			// writer stalled; fall through to the retained queue
		}
	}
	if len(m.queue) >= m.cfg.SendQueueSize {
		m.queue = m.queue[1:]
	}
	m.queue = append(m.queue, data)
	return nil
}

// sendBestEffort transmits the frame only if a connection is live right now.
// It is never queued; a leave has no reliable window to flush.
func (m *connManager) sendBestEffort(data []byte) {
	m.mu.Lock()
	ch := m.writeCh
	connected := m.state == StateConnected && !m.closed
	m.mu.Unlock()
	if !connected || ch == nil {
		return
	}
	select {
	case ch <- data:
	default:
	}
}

func (m *connManager) connectionState() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *connManager) queuedFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.queue...)
}

func (m *connManager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

/// close is terminal: it cancels the run context (which also cancels any
// pending backoff timer before it fires), drops the retained queue and
// closes the live connection.
func (m *connManager) close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	old := m.state
	m.state = StateClosed
	m.gen++
	conn := m.conn
	m.conn = nil
	m.writeCh = nil
	m.queue = nil
	m.mu.Unlock()

	m.cancel()
	var err error
	if conn != nil {
		err = conn.Close("client close")
	}
	m.stateChanged(StateEvent{OldState: old, NewState: StateClosed})
	return err
}

func (m *connManager) setState(next ConnectionState, cause error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	old := m.state
	if old == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()

	m.stateChanged(StateEvent{OldState: old, NewState: next, Error: cause})
}

func (m *connManager) touch() {
	m.mu.Lock()
	m.lastInbound = time.Now()
	m.mu.Unlock()
}

func (m *connManager) sinceInbound() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastInbound)
}

// requeueFront puts frames back at the head of the retained queue,
// preserving their original order relative to later sends. Over capacity
// the oldest entries are dropped, same as send.
func (m *connManager) requeueFront(frames ...[]byte) {
	m.mu.Lock()
	m.requeueFrontLocked(frames)
	m.mu.Unlock()
}

func (m *connManager) requeueFrontLocked(frames [][]byte) {
	if m.closed || len(frames) == 0 {
		return
	}
	m.queue = append(append([][]byte(nil), frames...), m.queue...)
	if n := len(m.queue) - m.cfg.SendQueueSize; n > 0 {
		m.queue = append([][]byte(nil), m.queue[n:]...)
	}
}

// fail tears down the current connection once. Stale generations (a sibling
// loop already reported the failure, or a new connection attached) only get
// their unsent frames retained. Frames still sitting in the write channel
// are drained back to the head of the queue so a connection dying before
// the flush completes loses nothing.
func (m *connManager) fail(gen int, cause error, unsent ...[]byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if gen != m.gen {
		m.requeueFrontLocked(unsent)
		m.mu.Unlock()
		return
	}
	m.gen++
	conn := m.conn
	connCancel := m.connCancel
	ch := m.writeCh
	m.conn = nil
	m.connCancel = nil
	m.writeCh = nil

	pending := append([][]byte(nil), unsent...)
	for ch != nil {
		select {
		case frame := <-ch:
			pending = append(pending, frame)
		default:
			ch = nil
		}
	}
	m.requeueFrontLocked(pending)
	m.mu.Unlock()

	if connCancel != nil {
		connCancel()
	}
	if conn != nil {
		_ = conn.Close("transport failure")
	}
	m.logger.Warn("connection lost", map[string]any{"error": cause.Error()})

	if !m.cfg.AutoReconnect {
		m.setState(StateDisconnected, cause)
		return
	}
	m.setState(StateReconnecting, cause)
	go m.reconnectLoop(cause)
}

// reconnectLoop redials with exponential backoff and jitter until it
// succeeds, the retry budget runs out, or the manager is closed.
func (m *connManager) reconnectLoop(cause error) {
	b := &backoff.Backoff{
		Min:    m.cfg.ReconnectDelay,
		Max:    m.cfg.MaxReconnectDelay,
		Factor: 2,
		Jitter: m.jitter,
	}

	for try := 1; ; try++ {
		if m.cfg.MaxReconnectTries > 0 && try > m.cfg.MaxReconnectTries {
			m.logger.Error("reconnect attempts exhausted", map[string]any{"tries": try - 1})
			m.setState(StateDisconnected, cause)
			return
		}

		delay := b.Duration()
		m.logger.Info("reconnecting", map[string]any{"attempt": try, "delay": delay.String()})
		select {
		case <-time.After(delay):
		case <-m.runCtx.Done():
			return
		}

		m.setState(StateConnecting, nil)
		conn, err := m.dialer.Dial(m.runCtx, m.url)
		if err != nil {
			if m.isClosed() || m.runCtx.Err() != nil {
				return
			}
			cause = err
			m.setState(StateReconnecting, err)
			continue
		}
		if m.isClosed() {
			_ = conn.Close("client close")
			return
		}
		m.attach(conn)
		return
	}
}

func (m *connManager) readLoop(ctx context.Context, gen int, conn Conn) {
	for {
		data, err := conn.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.fail(gen, WrapError(ErrorTransport, "read", err))
			return
		}
		m.touch()

		ev, err := DecodeEvent(data)
		if err != nil {
			m.logger.Warn("dropping malformed event", map[string]any{"error": err.Error()})
			continue
		}
		m.deliver(ev)
	}
}

func (m *connManager) writeLoop(ctx context.Context, gen int, conn Conn, ch chan []byte) {
	for {
		select {
		case data := <-ch:
			if err := conn.WriteMessage(ctx, data); err != nil {
				// the in-flight frame goes back to the queue either way
				if ctx.Err() != nil {
					m.requeueFront(data)
				} else {
					m.fail(gen, WrapError(ErrorTransport, "write", err), data)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// heartbeatLoop pings on a fixed cadence while connected and declares the
// connection dead when nothing inbound arrives within the timeout. Any
// inbound event counts as liveness, not just pongs.
func (m *connManager) heartbeatLoop(ctx context.Context, gen int) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	ping, err := EncodeEvent(Ping{Slot: m.slot})
	if err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if m.sinceInbound() > m.cfg.HeartbeatTimeout {
				m.fail(gen, NewError(ErrorTimeout, "heartbeat timeout"))
				return
			}
			m.sendBestEffort(ping)
		case <-ctx.Done():
			return
		}
	}
}
