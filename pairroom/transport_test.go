package pairroom

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory transport connection. Tests feed inbound frames
// through in, observe outbound frames on out, and simulate a transport drop
// with fail.
type fakeConn struct {
	in        chan []byte
	out       chan []byte
	closed    chan struct{}
	once      sync.Once
	failWrite bool // every WriteMessage errors, simulating a half-dead link
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, errors.New("connection dropped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) WriteMessage(ctx context.Context, data []byte) error {
	if c.failWrite {
		return errors.New("write refused")
	}
	select {
	case <-c.closed:
		return errors.New("connection dropped")
	case <-ctx.Done():
		return ctx.Err()
	case c.out <- data:
		return nil
	}
}

func (c *fakeConn) Close(string) error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// fail simulates the transport dropping out from under the SDK.
func (c *fakeConn) fail() {
	c.once.Do(func() { close(c.closed) })
}

// fakeDialer hands out fakeConns and can be told to refuse the next dials
// or to hand out connections whose writes fail.
type fakeDialer struct {
	mu         sync.Mutex
	conns      []*fakeConn
	attempts   []time.Time // every Dial call, refused ones included
	refusals   int
	brokenOuts int // next N conns refuse writes
	dialed     chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dialed: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) refuseNext(n int) {
	d.mu.Lock()
	d.refusals = n
	d.mu.Unlock()
}

func (d *fakeDialer) failWritesOnNext(n int) {
	d.mu.Lock()
	d.brokenOuts = n
	d.mu.Unlock()
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	d.mu.Lock()
	d.attempts = append(d.attempts, time.Now())
	if d.refusals > 0 {
		d.refusals--
		d.mu.Unlock()
		return nil, NewError(ErrorTransport, "dial refused")
	}
	conn := newFakeConn()
	if d.brokenOuts > 0 {
		d.brokenOuts--
		conn.failWrite = true
	}
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	d.dialed <- conn
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) attemptTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.attempts...)
}

// awaitConn waits for the next successful dial.
func awaitConn(t *testing.T, d *fakeDialer, timeout time.Duration) *fakeConn {
	t.Helper()
	select {
	case conn := <-d.dialed:
		return conn
	case <-time.After(timeout):
		t.Fatalf("no connection dialed within %v", timeout)
		return nil
	}
}

// awaitFrame waits for the next outbound frame on conn and decodes it.
func awaitFrame(t *testing.T, conn *fakeConn, timeout time.Duration) RoomEvent {
	t.Helper()
	select {
	case data := <-conn.out:
		ev, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("outbound frame does not decode: %v", err)
		}
		return ev
	case <-time.After(timeout):
		t.Fatalf("no outbound frame within %v", timeout)
		return nil
	}
}

// awaitState waits until poll reports the wanted connection state.
func awaitState(t *testing.T, poll func() ConnectionState, want ConnectionState, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if poll() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state never reached %v (last %v)", want, poll())
}
