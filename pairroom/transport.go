package pairroom

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/agustinlozano/ur-partner-sdk-go/pairroom/internal"
)

// Conn is a single established transport connection carrying opaque message
// frames.
type Conn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close(reason string) error
}

// Dialer opens transport connections. The default dials a websocket; tests
// and alternative transports provide their own.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// websocketDialer is the production Dialer.
type websocketDialer struct {
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

func newWebsocketDialer(cfg Config) websocketDialer {
	return websocketDialer{
		handshakeTimeout: cfg.HandshakeTimeout,
		readTimeout:      cfg.ReadTimeout,
		writeTimeout:     cfg.WriteTimeout,
	}
}

func (d websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialCtx := ctx
	if d.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.handshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return nil, WrapError(ErrorTransport, "dial "+url, err)
	}
	return internal.NewConn(ws, d.readTimeout, d.writeTimeout), nil
}
