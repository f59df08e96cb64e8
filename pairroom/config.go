package pairroom

import (
	"time"

	"github.com/spf13/viper"
)

// Config controls how a session connects and who hears about it.
// Use DefaultConfig() as a starting point and modify as needed.
// Set a timeout to 0 to disable it.
type Config struct {
	// URL is the websocket endpoint, e.g. "wss://host/ws". The session
	// appends the room, slot and client identifiers when dialing.
	URL string `mapstructure:"url"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`

	// HeartbeatInterval is the ping cadence while connected.
	// HeartbeatTimeout is how long the connection may stay silent (no
	// inbound event of any kind) before it is declared dead.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`

	// AutoReconnect redials after a transport failure, with exponential
	// backoff between ReconnectDelay and MaxReconnectDelay plus jitter.
	// MaxReconnectTries of 0 means retry forever.
	AutoReconnect     bool          `mapstructure:"auto_reconnect"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
	MaxReconnectTries int           `mapstructure:"max_reconnect_tries"`

	// SendQueueSize bounds the outbound queue retained while not connected;
	// beyond capacity the oldest entry is dropped.
	SendQueueSize int `mapstructure:"send_queue_size"`

	// OnMessage receives every applied inbound event, OnConnect and
	// OnDisconnect the transport lifecycle, OnStateChanged every
	// connection-state transition. All optional.
	OnMessage      func(RoomEvent)  `mapstructure:"-"`
	OnConnect      func()           `mapstructure:"-"`
	OnDisconnect   func(error)      `mapstructure:"-"`
	OnStateChanged func(StateEvent) `mapstructure:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 15 * time.Second,
		HeartbeatTimeout:  45 * time.Second,
		AutoReconnect:     true,
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
		SendQueueSize:     64,
	}
}

// LoadConfig reads config.yaml from path (plus matching environment
// variables) on top of the defaults. Callbacks are wired programmatically
// afterwards.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if err := v.ReadInConfig(); err != nil {
		return cfg, WrapError(ErrorConfiguration, "read config", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, WrapError(ErrorConfiguration, "unmarshal config", err)
	}
	return cfg, nil
}

// withDefaults fills unset tuning knobs so a zero-constructed Config still
// behaves. AutoReconnect is deliberately left alone: false is a valid choice.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = d.MaxReconnectDelay
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	return c
}
