package natscore

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/cpop/natscore/pkg/auth"
	"github.com/cpop/natscore/pkg/config"
	"github.com/cpop/natscore/pkg/reconnect"
)

// DefaultDrainTimeout bounds how long Drain waits for pending work
// before closing.
const DefaultDrainTimeout = 30 * time.Second

// DefaultRequestTimeout bounds a single Request call when the caller
// does not pass an explicit timeout.
const DefaultRequestTimeout = 5 * time.Second

// Options configures a Client. Build one with functional options
// passed to Connect, or load it from the environment with
// LoadEnvOptions.
type Options struct {
	Servers []string
	Name    string

	Auth auth.Method

	TLS *tls.Config

	Reconnect reconnect.Policy

	PingInterval time.Duration
	MaxPingsOut  int

	DrainTimeout   time.Duration
	RequestTimeout time.Duration
	InboxPrefix    string

	NoEcho bool
}

// Option configures an Options value.
type Option func(*Options)

// DefaultServerURL is the library's default server when the caller
// passes no WithServers option.
const DefaultServerURL = "nats://localhost:4222"

// defaultOptions returns the library's baseline configuration:
// localhost on the default port, default reconnect policy, default
// keepalive and timeouts.
func defaultOptions() Options {
	return Options{
		Servers:        []string{DefaultServerURL},
		Auth:           auth.None{},
		Reconnect:      reconnect.Default(),
		DrainTimeout:   DefaultDrainTimeout,
		RequestTimeout: DefaultRequestTimeout,
		InboxPrefix:    "_INBOX",
	}
}

// WithServers sets the server URL list, tried in order on connect and
// reconnect.
func WithServers(servers ...string) Option {
	return func(o *Options) { o.Servers = servers }
}

// WithName sets the client connection name sent in CONNECT.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithAuth sets the authentication strategy (see pkg/auth).
func WithAuth(method auth.Method) Option {
	return func(o *Options) { o.Auth = method }
}

// WithTLS enables TLS with the given configuration, even for a
// "nats://" URL that would not otherwise require it.
func WithTLS(cfg *tls.Config) Option {
	return func(o *Options) { o.TLS = cfg }
}

// WithReconnectPolicy overrides the default reconnect policy.
func WithReconnectPolicy(p reconnect.Policy) Option {
	return func(o *Options) { o.Reconnect = p }
}

// WithPingInterval overrides the default keepalive interval.
func WithPingInterval(d time.Duration) Option {
	return func(o *Options) { o.PingInterval = d }
}

// WithMaxPingsOut overrides the default stale-connection threshold.
func WithMaxPingsOut(n int) Option {
	return func(o *Options) { o.MaxPingsOut = n }
}

// WithDrainTimeout overrides how long Drain waits for pending work.
func WithDrainTimeout(d time.Duration) Option {
	return func(o *Options) { o.DrainTimeout = d }
}

// WithRequestTimeout overrides the default per-call Request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}

// WithInboxPrefix overrides the "_INBOX" subject root used for
// request/reply inboxes.
func WithInboxPrefix(prefix string) Option {
	return func(o *Options) { o.InboxPrefix = prefix }
}

// WithNoEcho disables delivery of a client's own published messages
// back to itself.
func WithNoEcho() Option {
	return func(o *Options) { o.NoEcho = true }
}

// EnvOptions is an env/file-loadable shape for building Options without
// functional-option calls, following pkg/config's generic Load[T]
// pattern. Auth is assembled from whichever credential fields are set,
// checked in the order: creds file, NKey seed, user/pass, token, none.
type EnvOptions struct {
	Servers        string        `env:"NATS_SERVERS" env-default:"nats://localhost:4222"`
	Name           string        `env:"NATS_CLIENT_NAME"`
	Token          string        `env:"NATS_TOKEN"`
	User           string        `env:"NATS_USER"`
	Password       string        `env:"NATS_PASSWORD"`
	NKeySeed       string        `env:"NATS_NKEY_SEED"`
	CredsFile      string        `env:"NATS_CREDS_FILE"`
	PingInterval   time.Duration `env:"NATS_PING_INTERVAL" env-default:"2m"`
	MaxPingsOut    int           `env:"NATS_MAX_PINGS_OUT" env-default:"2"`
	DrainTimeout   time.Duration `env:"NATS_DRAIN_TIMEOUT" env-default:"30s"`
	RequestTimeout time.Duration `env:"NATS_REQUEST_TIMEOUT" env-default:"5s"`
	InboxPrefix    string        `env:"NATS_INBOX_PREFIX" env-default:"_INBOX"`
}

// ToOptions assembles functional Options from an EnvOptions snapshot.
func (e EnvOptions) ToOptions() []Option {
	opts := []Option{
		WithServers(splitServers(e.Servers)...),
		WithPingInterval(e.PingInterval),
		WithMaxPingsOut(e.MaxPingsOut),
		WithDrainTimeout(e.DrainTimeout),
		WithRequestTimeout(e.RequestTimeout),
		WithInboxPrefix(e.InboxPrefix),
	}
	if e.Name != "" {
		opts = append(opts, WithName(e.Name))
	}

	switch {
	case e.CredsFile != "":
		opts = append(opts, WithAuth(auth.Credentials{Path: e.CredsFile}))
	case e.NKeySeed != "":
		opts = append(opts, WithAuth(auth.NKey{Seed: e.NKeySeed}))
	case e.User != "":
		opts = append(opts, WithAuth(auth.UserPass{User: e.User, Pass: e.Password}))
	case e.Token != "":
		opts = append(opts, WithAuth(auth.Token{Value: e.Token}))
	}
	return opts
}

// LoadEnvOptions reads an EnvOptions snapshot from a .env file or the
// process environment, validates it, and returns the equivalent
// functional Options.
func LoadEnvOptions() ([]Option, error) {
	var e EnvOptions
	if err := config.Load(&e); err != nil {
		return nil, err
	}
	return e.ToOptions(), nil
}

func splitServers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
