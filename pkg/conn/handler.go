package conn

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/logger"
	"github.com/cpop/natscore/pkg/protocol"
)

// EventKind tags what an Event carries.
type EventKind int

const (
	Opened EventKind = iota
	Message
	Closed
)

// Event is one of the three things a Handler surfaces to its owner:
// the socket opening, a decoded server operation arriving, or the
// socket closing (with an optional cause).
type Event struct {
	Kind    EventKind
	Decoded *protocol.Decoded
	Err     error
}

// DefaultPingInterval, DefaultMaxPingsOut are the library's keepalive
// defaults (§6 configuration options).
const (
	DefaultPingInterval = 120 * time.Second
	DefaultMaxPingsOut  = 2
)

// Handler owns one socket: it serializes writes, decodes the read
// side with pkg/protocol, answers PING with PONG, and runs the
// keepalive timer that declares the connection stale after
// MaxPingsOut unanswered pings.
type Handler struct {
	rw           io.ReadWriteCloser
	dec          *protocol.Decoder
	events       chan Event
	pingInterval time.Duration
	maxPingsOut  int32

	writeMu sync.Mutex

	pingsOut atomic.Int32
	sent     atomic.Uint64
	received atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}

	emitMu   sync.Mutex
	emitCond *sync.Cond
	emitQ    []Event
}

// NewHandler wraps an already-established stream. Callers are
// responsible for having performed any TLS upgrade beforehand.
func NewHandler(rw io.ReadWriteCloser, pingInterval time.Duration, maxPingsOut int) *Handler {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	if maxPingsOut <= 0 {
		maxPingsOut = DefaultMaxPingsOut
	}
	h := &Handler{
		rw:           rw,
		dec:          protocol.NewDecoder(),
		events:       make(chan Event, 64),
		pingInterval: pingInterval,
		maxPingsOut:  int32(maxPingsOut),
		done:         make(chan struct{}),
	}
	h.emitCond = sync.NewCond(&h.emitMu)
	go h.emitLoop()
	return h
}

// Events returns the channel Opened/Message/Closed events arrive on.
func (h *Handler) Events() <-chan Event { return h.events }

// Sent, Received report the atomic 64-bit frame counters, safe to
// read from any goroutine without synchronization.
func (h *Handler) Sent() uint64     { return h.sent.Load() }
func (h *Handler) Received() uint64 { return h.received.Load() }

// Start launches the read loop and keepalive timer and emits Opened.
// It returns immediately; events arrive asynchronously on Events().
func (h *Handler) Start(ctx context.Context) {
	h.emit(Event{Kind: Opened})
	go h.readLoop()
	go h.keepaliveLoop(ctx)
}

// WriteFrame serializes one already-encoded frame onto the socket.
func (h *Handler) WriteFrame(b []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if _, err := h.rw.Write(b); err != nil {
		wrapped := nerrors.New(nerrors.KindIO, "write failed", err)
		h.closeWithError(wrapped)
		return wrapped
	}
	h.sent.Add(1)
	return nil
}

func (h *Handler) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := h.rw.Read(buf)
		if err != nil {
			h.closeWithError(nerrors.New(nerrors.KindIO, "read failed", err))
			return
		}
		h.dec.Feed(buf[:n])

		for {
			d, derr := h.dec.Next()
			if derr != nil {
				h.closeWithError(derr)
				return
			}
			if d == nil {
				break
			}
			h.received.Add(1)
			h.handleDecoded(d)
		}
	}
}

func (h *Handler) handleDecoded(d *protocol.Decoded) {
	switch d.Op {
	case protocol.OpPing:
		if err := h.WriteFrame(protocol.EncodePong()); err != nil {
			return
		}
	case protocol.OpPong:
		h.pingsOut.Store(0)
	}
	h.emit(Event{Kind: Message, Decoded: d})
}

func (h *Handler) keepaliveLoop(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			out := h.pingsOut.Add(1)
			if out > h.maxPingsOut {
				h.closeWithError(nerrors.New(nerrors.KindStaleConnection, "stale connection: no PONG after max_pings_out", nil))
				return
			}
			_ = h.WriteFrame(protocol.EncodePing())
		}
	}
}

// Close closes the underlying socket and emits Closed(nil) exactly
// once, idempotently.
func (h *Handler) Close() {
	h.closeWithError(nil)
}

func (h *Handler) closeWithError(err error) {
	h.closeOnce.Do(func() {
		close(h.done)
		_ = h.rw.Close()
		if err != nil {
			logger.L().Warn("connection closed", "error", err)
		}
		h.emit(Event{Kind: Closed, Err: err})
	})
}

// emit enqueues ev for delivery without ever blocking the caller (the
// read loop, the keepalive timer, or closeWithError). A single
// dedicated goroutine (emitLoop) drains the queue onto events in
// enqueue order, so a slow consumer grows the queue instead of either
// blocking the read loop or racing multiple senders out of order.
func (h *Handler) emit(ev Event) {
	h.emitMu.Lock()
	h.emitQ = append(h.emitQ, ev)
	h.emitCond.Signal()
	h.emitMu.Unlock()
}

// emitLoop is the sole writer to events, so delivery order always
// matches enqueue order. It exits after forwarding the terminal Closed
// event, since closeWithError never emits again after that.
func (h *Handler) emitLoop() {
	for {
		h.emitMu.Lock()
		for len(h.emitQ) == 0 {
			h.emitCond.Wait()
		}
		ev := h.emitQ[0]
		h.emitQ = h.emitQ[1:]
		h.emitMu.Unlock()

		h.events <- ev
		if ev.Kind == Closed {
			return
		}
	}
}
