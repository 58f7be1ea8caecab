package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/patch"
)

const defaultBridgeBuffer = 256

// Bridge mirrors a store's event stream into the journal. Events are
// buffered and written by a background goroutine so a slow Redis never
// stalls a commit. When the buffer is full the event is dropped with a
// warning: the journal is an observability mirror, not the source of
// truth, and the store must not block on it.
type Bridge struct {
	store   *patch.Store
	journal Client
	logger  *slog.Logger

	appendTimeout time.Duration
	entries       chan Entry
	unsubscribe   func()
	done          chan struct{}
	closeOnce     sync.Once
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the logger. Defaults to slog.Default().
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// WithBridgeBuffer sets the pending-entry buffer size.
func WithBridgeBuffer(n int) BridgeOption {
	return func(b *Bridge) {
		if n > 0 {
			b.entries = make(chan Entry, n)
		}
	}
}

// WithAppendTimeout sets the per-append write deadline.
func WithAppendTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.appendTimeout = d
		}
	}
}

// NewBridge subscribes to the store's dispatcher and starts the writer.
// Call Close to stop mirroring and drain pending entries.
func NewBridge(store *patch.Store, client Client, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		store:         store,
		journal:       client,
		appendTimeout: 5 * time.Second,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.entries == nil {
		b.entries = make(chan Entry, defaultBridgeBuffer)
	}

	b.unsubscribe = store.Events().Subscribe(b.handle)
	go b.run()
	return b
}

// handle converts one published event into a pending journal entry.
// Runs synchronously on the mutating goroutine, so it never blocks.
func (b *Bridge) handle(e event.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Warn("journal bridge dropping unencodable event",
			"event", event.Name(e), "error", err)
		return
	}

	entry := Entry{
		Event:    event.Name(e),
		Revision: b.store.Revision(),
		Payload:  payload,
		At:       time.Now().UnixMilli(),
	}

	select {
	case b.entries <- entry:
	default:
		b.logger.Warn("journal bridge buffer full, dropping event",
			"event", entry.Event, "revision", entry.Revision)
	}
}

// run drains pending entries into the journal until Close.
func (b *Bridge) run() {
	defer close(b.done)

	patchID := b.store.PatchID()
	for entry := range b.entries {
		ctx, cancel := context.WithTimeout(context.Background(), b.appendTimeout)
		_, err := b.journal.Append(ctx, patchID, entry)
		cancel()
		if err != nil {
			b.logger.Warn("journal append failed",
				"event", entry.Event, "revision", entry.Revision, "error", err)
		}
	}
}

// Close stops mirroring, drains pending entries, and returns once the
// last entry is written. It does not close the journal client.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.unsubscribe()
		close(b.entries)
		<-b.done
	})
}
