package journal

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client defines the interface for reading and writing patch journals.
type Client interface {
	// Append writes an entry to a patch's journal and returns the
	// assigned sequence ID.
	Append(ctx context.Context, patchID string, entry Entry) (string, error)

	// Replay returns every entry after the given sequence ID, oldest
	// first. An empty after replays the whole journal.
	Replay(ctx context.Context, patchID, after string) ([]Entry, error)

	// Tail returns the newest count entries, oldest first.
	Tail(ctx context.Context, patchID string, count int64) ([]Entry, error)

	// Trim caps the journal at maxLen entries, discarding the oldest.
	Trim(ctx context.Context, patchID string, maxLen int64) error

	// Len returns the number of entries in a patch's journal.
	Len(ctx context.Context, patchID string) (int64, error)

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisJournal implements the Client interface using go-redis/v9 streams.
type RedisJournal struct {
	client *redis.Client
}

// NewRedisJournal creates a journal client with the given options.
func NewRedisJournal(opts RedisOptions) (*RedisJournal, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisJournal{client: client}, nil
}

// streamKey returns the journal stream key for a patch.
func streamKey(patchID string) string {
	return fmt.Sprintf("patch:%s:journal", patchID)
}

// Append writes an entry to a patch's journal stream.
func (j *RedisJournal) Append(ctx context.Context, patchID string, entry Entry) (string, error) {
	if err := entry.IsValid(); err != nil {
		return "", fmt.Errorf("invalid journal entry: %w", err)
	}

	seq, err := j.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(patchID),
		Values: map[string]interface{}{
			"event":    entry.Event,
			"revision": strconv.FormatUint(entry.Revision, 10),
			"payload":  string(entry.Payload),
			"at":       strconv.FormatInt(entry.At, 10),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append to journal for patch %s: %w", patchID, err)
	}

	return seq, nil
}

// Replay returns every entry after the given sequence ID, oldest first.
func (j *RedisJournal) Replay(ctx context.Context, patchID, after string) ([]Entry, error) {
	from := after
	if from == "" {
		from = "-"
	}

	msgs, err := j.client.XRange(ctx, streamKey(patchID), from, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to replay journal for patch %s: %w", patchID, err)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		// XRANGE bounds are inclusive; skip the cursor entry itself.
		if msg.ID == after {
			continue
		}
		entries = append(entries, decodeMessage(msg))
	}
	return entries, nil
}

// Tail returns the newest count entries, oldest first.
func (j *RedisJournal) Tail(ctx context.Context, patchID string, count int64) ([]Entry, error) {
	msgs, err := j.client.XRevRangeN(ctx, streamKey(patchID), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal tail for patch %s: %w", patchID, err)
	}

	// XREVRANGE returns newest first.
	entries := make([]Entry, len(msgs))
	for i, msg := range msgs {
		entries[len(msgs)-1-i] = decodeMessage(msg)
	}
	return entries, nil
}

// Trim caps the journal at maxLen entries, discarding the oldest.
func (j *RedisJournal) Trim(ctx context.Context, patchID string, maxLen int64) error {
	if err := j.client.XTrimMaxLen(ctx, streamKey(patchID), maxLen).Err(); err != nil {
		return fmt.Errorf("failed to trim journal for patch %s: %w", patchID, err)
	}
	return nil
}

// Len returns the number of entries in a patch's journal.
func (j *RedisJournal) Len(ctx context.Context, patchID string) (int64, error) {
	n, err := j.client.XLen(ctx, streamKey(patchID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal length for patch %s: %w", patchID, err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (j *RedisJournal) Close() error {
	return j.client.Close()
}

// decodeMessage converts a stream message into an Entry. Missing or
// malformed fields decode to zero values; the stream is written only by
// Append, so a malformed entry indicates external tampering and is not
// worth failing a replay over.
func decodeMessage(msg redis.XMessage) Entry {
	entry := Entry{Seq: msg.ID}

	if v, ok := msg.Values["event"].(string); ok {
		entry.Event = v
	}
	if v, ok := msg.Values["revision"].(string); ok {
		if rev, err := strconv.ParseUint(v, 10, 64); err == nil {
			entry.Revision = rev
		}
	}
	if v, ok := msg.Values["payload"].(string); ok {
		entry.Payload = json.RawMessage(v)
	}
	if v, ok := msg.Values["at"].(string); ok {
		if at, err := strconv.ParseInt(v, 10, 64); err == nil {
			entry.At = at
		}
	}
	return entry
}
