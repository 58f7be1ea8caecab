// Package journal persists the patch event stream to Redis.
//
// Every mutation and compile pass publishes events on the store's
// dispatcher; the journal mirrors them onto a Redis stream so external
// tooling (session recovery, collaboration relays, debugging UIs) can
// replay what happened to a patch without holding the store in memory.
//
// # Core Components
//
// Client: interface for reading and writing journal entries. Backed by
// a Redis stream per patch.
//
// Entry: one journaled event, carrying the event name, the store
// revision at publish time, and the JSON-encoded event payload.
//
// Bridge: subscribes to a store's dispatcher and appends every event to
// the journal asynchronously, so Redis latency never stalls a commit.
//
// # Redis Key Schema
//
//	patch:<patchID>:journal - stream of journal entries
//
// Each stream message carries the fields "event", "revision", "payload"
// and "at" (Unix milliseconds).
//
// # Usage
//
//	client, err := journal.NewRedisJournal(journal.RedisOptions{
//		URL: "redis://localhost:6379",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	bridge := journal.NewBridge(store, client)
//	defer bridge.Close()
//
//	// ... edit the patch; entries accumulate ...
//
//	entries, err := client.Replay(ctx, store.PatchID(), "")
//	for _, e := range entries {
//		fmt.Printf("%s rev=%d %s\n", e.Seq, e.Revision, e.Event)
//	}
//
// # Thread Safety
//
// RedisJournal and Bridge are safe for concurrent use.
package journal
