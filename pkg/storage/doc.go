/*
Package storage provides the durable key-value abstraction that backs
session continuity.

# Interface

Every backend implements KV:

	type KV interface {
	    Get(ctx context.Context, key string) ([]byte, error)
	    Set(ctx context.Context, key string, value []byte) error
	    Close() error
	}

Get reports a missing key with ErrNotFound. Any other error means the
backend itself is unavailable (disk full, closed, permission denied); the
session store treats those differently from a missing key.

# Origin Scoping

A KV instance belongs to one page origin, the same way browser local
storage does. The memory backend is scoped by construction (one map per
instance). The badger backend prefixes every key with an xxhash of the
origin so several origins can share one database directory:

	store, err := badger.New(badger.Config{
	    Path:   "./data",
	    Origin: "https://shop.example.com",
	})
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

# Backends

  - memory: map-backed, lost on restart. Tests and single-page-load hosts.
  - badger: BadgerDB, persists across process restarts (page loads).

# Concurrency

Backends are safe for concurrent use. Read-modify-write sequences built
on top of Get and Set are not atomic: two hosts sharing one origin can
race when renewing the same key.
*/
package storage
