// Package kv adapts github.com/cockroachdb/pebble to the KV engine
// contract spec.md §6 describes: get, ordered iteration, and atomic
// batch commit. The embedded engine itself is out of scope per
// spec.md §1 — this package is a thin wrapper, not a reimplementation,
// mirroring how the teacher's pkg/store/pebble.go talks to Pebble
// directly rather than through an abstraction layer.
package kv

import (
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/s2"
	"github.com/valyala/bytebufferpool"

	"followstore/pkg/ferrors"
	"followstore/pkg/logging"
)

// Engine wraps an open Pebble handle. Unlike the teacher's package-level
// `var db *pebble.DB`, Engine is a value: several message-type stores in
// the same process share one Engine instance rather than a hidden
// global, per spec.md §5's "process-wide, shared across all
// message-type stores" KV handle.
type Engine struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at path.
func Open(path string, opts *pebble.Options) (*Engine, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	logging.Info("kv_opening", "path", path)
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, ferrors.Unavailablef(err, "open pebble at "+path)
	}
	logging.Info("kv_opened", "path", path)
	return &Engine{db: db}, nil
}

// Close closes the underlying Pebble handle.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return ferrors.Unavailablef(err, "close pebble")
	}
	logging.Info("kv_closed")
	return nil
}

// Get reads a single key. It returns a NotFound ferrors error when the
// key is absent, matching spec.md §6's `get(key) → bytes | NotFound`.
func (e *Engine) Get(key []byte) ([]byte, error) {
	v, closer, err := e.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ferrors.NotFoundf("key %x", key)
	}
	if err != nil {
		return nil, ferrors.Unavailablef(err, "get")
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, nil
}

// Iterator is a forward range-scan cursor over keys sharing prefix, in
// ascending byte order. Callers must call Close when done. An Iterator
// is not safe for concurrent use.
type Iterator struct {
	it      *pebble.Iterator
	prefix  []byte
	started bool
	done    bool
}

// NewPrefixIterator returns an Iterator positioned before the first key
// with the given prefix; call Next to advance to the first entry.
func (e *Engine) NewPrefixIterator(prefix []byte) (*Iterator, error) {
	it, err := e.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, ferrors.Unavailablef(err, "new iterator")
	}
	return &Iterator{it: it, prefix: prefix}, nil
}

// Next advances the cursor and reports whether a matching entry is now
// current.
func (i *Iterator) Next() bool {
	if i.done {
		return false
	}
	var valid bool
	if !i.started {
		valid = i.it.SeekGE(i.prefix)
		i.started = true
	} else {
		valid = i.it.Next()
	}
	if !valid || !hasPrefix(i.it.Key(), i.prefix) {
		i.done = true
		return false
	}
	return true
}

// Key returns the current key. The returned slice is valid only until
// the next call to Next or Close.
func (i *Iterator) Key() []byte { return i.it.Key() }

// Value returns a copy of the current value.
func (i *Iterator) Value() []byte {
	return append([]byte(nil), i.it.Value()...)
}

// Close releases the iterator.
func (i *Iterator) Close() error {
	return i.it.Close()
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for idx := range prefix {
		if key[idx] != prefix[idx] {
			return false
		}
	}
	return true
}

// Batch accumulates writes/deletes for one atomic commit, per spec.md
// §6's `batch.put`/`batch.del`/`commit` contract.
type Batch struct {
	b *pebble.Batch
}

// NewBatch starts a new atomic batch against e.
func (e *Engine) NewBatch() *Batch {
	return &Batch{b: e.db.NewBatch()}
}

// Set stages a key/value write.
func (b *Batch) Set(key, value []byte) {
	_ = b.b.Set(key, value, nil)
}

// Delete stages a key deletion.
func (b *Batch) Delete(key []byte) {
	_ = b.b.Delete(key, nil)
}

// Commit applies the batch atomically and durably.
func (b *Batch) Commit() error {
	if err := b.b.Commit(pebble.Sync); err != nil {
		return ferrors.Unavailablef(err, "commit batch")
	}
	return nil
}

// CompressBlob compresses v with s2, for stores configured to trade CPU
// for disk footprint on cold blobs. Grounded on the sibling example
// repo's SSTable block codec, which compresses blocks the same way.
func CompressBlob(v []byte) []byte {
	return s2.Encode(nil, v)
}

// DecompressBlob reverses CompressBlob.
func DecompressBlob(v []byte) ([]byte, error) {
	out, err := s2.Decode(nil, v)
	if err != nil {
		return nil, ferrors.Unavailablef(err, "decompress blob")
	}
	return out, nil
}

// MarshalScratch borrows a pooled byte buffer for building a blob value
// before a batch Set, avoiding a fresh allocation per merge — the same
// pattern the teacher's pkg/ingest/queue uses for per-op payloads.
// encode writes into the pooled buffer via the io.Writer interface, so
// callers need only a reference to this package, not to bytebufferpool
// itself.
func MarshalScratch(encode func(w io.Writer) error) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Reset()
	if err := encode(buf); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}
