// Package followstore implements component D (and, in prune.go,
// component E): the public FollowStore API — merge, the five get
// operations, and pruning — backed by the key codec, conflict resolver,
// blob store, and event bus in the sibling packages.
package followstore

import (
	"fmt"

	"followstore/pkg/eventbus"
	"followstore/pkg/fctime"
	"followstore/pkg/ferrors"
	"followstore/pkg/keys"
	"followstore/pkg/kv"
	"followstore/pkg/logging"
	"followstore/pkg/message"
	"followstore/pkg/metrics"
	"followstore/pkg/resolver"
)

// Config controls the store's optional pruning caps. Both are nil by
// default (no pruning cap); PruneMessages is a no-op until at least one
// is set. Matches spec.md §4.D: "Both are optional; if both are set
// both apply."
type Config struct {
	// PruneSizeLimit caps the number of retained blobs per fid.
	PruneSizeLimit *uint
	// PruneTimeLimit caps the age of a retained message, in Farcaster
	// time seconds.
	PruneTimeLimit *uint32
	// CompressBlobs enables s2 compression of stored message blobs.
	CompressBlobs bool
	// Clock overrides how PruneMessages reads the current Farcaster
	// time; nil uses fctime.Now. Tests inject a fixed clock so the
	// PruneTimeLimit path can be exercised deterministically.
	Clock func() uint32
}

// DefaultPruneSizeLimit is used by NewDefaultConfig, matching spec.md
// §4.D's documented default.
const DefaultPruneSizeLimit uint = 10_000

// NewDefaultConfig returns the spec's documented default: a size cap of
// 10,000 messages per fid and no age cap.
func NewDefaultConfig() Config {
	limit := DefaultPruneSizeLimit
	return Config{PruneSizeLimit: &limit}
}

// Store is the follow store's public API. Several message-type stores
// in the same hub process share one *kv.Engine (disjoint postfix
// bytes keep their key ranges apart); Store does not own the engine's
// lifecycle.
type Store struct {
	engine  *kv.Engine
	bus     *eventbus.Bus
	metrics *metrics.Collector
	cfg     Config
}

// New builds a Store over engine, publishing through bus and observing
// through collector. Either of bus/collector may be nil: Publish on a
// nil bus is never called (callers must pass a real bus to receive
// events), but a nil collector is accepted and simply skips metrics
// (see metrics.Collector's nil-receiver methods).
func New(engine *kv.Engine, bus *eventbus.Bus, collector *metrics.Collector, cfg Config) *Store {
	return &Store{engine: engine, bus: bus, metrics: collector, cfg: cfg}
}

// Merge applies the conflict-resolution rules of spec.md §4.C to m
// against any existing message for (m.Fid, m.TargetFid), commits the
// resulting state change atomically, and publishes events for the
// outcome. Merging a type outside {FollowAdd, FollowRemove}, or an
// otherwise invalid message, returns a BadRequest error. A duplicate or
// conflict-losing merge returns nil (success, no-op) per spec.md §7.
func (s *Store) Merge(m *message.Message) error {
	if err := m.Validate(); err != nil {
		s.metrics.ObserveMerge("bad_request")
		return err
	}

	existing, err := s.lookupExisting(m.Fid, m.TargetFid)
	if err != nil {
		return err
	}

	outcome, err := resolver.Resolve(m, existing)
	if err != nil {
		s.metrics.ObserveMerge("bad_request")
		return err
	}

	switch outcome.Decision {
	case resolver.DecisionDuplicate:
		s.metrics.ObserveMerge("duplicate")
		logging.Debug("merge_duplicate", "fid", fidHex(m.Fid), "target", fidHex(m.TargetFid))
		return nil

	case resolver.DecisionConflictLoser:
		s.metrics.ObserveMerge("conflict_loser")
		logging.Debug("merge_conflict_loser", "fid", fidHex(m.Fid), "target", fidHex(m.TargetFid))
		return nil

	case resolver.DecisionAccept, resolver.DecisionSupersede:
		batch := s.engine.NewBatch()
		if outcome.Decision == resolver.DecisionSupersede {
			if err := s.stageDelete(batch, outcome.Loser); err != nil {
				return err
			}
		}
		if err := s.stagePut(batch, outcome.Winner); err != nil {
			return err
		}
		if err := batch.Commit(); err != nil {
			return err
		}

		if outcome.Decision == resolver.DecisionSupersede {
			s.publish(eventbus.KindRevoke, outcome.Loser)
		}
		s.publish(eventbus.KindMerge, outcome.Winner)

		if outcome.Decision == resolver.DecisionAccept {
			s.metrics.ObserveMerge("accepted")
		} else {
			s.metrics.ObserveMerge("superseded")
		}
		logging.Info("merge_committed",
			"fid", fidHex(m.Fid), "target", fidHex(m.TargetFid),
			"type", m.Type.String(), "decision", decisionName(outcome.Decision))
		return nil

	default:
		return ferrors.Unavailablef(fmt.Errorf("unreachable resolver decision %d", outcome.Decision), "merge")
	}
}

// GetFollowAdd returns the FollowAdd message for (fid, target), or a
// NotFound error if none exists.
func (s *Store) GetFollowAdd(fid, target []byte) (*message.Message, error) {
	return s.getPair(fid, target, keys.FollowAddKey(fid, target))
}

// GetFollowRemove returns the FollowRemove message for (fid, target), or
// a NotFound error if none exists.
func (s *Store) GetFollowRemove(fid, target []byte) (*message.Message, error) {
	return s.getPair(fid, target, keys.FollowRemoveKey(fid, target))
}

// GetFollowsByUser returns every FollowAdd fid follows, ordered by
// target-fid byte order. Returns an empty slice, not an error, when fid
// follows no one.
func (s *Store) GetFollowsByUser(fid []byte) ([]*message.Message, error) {
	return s.listPairIndex(fid, keys.FollowAddsPrefix(fid))
}

// GetFollowRemovesByUser returns every retained FollowRemove fid holds,
// ordered by target-fid byte order.
func (s *Store) GetFollowRemovesByUser(fid []byte) ([]*message.Message, error) {
	return s.listPairIndex(fid, keys.FollowRemovesPrefix(fid))
}

// GetFollowsByTargetUser returns every FollowAdd whose target is
// target, ordered by follower-fid byte order.
func (s *Store) GetFollowsByTargetUser(target []byte) ([]*message.Message, error) {
	it, err := s.engine.NewPrefixIterator(keys.ByTargetPrefix(target))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := []*message.Message{}
	for it.Next() {
		followerFid := keys.ByTargetKeyFid(it.Key())
		tsHash := keys.ByTargetKeyTsHash(it.Key())
		blob, err := s.engine.Get(keys.PrimaryKey(followerFid, tsHash))
		if err != nil {
			if ferrors.IsNotFound(err) {
				return nil, ferrors.NotFoundf("by-target index dangles for target %x: blob missing for fid %x tsHash %x", target, followerFid, tsHash)
			}
			return nil, err
		}
		m, err := s.decodeBlob(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) lookupExisting(fid, target []byte) (*message.Message, error) {
	if m, err := s.getPair(fid, target, keys.FollowAddKey(fid, target)); err == nil {
		return m, nil
	} else if !ferrors.IsNotFound(err) {
		return nil, err
	}
	if m, err := s.getPair(fid, target, keys.FollowRemoveKey(fid, target)); err == nil {
		return m, nil
	} else if !ferrors.IsNotFound(err) {
		return nil, err
	}
	return nil, nil
}

func (s *Store) getPair(fid, target []byte, indexKey []byte) (*message.Message, error) {
	tsHash, err := s.engine.Get(indexKey)
	if err != nil {
		return nil, err // NotFound propagates as-is: no add/remove for this pair
	}
	blob, err := s.engine.Get(keys.PrimaryKey(fid, tsHash))
	if err != nil {
		if ferrors.IsNotFound(err) {
			return nil, ferrors.NotFoundf("pair index dangles for fid %x target %x: blob missing for tsHash %x", fid, target, tsHash)
		}
		return nil, err
	}
	return s.decodeBlob(blob)
}

func (s *Store) listPairIndex(fid []byte, prefix []byte) ([]*message.Message, error) {
	it, err := s.engine.NewPrefixIterator(prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := []*message.Message{}
	for it.Next() {
		tsHash := it.Value()
		blob, err := s.engine.Get(keys.PrimaryKey(fid, tsHash))
		if err != nil {
			if ferrors.IsNotFound(err) {
				return nil, ferrors.NotFoundf("pair index dangles for fid %x: blob missing for tsHash %x", fid, tsHash)
			}
			return nil, err
		}
		m, err := s.decodeBlob(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) stagePut(batch *kv.Batch, m *message.Message) error {
	raw, err := kv.MarshalScratch(m.EncodeInto)
	if err != nil {
		return err
	}
	if s.cfg.CompressBlobs {
		raw = kv.CompressBlob(raw)
	}
	tsHash := m.TsHash()
	batch.Set(keys.PrimaryKey(m.Fid, tsHash), raw)

	switch m.Type {
	case message.TypeFollowAdd:
		batch.Set(keys.FollowAddKey(m.Fid, m.TargetFid), tsHash)
		batch.Set(keys.ByTargetKey(m.TargetFid, m.Fid, tsHash), nil)
	case message.TypeFollowRemove:
		batch.Set(keys.FollowRemoveKey(m.Fid, m.TargetFid), tsHash)
	}
	return nil
}

func (s *Store) stageDelete(batch *kv.Batch, m *message.Message) error {
	tsHash := m.TsHash()
	batch.Delete(keys.PrimaryKey(m.Fid, tsHash))

	switch m.Type {
	case message.TypeFollowAdd:
		batch.Delete(keys.FollowAddKey(m.Fid, m.TargetFid))
		batch.Delete(keys.ByTargetKey(m.TargetFid, m.Fid, tsHash))
	case message.TypeFollowRemove:
		batch.Delete(keys.FollowRemoveKey(m.Fid, m.TargetFid))
	}
	return nil
}

func (s *Store) decodeBlob(raw []byte) (*message.Message, error) {
	if s.cfg.CompressBlobs {
		decompressed, err := kv.DecompressBlob(raw)
		if err != nil {
			return nil, err
		}
		raw = decompressed
	}
	return message.FromBytes(raw)
}

func (s *Store) publish(kind eventbus.Kind, m *message.Message) {
	if s.bus != nil {
		s.bus.Publish(kind, m)
	}
	s.metrics.ObserveEvent(string(kind))
}

func (s *Store) now() uint32 {
	if s.cfg.Clock != nil {
		return s.cfg.Clock()
	}
	return fctime.Now()
}

func fidHex(fid []byte) string { return fmt.Sprintf("%x", fid) }

func decisionName(d resolver.Decision) string {
	switch d {
	case resolver.DecisionAccept:
		return "accept"
	case resolver.DecisionSupersede:
		return "supersede"
	case resolver.DecisionDuplicate:
		return "duplicate"
	case resolver.DecisionConflictLoser:
		return "conflict_loser"
	default:
		return "unknown"
	}
}
