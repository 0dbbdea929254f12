package followstore

import (
	"time"

	"followstore/pkg/eventbus"
	"followstore/pkg/fctime"
	"followstore/pkg/ferrors"
	"followstore/pkg/keys"
	"followstore/pkg/logging"
	"followstore/pkg/message"
)

// PruneMessages implements component E: it evicts messages for fid that
// exceed the store's configured caps. With PruneSizeLimit set, the
// oldest messages beyond the limit (by tsHash order, i.e. insertion
// order) are evicted first; with PruneTimeLimit set, any message older
// than the cap is evicted regardless of how many remain. Both checks
// apply if both are configured, per spec.md §4.D. PruneMessages is a
// no-op, not an error, when neither cap is set or fid has nothing to
// evict.
func (s *Store) PruneMessages(fid []byte) error {
	if s.cfg.PruneSizeLimit == nil && s.cfg.PruneTimeLimit == nil {
		return nil
	}

	msgs, err := s.scanPrimary(fid)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	toEvict := map[int]bool{}

	if s.cfg.PruneTimeLimit != nil {
		now := s.now()
		maxAge := *s.cfg.PruneTimeLimit
		for i, m := range msgs {
			if fctime.SinceIsStale(now, m.Timestamp, maxAge) {
				toEvict[i] = true
			}
		}
	}

	if s.cfg.PruneSizeLimit != nil {
		keep := int(*s.cfg.PruneSizeLimit)
		retained := 0
		for i := len(msgs) - 1; i >= 0; i-- {
			if toEvict[i] {
				continue
			}
			retained++
			if retained > keep {
				toEvict[i] = true
			}
		}
	}

	if len(toEvict) == 0 {
		s.metrics.ObservePruneRun(0)
		return nil
	}

	batch := s.engine.NewBatch()
	evicted := make([]*message.Message, 0, len(toEvict))
	for i, m := range msgs {
		if !toEvict[i] {
			continue
		}
		if err := s.stageDelete(batch, m); err != nil {
			return err
		}
		evicted = append(evicted, m)
	}
	if err := batch.Commit(); err != nil {
		return err
	}

	for _, m := range evicted {
		s.publish(eventbus.KindPrune, m)
	}
	s.metrics.ObservePruneRun(len(evicted))
	logging.Info("prune_completed",
		"fid", fidHex(fid),
		"evicted", len(evicted),
		"retained", len(msgs)-len(evicted),
		"oldest_evicted_at", oldestTimestamp(evicted))
	return nil
}

// oldestTimestamp returns the human-readable wall-clock time of the
// oldest entry in evicted. evicted is built by walking msgs in
// ascending tsHash (chronological) order, so its first entry is always
// the oldest evicted message. Returns "" if evicted is empty.
func oldestTimestamp(evicted []*message.Message) string {
	if len(evicted) == 0 {
		return ""
	}
	return fctime.ToTime(evicted[0].Timestamp).Format(time.RFC3339)
}

// scanPrimary returns every message stored for fid, in ascending
// tsHash (insertion) order.
func (s *Store) scanPrimary(fid []byte) ([]*message.Message, error) {
	it, err := s.engine.NewPrefixIterator(keys.PrimaryPrefix(fid))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := []*message.Message{}
	for it.Next() {
		m, err := s.decodeBlob(it.Value())
		if err != nil {
			return nil, ferrors.Unavailablef(err, "decode blob during prune scan")
		}
		out = append(out, m)
	}
	return out, nil
}
