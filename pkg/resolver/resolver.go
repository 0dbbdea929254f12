// Package resolver implements component C: given an incoming add/remove
// message and the single existing message (if any) for the same
// (fid, target) pair, it decides the winner. The resolver never errors
// out to signal a losing message — losing is success, a no-op — it only
// errors when the message itself isn't one this store handles.
package resolver

import (
	"bytes"

	"followstore/pkg/message"
)

// Decision is the resolver's verdict for a merge attempt.
type Decision int

const (
	// DecisionAccept means there was no existing message for the pair;
	// the incoming message is installed outright.
	DecisionAccept Decision = iota
	// DecisionDuplicate means the incoming message is byte-identical to
	// the existing one; merging is a no-op success.
	DecisionDuplicate
	// DecisionConflictLoser means the incoming message loses to the
	// existing one; merging is a no-op success, not an error.
	DecisionConflictLoser
	// DecisionSupersede means the incoming message wins and the
	// existing message must be deleted as part of the same batch.
	DecisionSupersede
)

// Outcome carries the resolver's verdict plus, for Accept/Supersede, the
// winning message to install and, for Supersede, the losing message to
// delete.
type Outcome struct {
	Decision Decision
	Winner   *message.Message
	Loser    *message.Message
}

// Resolve applies spec.md §4.C rules 1-7. existing may be nil, meaning
// no message currently occupies the pair.
func Resolve(incoming, existing *message.Message) (Outcome, error) {
	if err := incoming.Validate(); err != nil {
		return Outcome{}, err
	}

	if existing == nil {
		return Outcome{Decision: DecisionAccept, Winner: incoming}, nil
	}

	cmp := compareTimestampHash(incoming, existing)
	switch {
	case cmp < 0:
		// Rule 3: incoming is strictly older/lower-hash; conflict loser.
		return Outcome{Decision: DecisionConflictLoser}, nil

	case cmp > 0:
		// Rule 5/6: incoming strictly newer wins regardless of add/remove.
		return Outcome{Decision: DecisionSupersede, Winner: incoming, Loser: existing}, nil

	default:
		// cmp == 0: exact (timestamp, hash) match.
		if incoming.Type == existing.Type {
			// Rule 4: byte-equal message, re-merged.
			return Outcome{Decision: DecisionDuplicate}, nil
		}
		// Rule 7: same tsHash across types, remove wins the tie.
		if incoming.Type == message.TypeFollowRemove {
			return Outcome{Decision: DecisionSupersede, Winner: incoming, Loser: existing}, nil
		}
		return Outcome{Decision: DecisionConflictLoser}, nil
	}
}

// compareTimestampHash orders two messages by (timestamp, hash)
// lexicographically, per spec.md §4.C rule 2.
func compareTimestampHash(a, b *message.Message) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Hash, b.Hash)
}
