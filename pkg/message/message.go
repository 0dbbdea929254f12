// Package message is this store's concrete realization of the "opaque
// bytes with typed accessors" message contract spec.md §6 describes.
// Construction of the signed envelope and signature validation happen
// upstream of this package; here a message is already a trusted,
// decoded record.
package message

import (
	"bytes"
	"encoding/json"
	"io"

	"followstore/pkg/ferrors"
	"followstore/pkg/keys"
)

// Type tags which logical message kind a Message carries. FollowAdd and
// FollowRemove are the only types this store acts on; any other value
// fails Validate, which the store calls before merging.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeFollowAdd
	TypeFollowRemove
)

func (t Type) String() string {
	switch t {
	case TypeFollowAdd:
		return "FollowAdd"
	case TypeFollowRemove:
		return "FollowRemove"
	default:
		return "Unknown"
	}
}

// Message is the tagged-variant envelope spec.md §9 describes: FollowAdd
// and FollowRemove differ only in Type and in which pair index the
// store populates for them.
type Message struct {
	Fid       []byte `json:"fid"`
	Type      Type   `json:"type"`
	Timestamp uint32 `json:"timestamp"`
	Hash      []byte `json:"hash"`
	TargetFid []byte `json:"target_fid"`
}

// Validate reports whether m has the shape this store requires: a
// known type, a non-empty fid and target fid within the key codec's
// fixed width, and a hash of the codec's fixed width.
func (m *Message) Validate() error {
	if m.Type != TypeFollowAdd && m.Type != TypeFollowRemove {
		return ferrors.BadRequestf("unsupported message type %d", m.Type)
	}
	if len(m.Fid) == 0 || len(m.Fid) > keys.FidWidth {
		return ferrors.BadRequestf("fid length %d out of range (1..%d)", len(m.Fid), keys.FidWidth)
	}
	if len(m.TargetFid) == 0 || len(m.TargetFid) > keys.FidWidth {
		return ferrors.BadRequestf("target fid length %d out of range (1..%d)", len(m.TargetFid), keys.FidWidth)
	}
	if len(m.Hash) != keys.HashWidth {
		return ferrors.BadRequestf("hash length %d, want %d", len(m.Hash), keys.HashWidth)
	}
	return nil
}

// TsHash is the message's identity key: a big-endian timestamp followed
// by the hash, sorting chronologically with hash as tiebreak.
func (m *Message) TsHash() []byte {
	return keys.EncodeTsHash(m.Timestamp, m.Hash)
}

// EncodeInto writes m's wire encoding to w, for a caller that wants to
// marshal directly into a scratch buffer rather than allocate a fresh
// byte slice.
func (m *Message) EncodeInto(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return ferrors.BadRequestf("marshal message: %v", err)
	}
	return nil
}

// Bytes serializes m for storage as the primary blob value.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.EncodeInto(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes a primary blob value back into a Message.
func FromBytes(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, ferrors.Unavailablef(err, "decode stored message")
	}
	return &m, nil
}

// Equal reports whether a and b are byte-identical messages, i.e. the
// same merge submitted twice. Comparing the identifying fields is
// equivalent to and cheaper than comparing marshaled bytes, since Hash
// already uniquely identifies the message's content.
func Equal(a, b *Message) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type == b.Type &&
		bytes.Equal(a.Fid, b.Fid) &&
		bytes.Equal(a.TargetFid, b.TargetFid) &&
		a.Timestamp == b.Timestamp &&
		bytes.Equal(a.Hash, b.Hash)
}
