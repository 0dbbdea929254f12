// Package keys builds and decodes the composite byte keys the follow
// store persists against an ordered key-value engine. Every key starts
// with a version byte so the fid padding/length strategy below can
// change later without breaking readers of already-written keys.
package keys

import "encoding/binary"

// KeyVersion prefixes every key this package builds.
const KeyVersion byte = 0x01

// Root prefixes distinguish the per-user region from the inverse
// by-target region.
const (
	RootPrefixUser     byte = 0x02
	RootPrefixByTarget byte = 0x03
)

// Postfixes distinguish the logical index within a user's region.
const (
	FollowMessagePostfix byte = 0x01
	FollowAddsPostfix    byte = 0x02
	FollowRemovesPostfix byte = 0x03
)

// FidWidth is the fixed width fids are padded to inside a key. Fids
// longer than this cannot be encoded; callers validate this at the
// message boundary before any key is built.
const FidWidth = 32

// HashWidth is the fixed width of the opaque message hash. The hash is
// treated as an opaque byte string by this package and by the resolver;
// this constant only exists so tsHash has a fixed, sortable width.
const HashWidth = 20

// TsHashWidth is the width of a tsHash: a 4-byte big-endian timestamp
// followed by a fixed-width hash.
const TsHashWidth = 4 + HashWidth

// padFid left-pads fid with 0x00 up to FidWidth. A fid longer than
// FidWidth is truncated from the left by this function; callers must
// reject oversized fids before reaching here (see message.Validate).
func padFid(fid []byte) [FidWidth]byte {
	var out [FidWidth]byte
	if len(fid) >= FidWidth {
		copy(out[:], fid[len(fid)-FidWidth:])
		return out
	}
	copy(out[FidWidth-len(fid):], fid)
	return out
}

// EncodeTsHash concatenates a big-endian timestamp and the opaque hash
// into the fixed-width identity key used for chronological ordering
// with hash as tiebreak. hash shorter than HashWidth is zero-padded on
// the right so every tsHash this package emits has the same width;
// callers should supply exactly HashWidth bytes.
func EncodeTsHash(timestamp uint32, hash []byte) []byte {
	out := make([]byte, TsHashWidth)
	binary.BigEndian.PutUint32(out[:4], timestamp)
	copy(out[4:], hash)
	return out
}

// DecodeTsHash splits a tsHash back into its timestamp and hash parts.
func DecodeTsHash(tsHash []byte) (timestamp uint32, hash []byte) {
	timestamp = binary.BigEndian.Uint32(tsHash[:4])
	hash = append([]byte(nil), tsHash[4:TsHashWidth]...)
	return timestamp, hash
}

// PrimaryKey builds the key for a message blob: the primary store of
// record, range-scannable by fid in insertion (tsHash) order.
func PrimaryKey(fid, tsHash []byte) []byte {
	pfid := padFid(fid)
	out := make([]byte, 0, 1+1+FidWidth+1+len(tsHash))
	out = append(out, KeyVersion, RootPrefixUser)
	out = append(out, pfid[:]...)
	out = append(out, FollowMessagePostfix)
	out = append(out, tsHash...)
	return out
}

// PrimaryPrefix is the range-scan prefix for all blobs belonging to fid,
// in ascending tsHash (insertion) order.
func PrimaryPrefix(fid []byte) []byte {
	pfid := padFid(fid)
	out := make([]byte, 0, 1+1+FidWidth+1)
	out = append(out, KeyVersion, RootPrefixUser)
	out = append(out, pfid[:]...)
	out = append(out, FollowMessagePostfix)
	return out
}

// FollowAddKey builds the "add by pair" index key: presence indicates a
// FollowAdd exists for (fid, target).
func FollowAddKey(fid, target []byte) []byte {
	return pairIndexKey(fid, target, FollowAddsPostfix)
}

// FollowAddsPrefix is the range-scan prefix over all add-index entries
// for fid, in ascending target-fid order.
func FollowAddsPrefix(fid []byte) []byte {
	return pairIndexPrefix(fid, FollowAddsPostfix)
}

// FollowRemoveKey builds the "remove by pair" index key.
func FollowRemoveKey(fid, target []byte) []byte {
	return pairIndexKey(fid, target, FollowRemovesPostfix)
}

// FollowRemovesPrefix is the range-scan prefix over all remove-index
// entries for fid, in ascending target-fid order.
func FollowRemovesPrefix(fid []byte) []byte {
	return pairIndexPrefix(fid, FollowRemovesPostfix)
}

func pairIndexKey(fid, target []byte, postfix byte) []byte {
	pfid := padFid(fid)
	ptarget := padFid(target)
	out := make([]byte, 0, 1+1+FidWidth+1+FidWidth)
	out = append(out, KeyVersion, RootPrefixUser)
	out = append(out, pfid[:]...)
	out = append(out, postfix)
	out = append(out, ptarget[:]...)
	return out
}

func pairIndexPrefix(fid []byte, postfix byte) []byte {
	pfid := padFid(fid)
	out := make([]byte, 0, 1+1+FidWidth+1)
	out = append(out, KeyVersion, RootPrefixUser)
	out = append(out, pfid[:]...)
	out = append(out, postfix)
	return out
}

// ByTargetKey builds the inverse "adds targeting a user" index key.
// Written only for FollowAdd messages.
func ByTargetKey(target, fid, tsHash []byte) []byte {
	ptarget := padFid(target)
	pfid := padFid(fid)
	out := make([]byte, 0, 1+1+FidWidth+FidWidth+len(tsHash))
	out = append(out, KeyVersion, RootPrefixByTarget)
	out = append(out, ptarget[:]...)
	out = append(out, pfid[:]...)
	out = append(out, tsHash...)
	return out
}

// ByTargetPrefix is the range-scan prefix over all adds targeting
// target, in ascending follower-fid order.
func ByTargetPrefix(target []byte) []byte {
	ptarget := padFid(target)
	out := make([]byte, 0, 1+1+FidWidth)
	out = append(out, KeyVersion, RootPrefixByTarget)
	out = append(out, ptarget[:]...)
	return out
}

// ByTargetKeyFid extracts the follower fid segment from a by-target key
// previously built with ByTargetKey. The returned slice is the
// fixed-width padded representation, not necessarily the caller's
// original fid bytes.
func ByTargetKeyFid(key []byte) []byte {
	start := 1 + 1 + FidWidth
	end := start + FidWidth
	return append([]byte(nil), key[start:end]...)
}

// ByTargetKeyTsHash extracts the tsHash segment from a by-target key.
func ByTargetKeyTsHash(key []byte) []byte {
	start := 1 + 1 + FidWidth + FidWidth
	return append([]byte(nil), key[start:]...)
}
