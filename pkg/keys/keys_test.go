package keys

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeTsHashRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, HashWidth)
	ts := uint32(123456789)

	tsHash := EncodeTsHash(ts, hash)
	if len(tsHash) != TsHashWidth {
		t.Fatalf("tsHash width = %d, want %d", len(tsHash), TsHashWidth)
	}

	gotTS, gotHash := DecodeTsHash(tsHash)
	if gotTS != ts {
		t.Fatalf("timestamp = %d, want %d", gotTS, ts)
	}
	if !bytes.Equal(gotHash, hash) {
		t.Fatalf("hash = %x, want %x", gotHash, hash)
	}
}

func TestTsHashOrdersByTimestampThenHash(t *testing.T) {
	lowHash := bytes.Repeat([]byte{0x01}, HashWidth)
	highHash := bytes.Repeat([]byte{0xFF}, HashWidth)

	earlier := EncodeTsHash(100, highHash)
	later := EncodeTsHash(101, lowHash)
	if bytes.Compare(earlier, later) >= 0 {
		t.Fatalf("expected earlier timestamp to sort first regardless of hash")
	}

	sameTSLow := EncodeTsHash(100, lowHash)
	sameTSHigh := EncodeTsHash(100, highHash)
	if bytes.Compare(sameTSLow, sameTSHigh) >= 0 {
		t.Fatalf("expected lower hash to sort first at equal timestamp")
	}
}

func TestPrimaryKeyIsPrefixedByPrimaryPrefix(t *testing.T) {
	fid := []byte("alice")
	tsHash := EncodeTsHash(1, bytes.Repeat([]byte{0x01}, HashWidth))

	key := PrimaryKey(fid, tsHash)
	prefix := PrimaryPrefix(fid)
	if !bytes.HasPrefix(key, prefix) {
		t.Fatalf("PrimaryKey(%x) does not have PrimaryPrefix(%x) as a prefix", key, prefix)
	}
}

func TestPairIndexKeysDistinctAndPrefixed(t *testing.T) {
	fid := []byte("alice")
	target := []byte("bob")

	addKey := FollowAddKey(fid, target)
	removeKey := FollowRemoveKey(fid, target)
	if bytes.Equal(addKey, removeKey) {
		t.Fatalf("add and remove index keys must differ")
	}
	if !bytes.HasPrefix(addKey, FollowAddsPrefix(fid)) {
		t.Fatalf("add key missing add prefix")
	}
	if !bytes.HasPrefix(removeKey, FollowRemovesPrefix(fid)) {
		t.Fatalf("remove key missing remove prefix")
	}
}

func TestByTargetKeyRoundTripsFidAndTsHash(t *testing.T) {
	target := []byte("bob")
	fid := []byte("alice")
	tsHash := EncodeTsHash(42, bytes.Repeat([]byte{0x09}, HashWidth))

	key := ByTargetKey(target, fid, tsHash)
	if !bytes.HasPrefix(key, ByTargetPrefix(target)) {
		t.Fatalf("by-target key missing by-target prefix")
	}

	gotFid := ByTargetKeyFid(key)
	wantFid := padFid(fid)
	if !bytes.Equal(gotFid, wantFid[:]) {
		t.Fatalf("ByTargetKeyFid = %x, want %x", gotFid, wantFid[:])
	}

	gotTsHash := ByTargetKeyTsHash(key)
	if !bytes.Equal(gotTsHash, tsHash) {
		t.Fatalf("ByTargetKeyTsHash = %x, want %x", gotTsHash, tsHash)
	}
}

func TestShortFidsSortBeforeLongerExtensions(t *testing.T) {
	// A shorter fid must never sort after a longer fid that extends it,
	// since zero-padding on the left preserves this for fids of the
	// kind this system deals with (fixed-format numeric identifiers,
	// not free-form strings where prefix relationships are meaningful).
	short := PrimaryPrefix([]byte{0x01})
	long := PrimaryPrefix([]byte{0x01, 0x00})
	if bytes.Compare(short, long) >= 0 {
		t.Fatalf("expected shorter fid's key to sort before the longer one")
	}
}

func TestFidEncodingIsStableAcrossCalls(t *testing.T) {
	fid := []byte{0x01, 0x02, 0x03}
	a := PrimaryPrefix(fid)
	b := PrimaryPrefix(fid)
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding the same fid twice produced different keys")
	}
}
