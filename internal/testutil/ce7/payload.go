package ce7

import (
	"strings"

	farm "github.com/dgryski/go-farm"

	"github.com/joshuapare/cehive/internal/format"
)

// UTF16 encodes s as UTF-16LE without a terminator. Only BMP runes are
// supported.
func UTF16(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

// UTF16Z encodes s as UTF-16LE with a NUL terminator.
func UTF16Z(s string) []byte {
	return append(UTF16(s), 0, 0)
}

// MultiSZ encodes parts as a REG_MULTI_SZ payload.
func MultiSZ(parts ...string) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, UTF16Z(p)...)
	}
	return append(out, 0, 0)
}

// KeyPayload encodes an ET_KEY payload.
func KeyPayload(next, firstChild, firstValue uint32, flags uint16, name string) []byte {
	n := UTF16(name)
	b := make([]byte, format.KeyNameOffset+len(n))
	format.PutU32(b, format.KeyNextSiblingOffset, next)
	format.PutU32(b, format.KeyFirstChildOffset, firstChild)
	format.PutU32(b, format.KeyFirstValueOffset, firstValue)
	b[format.KeyNameLenOffset] = byte(len(n) / 2)
	format.PutU16(b, format.KeyFlagsOffset, flags)
	copy(b[format.KeyNameOffset:], n)
	return b
}

// ValuePayload encodes an ET_VALUE payload.
func ValuePayload(next uint32, typ uint16, name string, data []byte) []byte {
	n := UTF16(name)
	b := make([]byte, format.ValueNameOffset+len(n)+len(data))
	format.PutU32(b, format.ValueNextOffset, next)
	format.PutU16(b, format.ValueTypeOffset, typ)
	format.PutU16(b, format.ValueDataLenOffset, uint16(len(data)))
	format.PutU16(b, format.ValueNameLenOffset, uint16(len(n)/2))
	copy(b[format.ValueNameOffset:], n)
	copy(b[format.ValueNameOffset+len(n):], data)
	return b
}

// RootsPayload encodes an ET_ROOTS payload.
func RootsPayload(ids [format.RootsSlotCount]uint32) []byte {
	b := make([]byte, format.RootsMinSize)
	for i, id := range ids {
		format.PutU32(b, i*format.OffsetFieldSize, id)
	}
	return b
}

// IndexPayload encodes an ET_INDEX payload.
func IndexPayload(entries []format.IndexEntry) []byte {
	b := make([]byte, len(entries)*format.IndexEntrySize)
	for i, e := range entries {
		format.PutU32(b, i*format.IndexEntrySize+format.IndexHashOffset, e.Hash)
		format.PutU32(b, i*format.IndexEntrySize+format.IndexIDOffset, e.ID)
	}
	return b
}

// NameHash is the hash the encoder stores in index entries. The decoder
// does not interpret it.
func NameHash(name string) uint32 {
	return farm.Fingerprint32([]byte(strings.ToUpper(name)))
}
