package format

import (
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
)

// KeyRecord is an ET_KEY payload.
//
//	Offset  Size  Field
//	0x00    4     Next sibling id
//	0x04    4     First child id (a key, or an ET_INDEX hash table)
//	0x08    4     First value id
//	0x0C    1     Name length in UTF-16 code units
//	0x0D    2     Flags
//	0x0F    1     Reserved
//	0x10    n     Name (UTF-16LE)
type KeyRecord struct {
	NextSibling uint32
	FirstChild  uint32
	FirstValue  uint32
	NameLength  uint8
	Flags       uint16
	NameRaw     []byte
}

// Name decodes the UTF-16LE name.
func (k KeyRecord) Name() (string, error) {
	return buf.UTF16LE.Decode(k.NameRaw)
}

// DecodeKey decodes an ET_KEY payload with bounds checking.
func DecodeKey(b []byte) (KeyRecord, error) {
	if len(b) < KeyMinSize {
		return KeyRecord{}, fmt.Errorf("key: %w (have %d, need %d)", ErrTruncated, len(b), KeyMinSize)
	}
	c := buf.NewCursor(b)
	var k KeyRecord
	k.NextSibling, _ = c.U32(KeyNextSiblingOffset)
	k.FirstChild, _ = c.U32(KeyFirstChildOffset)
	k.FirstValue, _ = c.U32(KeyFirstValueOffset)
	k.NameLength, _ = c.U8(KeyNameLenOffset)
	k.Flags, _ = c.U16(KeyFlagsOffset)

	name, err := c.Bytes(KeyNameOffset, int(k.NameLength)*UTF16UnitSize)
	if err != nil {
		return KeyRecord{}, fmt.Errorf("key name: %w: %w", ErrTruncated, err)
	}
	k.NameRaw = name
	return k, nil
}
