package format

import (
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
)

// ValueRecord is an ET_VALUE payload.
//
//	Offset  Size  Field
//	0x00    4     Next value id
//	0x04    2     Value type (REG_*)
//	0x06    2     Data length in bytes
//	0x08    2     Name length in code units (low byte), flags (high byte)
//	0x0A    n     Name (UTF-16LE)
//	...     m     Data
type ValueRecord struct {
	Next       uint32
	Type       uint16
	DataLength uint16
	NameField  uint16
	NameRaw    []byte
	Data       []byte
}

// NameLength returns the name length in code units.
func (v ValueRecord) NameLength() int {
	return int(v.NameField & ValueNameLenMask)
}

// NameFlags returns the bits packed above the name length. Their meaning is
// not known.
func (v ValueRecord) NameFlags() uint8 {
	return uint8(v.NameField >> ValueNameFlagsShift)
}

// Name decodes the UTF-16LE name.
func (v ValueRecord) Name() (string, error) {
	return buf.UTF16LE.Decode(v.NameRaw)
}

// DecodeValue decodes an ET_VALUE payload with bounds checking. Data aliases b.
func DecodeValue(b []byte) (ValueRecord, error) {
	if len(b) < ValueMinSize {
		return ValueRecord{}, fmt.Errorf("value: %w (have %d, need %d)", ErrTruncated, len(b), ValueMinSize)
	}
	c := buf.NewCursor(b)
	var v ValueRecord
	v.Next, _ = c.U32(ValueNextOffset)
	v.Type, _ = c.U16(ValueTypeOffset)
	v.DataLength, _ = c.U16(ValueDataLenOffset)
	v.NameField, _ = c.U16(ValueNameLenOffset)

	if err := c.Seek(ValueNameOffset); err != nil {
		return ValueRecord{}, fmt.Errorf("value: %w", err)
	}
	name, err := c.Next(v.NameLength() * UTF16UnitSize)
	if err != nil {
		return ValueRecord{}, fmt.Errorf("value name: %w: %w", ErrTruncated, err)
	}
	data, err := c.Next(int(v.DataLength))
	if err != nil {
		return ValueRecord{}, fmt.Errorf("value data: %w: %w", ErrTruncated, err)
	}
	v.NameRaw = name
	v.Data = data
	return v, nil
}
