package values

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
	"github.com/joshuapare/cehive/internal/format"
)

// Decode interprets raw according to t. It never fails: problems are
// reported through Decoded.Err and the raw bytes are always retained.
func Decode(t Type, raw []byte) Decoded {
	d := Decoded{Type: t, Bytes: raw}
	switch t {
	case None, Binary, ResourceList, FullResourceDescriptor, ResourceRequirementsList:
		d.Kind = KindBinary
	case String, ExpandString, Link:
		decodeString(&d, raw)
	case MultiString:
		decodeMultiString(&d, raw)
	case DWord:
		decodeFixed(&d, raw, format.DWORDSize, func(b []byte) uint64 {
			return uint64(binary.LittleEndian.Uint32(b))
		})
	case DWordBigEndian:
		decodeFixed(&d, raw, format.DWORDSize, func(b []byte) uint64 {
			return uint64(binary.BigEndian.Uint32(b))
		})
	case QWord:
		decodeFixed(&d, raw, format.QWORDSize, binary.LittleEndian.Uint64)
	default:
		d.Kind = KindRaw
	}
	return d
}

func decodeFixed(d *Decoded, raw []byte, width int, read func([]byte) uint64) {
	if len(raw) != width {
		d.Kind = KindRaw
		d.Err = fmt.Errorf("%w: %s needs %d bytes, have %d", ErrMalformed, d.Type, width, len(raw))
		return
	}
	d.Uint = read(raw)
	if width == format.DWORDSize {
		d.Kind = KindUint32
	} else {
		d.Kind = KindUint64
	}
}

func decodeString(d *Decoded, raw []byte) {
	d.Kind = KindString
	s, _, err := buf.NewCursor(raw).CString(0, buf.UTF16LE, 0)
	if err != nil {
		d.Kind = KindRaw
		d.Err = fmt.Errorf("%w: %w", ErrMalformed, err)
		return
	}
	d.Str = s
	if len(raw)%format.UTF16UnitSize != 0 {
		d.Err = fmt.Errorf("%w: %s has odd length %d", ErrMalformed, d.Type, len(raw))
	}
}

// decodeMultiString splits a sequence of NUL-terminated strings ending with
// an empty string. Only an empty string in the final unit terminates the
// list; empty strings before it are kept. Strings read before a missing
// terminator are kept.
func decodeMultiString(d *Decoded, raw []byte) {
	d.Kind = KindStrings
	d.Strs = []string{}
	if len(raw) == 0 {
		return
	}
	if len(raw)%format.UTF16UnitSize != 0 {
		d.Err = fmt.Errorf("%w: %s has odd length %d", ErrMalformed, d.Type, len(raw))
	}
	at := 0
	for at+1 < len(raw) {
		end := nulUnit(raw, at)
		if end == at && at+format.UTF16UnitSize >= len(raw) {
			return
		}
		stop := end
		if end < 0 {
			stop = len(raw)
		}
		s, err := buf.UTF16LE.Decode(raw[at:stop])
		if err != nil {
			d.Err = fmt.Errorf("%w: %w", ErrMalformed, err)
			return
		}
		d.Strs = append(d.Strs, s)
		if end < 0 {
			break
		}
		at = end + format.UTF16UnitSize
	}
	if d.Err == nil {
		d.Err = fmt.Errorf("%w: %s missing empty terminator", ErrMalformed, d.Type)
	}
}

// nulUnit returns the offset of the first zero UTF-16 unit at or after at,
// or -1.
func nulUnit(raw []byte, at int) int {
	for i := at; i+1 < len(raw); i += format.UTF16UnitSize {
		if raw[i] == 0 && raw[i+1] == 0 {
			return i
		}
	}
	return -1
}
