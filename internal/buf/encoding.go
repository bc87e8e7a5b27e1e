package buf

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names the character encoding of a string field.
type Encoding uint8

// UTF16LE is used for every key and value name on CE hives.
const UTF16LE Encoding = iota

func (e Encoding) String() string {
	if e == UTF16LE {
		return "utf-16le"
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// UnitSize returns the width of one code unit in bytes.
func (e Encoding) UnitSize() int {
	if e == UTF16LE {
		return 2
	}
	return 1
}

// Decode converts b to a UTF-8 string. A trailing odd byte is dropped.
// Unpaired surrogates decode to U+FFFD.
func (e Encoding) Decode(b []byte) (string, error) {
	if e != UTF16LE {
		return "", fmt.Errorf("buf: unsupported encoding %s", e)
	}
	if len(b) == 0 {
		return "", nil
	}
	b = b[:len(b)-len(b)%2]
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("buf: decode %s: %w", e, err)
	}
	return string(out), nil
}
