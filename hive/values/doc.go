// Package values interprets the payload of a registry value according to its
// declared REG_* type.
//
// # Overview
//
// Decode never discards data. Every result keeps the raw bytes, and a type
// tag the package does not understand decodes to KindRaw carrying the tag
// and the bytes verbatim:
//
//	d := values.Decode(values.DWord, []byte{7, 0, 0, 0})
//	fmt.Println(d.Uint) // 7
//
// # Malformed payloads
//
// A payload whose length does not match the width its type requires (a DWORD
// that is not 4 bytes, a QWORD that is not 8, UTF-16 text with an odd byte
// count, a multi-string missing its empty terminator) is flagged rather than
// truncated: Decoded.Err wraps ErrMalformed and Decoded.Bytes still holds the
// original payload.
//
//	d := values.Decode(values.DWord, []byte{1, 2})
//	if errors.Is(d.Err, values.ErrMalformed) {
//	    // d.Kind == values.KindRaw, d.Bytes == []byte{1, 2}
//	}
//
// # Numbers
//
// All integers are little-endian except REG_DWORD_BIG_ENDIAN. Values are
// zero-extended into Decoded.Uint; no sign extension is applied.
//
// # Strings
//
// CE stores text as UTF-16LE. REG_SZ, REG_EXPAND_SZ and REG_LINK decode up to
// the first NUL code unit; a missing terminator is tolerated because device
// tooling routinely omits it.
package values
