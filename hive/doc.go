// Package hive decodes Windows CE 7 registry hive files (system.hv,
// user.hv) into a navigable tree of keys and typed values.
//
// # File Structure
//
// A CE7 hive is an object store volume:
//
//	[Header 0x000] [Section table 0x1000] [Sections from 0x5000 ...]
//
// The section table lists section offsets relative to 0x5000. Each section
// carries 0x400 slots pointing at entries; an entry is a 12-byte header
// (type and size, reserved word, entry id) followed by its payload. Keys,
// values, hash tables and the ROOTS entry reference each other by entry id.
//
// # Decoding
//
//	h, err := hive.Open("/path/to/system.hv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	id, ok := h.Find(`HKLM\Software\Microsoft`)
//
// Only a buffer that is not a CE7 hive at all fails with ErrNotAHive.
// Every other inconsistency (truncated entries, cycles, references to
// freed entries, overlapping sections) is recorded as an Anomaly and
// decoding continues best-effort. A decoded Hive is immutable and safe for
// concurrent readers.
//
// # Zero-Copy Design
//
// Payload slices exposed by Cell and Value alias the hive buffer. For a
// Hive returned by Open they become invalid once Close is called.
package hive
