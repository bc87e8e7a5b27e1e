// Package verify provides strict validation functions for CE7 registry hive
// files.
//
// # Overview
//
// The hive decoder tolerates damage and records anomalies instead of
// failing. The checks in this package do the opposite: each returns the
// first violated invariant as a *ValidationError.
//
// Validation categories:
//   - Header: magic, declared header size, file type, volume flags
//   - FileSize: declared file size equals the buffer length
//   - SectionTable: sections inside the file, section magic, no overlaps
//   - Entries: live slots inside their section, known types, unique ids
//   - Tree: the decoded tree has no anomalies
//
// # Quick Start
//
//	data, _ := os.ReadFile("system.hv")
//	if err := verify.AllInvariants(data); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	    }
//	}
//
// Offset is -1 when the failure has no file location. Details carries
// check-specific context such as the actual and declared sizes.
package verify
