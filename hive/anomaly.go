package hive

import (
	"errors"
	"fmt"
)

// ErrNotAHive is returned when the buffer is too short for a CE7 header or
// carries the wrong magic. It is the only fatal decoding error.
var ErrNotAHive = errors.New("hive: not a CE7 registry hive")

var (
	errOutsideSection = errors.New("entry outside any section")
	errInSectionHdr   = errors.New("entry overlaps its section header")
	errPastSection    = errors.New("entry extends past its section")
	errUnknownType    = errors.New("unknown entry type")
	errWrongKind      = errors.New("reference resolves to the wrong entry type")
	errDangling       = errors.New("reference to a missing entry")
	errFreed          = errors.New("reference to a freed entry")
	errCycle          = errors.New("reference cycle")
	errShared         = errors.New("entry already has a parent")
	errDepth          = errors.New("nesting limit reached")
)

// AnomalyKind classifies a recoverable inconsistency found while decoding.
type AnomalyKind uint8

const (
	// OutOfBounds: an entry header lies past the end of the hive region.
	OutOfBounds AnomalyKind = iota + 1
	// CorruptBlockTable: a section lies outside the file, has the wrong
	// magic, or overlaps another section.
	CorruptBlockTable
	// MalformedCell: an entry does not fit its section or its payload does
	// not decode.
	MalformedCell
	// UnknownCellType: an entry carries an unrecognised type tag.
	UnknownCellType
	// UseOfFreedCell: a reference resolves to freed space.
	UseOfFreedCell
	// CycleDetected: a reference points back to an ancestor or repeats
	// within one list.
	CycleDetected
	// MultipleParents: an entry is reachable from two parents.
	MultipleParents
	// DanglingReference: a reference names no entry.
	DanglingReference
	// DuplicateID: two live entries share an id; the one scanned last wins.
	DuplicateID
	// MalformedValue: a value payload does not match its declared type.
	MalformedValue
	// DepthLimit: the tree is nested deeper than the configured limit.
	DepthLimit
	// MissingRoots: no ROOTS entry was found.
	MissingRoots
)

func (k AnomalyKind) String() string {
	switch k {
	case OutOfBounds:
		return "OutOfBounds"
	case CorruptBlockTable:
		return "CorruptBlockTable"
	case MalformedCell:
		return "MalformedCell"
	case UnknownCellType:
		return "UnknownCellType"
	case UseOfFreedCell:
		return "UseOfFreedCell"
	case CycleDetected:
		return "CycleDetected"
	case MultipleParents:
		return "MultipleParents"
	case DanglingReference:
		return "DanglingReference"
	case DuplicateID:
		return "DuplicateID"
	case MalformedValue:
		return "MalformedValue"
	case DepthLimit:
		return "DepthLimit"
	case MissingRoots:
		return "MissingRoots"
	default:
		return fmt.Sprintf("AnomalyKind(%d)", uint8(k))
	}
}

// Anomaly is a recoverable inconsistency. Offset is an absolute file offset,
// or -1 when no location applies. ID is the entry id involved, if any. Key
// is the tree key the anomaly was attached to. Anomalies no key references
// reach are attached to RootKey.
type Anomaly struct {
	Kind   AnomalyKind
	Offset int
	ID     uint32
	Key    KeyID
	Err    error
}

func (a Anomaly) String() string {
	s := a.Kind.String()
	if a.Offset >= 0 {
		s += fmt.Sprintf(" at 0x%X", a.Offset)
	}
	if a.ID != 0 {
		s += fmt.Sprintf(" (entry 0x%X)", a.ID)
	}
	if a.Err != nil {
		s += ": " + a.Err.Error()
	}
	return s
}
