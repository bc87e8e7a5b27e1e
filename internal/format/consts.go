// Package format houses low-level decoders for the Windows CE 7 registry hive
// format (system.hv, user.hv). The layout was reconstructed from hives pulled
// off a single device; every offset here is best-effort and callers must treat
// field values as untrusted. Higher-level packages orchestrate these decoders
// into a tree.
package format

// HiveMagic is the four-byte signature at HeaderMagicOffset.
//
//	0x08  'E' 'K' 'I' 'M'
var HiveMagic = []byte{'E', 'K', 'I', 'M'}

// ============================================================================
// Header Constants
// ============================================================================

const (
	HeaderSizeOffset        = 0x000 // uint32, 0x400 observed
	HeaderReserved0Offset   = 0x004 // uint32, 0
	HeaderMagicOffset       = 0x008 // 'EKIM'
	HeaderMagicSize         = 4
	HeaderFileMD5Offset     = 0x00C // [16]byte
	HeaderReserved1Offset   = 0x01C // uint32, 0
	HeaderFileSizeOffset    = 0x020 // uint32
	HeaderFileTypeOffset    = 0x024 // uint32, 0x1000 observed
	HeaderBootMD5Offset     = 0x028 // [16]byte
	HeaderZeroOffset        = 0x038 // [172]byte, zero
	HeaderZeroSize          = 172
	HeaderBaseOffset        = 0x0E4 // uint32, 0xcd4f5000 observed
	HeaderRecoveryLogOffset = 0x0E8 // uint32
	HeaderIsRegHiveOffset   = 0x0EC // uint32, 0xffffffff on registry hives
	HeaderIsDBVolOffset     = 0x0F0 // uint32, 0 on registry hives
	HeaderReserved2Offset   = 0x0F4 // [24]byte
	HeaderReserved2Size     = 24

	// MD5Size is the length of the two digest fields.
	MD5Size = 16

	// HeaderMinSize is the smallest buffer that holds every header field.
	HeaderMinSize = HeaderReserved2Offset + HeaderReserved2Size // 0x10C

	// HeaderDeclaredSize is the header size field observed on CE7 hives.
	HeaderDeclaredSize = 0x400

	// FileTypeCE7 is the file type word observed on CE7 hives.
	FileTypeCE7 = 0x1000

	// RegHiveMarker is the is-registry-hive value on registry hives.
	RegHiveMarker = 0xFFFFFFFF
)

// ============================================================================
// Section Table Constants
// ============================================================================

const (
	// SectionTableOffset is where the zero-terminated list of section
	// offsets begins.
	SectionTableOffset = 0x1000

	// DataBase is the origin every section and entry offset is relative to.
	// It also bounds the section table.
	DataBase = 0x5000

	// SectionTableMaxSlots is the number of uint32 slots between
	// SectionTableOffset and DataBase.
	SectionTableMaxSlots = (DataBase - SectionTableOffset) / OffsetFieldSize

	// SectionMagic identifies a section header.
	SectionMagic = 0x20001004

	SectionMagicOffset     = 0x00 // uint32
	SectionReserved0Offset = 0x04 // uint32
	SectionReserved1Offset = 0x08 // uint32
	SectionSlotsOffset     = 0x0C // [SectionSlotCount]uint32

	// SectionSlotCount is the number of entry slots per section.
	SectionSlotCount = 0x400

	// SectionHeaderSize covers the magic, reserved words and slot table.
	SectionHeaderSize = SectionSlotsOffset + SectionSlotCount*OffsetFieldSize // 0x100C

	// SlotOffsetMask extracts the entry offset (relative to DataBase).
	SlotOffsetMask = 0x0FFFFFFC

	// SlotFlagsMask extracts the slot state bits.
	SlotFlagsMask = 0x3

	// SlotFlagLive marks an allocated entry. Any other non-zero slot
	// describes a freed entry.
	SlotFlagLive = 0x1
)

// ============================================================================
// Entry Constants
// ============================================================================

const (
	EntrySizeOffset     = 0x00 // uint32: type in the top nibble, size below
	EntryReservedOffset = 0x04 // uint32, 0
	EntryIDOffset       = 0x08 // uint32
	EntryPayloadOffset  = 0x0C

	// EntryHeaderSize precedes every entry payload.
	EntryHeaderSize = EntryPayloadOffset

	EntryTypeShift = 28
	EntrySizeMask  = 0x0FFFFFFF

	// NilID is the null entry reference.
	NilID = 0
)

// EntryType is the tag stored in the top nibble of an entry's size word.
type EntryType uint8

const (
	EntryDatabase EntryType = 0x7
	EntryRecord   EntryType = 0x8
	EntryRecMore  EntryType = 0x9
	EntryVolume   EntryType = 0xA
	EntryRoots    EntryType = 0xB
	EntryKey      EntryType = 0xC
	EntryValue    EntryType = 0xD
	EntryIndex    EntryType = 0xE
)

// Known reports whether t is one of the object store entry types.
func (t EntryType) Known() bool {
	return t >= EntryDatabase && t <= EntryIndex
}

func (t EntryType) String() string {
	switch t {
	case EntryDatabase:
		return "ET_DATABASE"
	case EntryRecord:
		return "ET_RECORD"
	case EntryRecMore:
		return "ET_RECMORE"
	case EntryVolume:
		return "ET_VOLUME"
	case EntryRoots:
		return "ET_ROOTS"
	case EntryKey:
		return "ET_KEY"
	case EntryValue:
		return "ET_VALUE"
	case EntryIndex:
		return "ET_INDEX"
	default:
		return "ET_UNKNOWN"
	}
}

// ============================================================================
// Roots Record Constants
// ============================================================================

const (
	// RootsSlotCount is the number of root id slots in an ET_ROOTS payload.
	RootsSlotCount = 8
	RootsMinSize   = RootsSlotCount * OffsetFieldSize
)

// RootNames maps ET_ROOTS slot indices to predefined key names. Slots past
// the end of the table are named by index.
var RootNames = [...]string{"HKCR", "HKCU", "HKLM", "HKU"}

// ============================================================================
// Key Record Constants
// ============================================================================

const (
	KeyNextSiblingOffset = 0x00 // uint32 entry id
	KeyFirstChildOffset  = 0x04 // uint32 entry id
	KeyFirstValueOffset  = 0x08 // uint32 entry id
	KeyNameLenOffset     = 0x0C // uint8, UTF-16 code units
	KeyFlagsOffset       = 0x0D // uint16
	KeyReservedOffset    = 0x0F // uint8
	KeyNameOffset        = 0x10

	KeyFixedHeaderSize = KeyNameOffset
	KeyMinSize         = KeyFixedHeaderSize
)

// ============================================================================
// Value Record Constants
// ============================================================================

const (
	ValueNextOffset    = 0x00 // uint32 entry id
	ValueTypeOffset    = 0x04 // uint16
	ValueDataLenOffset = 0x06 // uint16, bytes
	ValueNameLenOffset = 0x08 // uint16: low byte is the name length in code units
	ValueNameOffset    = 0x0A

	ValueFixedHeaderSize = ValueNameOffset
	ValueMinSize         = ValueFixedHeaderSize

	// ValueNameLenMask selects the name length from the packed name field.
	ValueNameLenMask = 0xFF
	// ValueNameFlagsShift exposes the remaining bits of the packed field.
	ValueNameFlagsShift = 8
)

// ============================================================================
// Index (hash table) Record Constants
// ============================================================================

const (
	// IndexEntrySize is one (hash, id) pair.
	IndexEntrySize  = 8
	IndexHashOffset = 0x00
	IndexIDOffset   = 0x04
)

// ============================================================================
// Generic Constants
// ============================================================================

const (
	// OffsetFieldSize is the size of every offset and id field.
	OffsetFieldSize = 4

	// UTF16UnitSize is the width of one name code unit.
	UTF16UnitSize = 2

	// DWORDSize and QWORDSize are the widths of the numeric value types.
	DWORDSize = 4
	QWORDSize = 8
)
