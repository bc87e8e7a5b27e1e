package values

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a payload whose length or termination does not match
// its declared type.
var ErrMalformed = errors.New("values: malformed payload")

// Type is a registry value type tag.
type Type uint32

const (
	None                     Type = 0
	String                   Type = 1
	ExpandString             Type = 2
	Binary                   Type = 3
	DWord                    Type = 4
	DWordBigEndian           Type = 5
	Link                     Type = 6
	MultiString              Type = 7
	ResourceList             Type = 8
	FullResourceDescriptor   Type = 9
	ResourceRequirementsList Type = 10
	QWord                    Type = 11
	// MUI is a CE-specific type observed on device hives. Its layout is not
	// known, so it decodes as KindRaw.
	MUI Type = 21
)

func (t Type) String() string {
	switch t {
	case None:
		return "REG_NONE"
	case String:
		return "REG_SZ"
	case ExpandString:
		return "REG_EXPAND_SZ"
	case Binary:
		return "REG_BINARY"
	case DWord:
		return "REG_DWORD"
	case DWordBigEndian:
		return "REG_DWORD_BIG_ENDIAN"
	case Link:
		return "REG_LINK"
	case MultiString:
		return "REG_MULTI_SZ"
	case ResourceList:
		return "REG_RESOURCE_LIST"
	case FullResourceDescriptor:
		return "REG_FULL_RESOURCE_DESCRIPTOR"
	case ResourceRequirementsList:
		return "REG_RESOURCE_REQUIREMENTS_LIST"
	case QWord:
		return "REG_QWORD"
	case MUI:
		return "REG_MUI_SZ"
	default:
		return fmt.Sprintf("REG_UNKNOWN_0x%X", uint32(t))
	}
}

// Kind is the shape of a decoded payload.
type Kind uint8

const (
	// KindRaw carries an unrecognised or malformed payload verbatim.
	KindRaw Kind = iota
	// KindBinary is an opaque payload of a known binary type.
	KindBinary
	KindString
	KindStrings
	KindUint32
	KindUint64
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindBinary:
		return "binary"
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Decoded is the semantic form of a value payload. Bytes always holds the
// raw payload; the other fields are set according to Kind.
type Decoded struct {
	Kind  Kind
	Type  Type
	Str   string
	Strs  []string
	Uint  uint64
	Bytes []byte
	Err   error
}

// Malformed reports whether the payload did not match its declared type.
func (d Decoded) Malformed() bool {
	return errors.Is(d.Err, ErrMalformed)
}

// Interface returns the decoded payload as a plain Go value: string,
// []string, uint32, uint64 or []byte.
func (d Decoded) Interface() any {
	switch d.Kind {
	case KindString:
		return d.Str
	case KindStrings:
		return d.Strs
	case KindUint32:
		return uint32(d.Uint)
	case KindUint64:
		return d.Uint
	default:
		return d.Bytes
	}
}
