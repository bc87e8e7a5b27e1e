package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/cehive/internal/buf"
)

// Header captures the CE7 hive header. The diagram below highlights the
// offsets we care about.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    Header size (0x400)
//	 0x008   4    'E' 'K' 'I' 'M'
//	 0x00C  16    MD5 of the file
//	 0x020   4    File size
//	 0x024   4    File type (0x1000)
//	 0x028  16    MD5 of the boot section
//	 0x0E4   4    Base address the volume was mapped at on the device
//	 0x0E8   4    Recovery log size
//	 0x0EC   4    0xffffffff when the volume holds a registry hive
//	 0x0F0   4    Non-zero when the volume is a database volume
type Header struct {
	HeaderSize      uint32
	FileMD5         [MD5Size]byte
	FileSize        uint32
	FileType        uint32
	BootMD5         [MD5Size]byte
	Base            uint32
	RecoveryLogSize uint32
	IsRegHive       uint32
	IsDBVolume      uint32
}

// IsRegistryHive reports whether the volume flags describe a registry hive
// rather than a database volume.
func (h Header) IsRegistryHive() bool {
	return h.IsRegHive == RegHiveMarker && h.IsDBVolume == 0
}

// ParseHeader validates the magic and extracts the header fields.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderMinSize {
		return Header{}, fmt.Errorf("hive header: %w (have %d, need %d)", ErrTruncated, len(b), HeaderMinSize)
	}
	if !bytes.Equal(b[HeaderMagicOffset:HeaderMagicOffset+HeaderMagicSize], HiveMagic) {
		return Header{}, fmt.Errorf("hive header: %w (magic %q)", ErrSignatureMismatch,
			b[HeaderMagicOffset:HeaderMagicOffset+HeaderMagicSize])
	}
	c := buf.NewCursor(b[:HeaderMinSize])
	var h Header
	var err error
	read := func(off int, dst *uint32) {
		if err != nil {
			return
		}
		*dst, err = c.U32(off)
	}
	read(HeaderSizeOffset, &h.HeaderSize)
	read(HeaderFileSizeOffset, &h.FileSize)
	read(HeaderFileTypeOffset, &h.FileType)
	read(HeaderBaseOffset, &h.Base)
	read(HeaderRecoveryLogOffset, &h.RecoveryLogSize)
	read(HeaderIsRegHiveOffset, &h.IsRegHive)
	read(HeaderIsDBVolOffset, &h.IsDBVolume)
	if err != nil {
		return Header{}, fmt.Errorf("hive header: %w", err)
	}
	copy(h.FileMD5[:], b[HeaderFileMD5Offset:HeaderFileMD5Offset+MD5Size])
	copy(h.BootMD5[:], b[HeaderBootMD5Offset:HeaderBootMD5Offset+MD5Size])
	return h, nil
}
