// Package boot emits the El-Torito boot catalog: the validation entry with
// its 16-bit word checksum, the initial/default entry, and section headers
// with their entries. The catalog occupies one logical sector.
package boot

import (
	"encoding/binary"
	"fmt"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/image"
)

// ValidationEntry is the first entry of every boot catalog.
type ValidationEntry struct {
	// PlatformID is the platform the initial entry boots.
	PlatformID image.Platform
	// IDString identifies the manufacturer/developer of the CD. At most 24
	// bytes, null padded.
	IDString string
}

// Marshal emits the 32-byte validation entry. The checksum field is chosen so
// that the sum of the entry's sixteen little-endian 16-bit words is zero
// modulo 2^16; the entry ends with the key bytes 0x55 0xAA.
func (ve *ValidationEntry) Marshal() ([consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte, error) {
	var b [consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte
	if len(ve.IDString) > 24 {
		return b, fmt.Errorf("validation entry id string %q exceeds 24 bytes", ve.IDString)
	}

	b[0] = consts.EL_TORITO_VALIDATION_HEADER_ID
	b[1] = byte(ve.PlatformID)
	// Bytes 2-3 are reserved, bytes 28-29 hold the checksum; both stay zero
	// until the checksum is computed.
	copy(b[4:28], ve.IDString)
	b[30] = consts.EL_TORITO_KEY_BYTE_1
	b[31] = consts.EL_TORITO_KEY_BYTE_2

	var sum uint16
	for i := 0; i < consts.EL_TORITO_CATALOG_ENTRY_SIZE; i += 2 {
		sum += binary.LittleEndian.Uint16(b[i : i+2])
	}
	binary.LittleEndian.PutUint16(b[28:30], -sum)

	return b, nil
}

// Entry is a boot catalog entry: the initial/default entry, or an entry of a
// section. The layouts coincide except that section entries may carry
// selection criteria in their final twenty bytes.
type Entry struct {
	// BootIndicator is 0x88 for bootable entries, 0x00 otherwise.
	BootIndicator byte
	// Media is the boot media (emulation) type.
	Media image.Emulation
	// LoadSegment is the load segment of the boot image; zero is interpreted
	// by firmware as the traditional segment 0x7C0.
	LoadSegment uint16
	// SystemType is the partition type byte from the boot image's partition
	// table, for hard disk emulation.
	SystemType byte
	// SectorCount is the number of virtual/emulated 512-byte sectors the
	// firmware loads at boot.
	SectorCount uint16
	// LoadRBA is the logical block of the boot image data on the disc.
	LoadRBA uint32
	// SelectionCriteria holds the criteria type byte followed by vendor
	// unique bytes. Empty for the initial entry.
	SelectionCriteria []byte
}

// NewEntry derives a catalog entry from its model form. The load RBA is
// assigned when the boot image data is allocated.
func NewEntry(e *image.BootCatalogEntry) *Entry {
	indicator := byte(consts.EL_TORITO_NOT_BOOT_INDICATOR)
	if e.Bootable {
		indicator = consts.EL_TORITO_BOOT_INDICATOR
	}
	return &Entry{
		BootIndicator:     indicator,
		Media:             e.Media,
		LoadSegment:       e.LoadSegment,
		SystemType:        e.SystemType,
		SectorCount:       e.SectorCount,
		SelectionCriteria: e.SelectionCriteria,
	}
}

// Marshal emits the 32-byte entry.
func (e *Entry) Marshal() ([consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte, error) {
	var b [consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte
	if len(e.SelectionCriteria) > 20 {
		return b, fmt.Errorf("selection criteria of %d bytes exceed the 20 byte field", len(e.SelectionCriteria))
	}

	b[0] = e.BootIndicator
	b[1] = byte(e.Media)
	binary.LittleEndian.PutUint16(b[2:4], e.LoadSegment)
	b[4] = e.SystemType
	// Byte 5 is unused.
	binary.LittleEndian.PutUint16(b[6:8], e.SectorCount)
	binary.LittleEndian.PutUint32(b[8:12], e.LoadRBA)
	copy(b[12:], e.SelectionCriteria)

	return b, nil
}

// SectionHeader introduces a group of section entries.
type SectionHeader struct {
	// Last is true on the final section header of the catalog, recording the
	// 0x91 indicator instead of 0x90.
	Last bool
	// PlatformID is the platform the section's entries boot.
	PlatformID image.Platform
	// EntryCount is the number of section entries following this header.
	EntryCount uint16
	// IDString identifies the section. At most 28 bytes, null padded.
	IDString string
}

// Marshal emits the 32-byte section header.
func (sh *SectionHeader) Marshal() ([consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte, error) {
	var b [consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte
	if len(sh.IDString) > 28 {
		return b, fmt.Errorf("section header id string %q exceeds 28 bytes", sh.IDString)
	}

	b[0] = consts.EL_TORITO_SECTION_HEADER_ID
	if sh.Last {
		b[0] = consts.EL_TORITO_LAST_SECTION_HEADER_ID
	}
	b[1] = byte(sh.PlatformID)
	binary.LittleEndian.PutUint16(b[2:4], sh.EntryCount)
	copy(b[4:32], sh.IDString)

	return b, nil
}

// MarshalCatalog assembles the full boot catalog sector from the model
// catalog and the load RBAs assigned to its entries.
func MarshalCatalog(cat *image.BootCatalog, loadRBAs map[*image.BootCatalogEntry]uint32) ([]byte, error) {
	if cat.InitialEntry == nil {
		return nil, fmt.Errorf("boot catalog has no initial entry")
	}

	buf := make([]byte, 0, consts.ISO9660_SECTOR_SIZE)
	appendEntry := func(entry [consts.EL_TORITO_CATALOG_ENTRY_SIZE]byte) {
		buf = append(buf, entry[:]...)
	}

	validation := &ValidationEntry{PlatformID: cat.Platform, IDString: cat.IDString}
	validationBytes, err := validation.Marshal()
	if err != nil {
		return nil, err
	}
	appendEntry(validationBytes)

	initial := NewEntry(cat.InitialEntry)
	initial.LoadRBA = loadRBAs[cat.InitialEntry]
	initialBytes, err := initial.Marshal()
	if err != nil {
		return nil, err
	}
	appendEntry(initialBytes)

	for i, section := range cat.Sections {
		if len(section.Entries) > 0xFFFF {
			return nil, fmt.Errorf("section %d has too many entries: %d", i, len(section.Entries))
		}
		header := &SectionHeader{
			Last:       i == len(cat.Sections)-1,
			PlatformID: section.Platform,
			EntryCount: uint16(len(section.Entries)),
			IDString:   section.IDString,
		}
		headerBytes, err := header.Marshal()
		if err != nil {
			return nil, err
		}
		appendEntry(headerBytes)
		for _, modelEntry := range section.Entries {
			entry := NewEntry(modelEntry)
			entry.LoadRBA = loadRBAs[modelEntry]
			entryBytes, err := entry.Marshal()
			if err != nil {
				return nil, err
			}
			appendEntry(entryBytes)
		}
	}

	if len(buf) > consts.ISO9660_SECTOR_SIZE {
		return nil, fmt.Errorf("boot catalog of %d bytes exceeds one sector", len(buf))
	}
	catalog := make([]byte, consts.ISO9660_SECTOR_SIZE)
	copy(catalog, buf)
	return catalog, nil
}
