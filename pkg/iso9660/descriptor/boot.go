package descriptor

import (
	"fmt"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
)

// BootRecordDescriptor is the El Torito boot record volume descriptor
// (type 0). It names the El Torito boot system and points at the boot
// catalog's sector.
type BootRecordDescriptor struct {
	VolumeDescriptorHeader
	// Boot System Identifier names the specification the boot system use
	// field follows; always "EL TORITO SPECIFICATION", null padded.
	BootSystemIdentifier string
	// Boot Catalog Location is the sector of the boot catalog, recorded
	// little-endian only in the first four boot system use bytes.
	BootCatalogLocation uint32
}

// NewBootRecordDescriptor returns the El Torito boot record pointing at the
// given catalog sector.
func NewBootRecordDescriptor(bootCatalogLocation uint32) *BootRecordDescriptor {
	return &BootRecordDescriptor{
		VolumeDescriptorHeader: NewVolumeDescriptorHeader(TYPE_BOOT_RECORD_DESCRIPTOR),
		BootSystemIdentifier:   consts.EL_TORITO_BOOT_SYSTEM_ID,
		BootCatalogLocation:    bootCatalogLocation,
	}
}

// WriteTo emits the boot record sector: the header, the boot system and boot
// identifier fields (64 bytes, null padded), the catalog location, and zeros
// to the end of the sector.
func (d *BootRecordDescriptor) WriteTo(iw *writer.ImageWriter) error {
	if !iw.AtStartOfSector() {
		return fmt.Errorf("boot record must begin at a sector boundary, position is %d", iw.Position())
	}
	if len(d.BootSystemIdentifier) > 2*consts.EL_TORITO_BOOT_SYSTEM_ID_SIZE {
		return fmt.Errorf("boot system identifier %q is too long", d.BootSystemIdentifier)
	}
	if err := d.VolumeDescriptorHeader.WriteTo(iw); err != nil {
		return err
	}
	// Boot system identifier and boot identifier fields, 64 bytes total,
	// padded with null bytes rather than filler.
	if err := iw.WriteBytes([]byte(d.BootSystemIdentifier)); err != nil {
		return err
	}
	if err := iw.WriteZeros(2*consts.EL_TORITO_BOOT_SYSTEM_ID_SIZE - len(d.BootSystemIdentifier)); err != nil {
		return err
	}
	if err := iw.WriteUint32LE(d.BootCatalogLocation); err != nil {
		return err
	}
	// 1973 bytes of boot system use remain unspecified and zero.
	return iw.WriteZeros(consts.ISO9660_SECTOR_SIZE - consts.ISO9660_VOLUME_DESC_HEADER_SIZE - 2*consts.EL_TORITO_BOOT_SYSTEM_ID_SIZE - 4)
}
