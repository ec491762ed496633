package descriptor

import (
	"fmt"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
)

// VolumeDescriptorSetTerminator represents the Volume Descriptor Set Terminator (type 255).
type VolumeDescriptorSetTerminator struct {
	VolumeDescriptorHeader
}

// NewVolumeDescriptorSetTerminator creates a new VolumeDescriptorSetTerminator.
func NewVolumeDescriptorSetTerminator() *VolumeDescriptorSetTerminator {
	return &VolumeDescriptorSetTerminator{
		VolumeDescriptorHeader: NewVolumeDescriptorHeader(TYPE_TERMINATOR_DESCRIPTOR),
	}
}

// WriteTo emits the terminator sector: the header followed by reserved zero
// bytes to the end of the sector.
func (d *VolumeDescriptorSetTerminator) WriteTo(iw *writer.ImageWriter) error {
	if !iw.AtStartOfSector() {
		return fmt.Errorf("set terminator must begin at a sector boundary, position is %d", iw.Position())
	}
	if err := d.VolumeDescriptorHeader.WriteTo(iw); err != nil {
		return err
	}
	return iw.WriteZeros(consts.ISO9660_SECTOR_SIZE - consts.ISO9660_VOLUME_DESC_HEADER_SIZE)
}
