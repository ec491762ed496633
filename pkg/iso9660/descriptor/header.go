// Package descriptor emits the ISO9660 volume descriptors: primary and
// supplementary volume descriptors, the El Torito boot record and the set
// terminator. Each occupies one logical sector and begins with the common
// 7-byte header.
package descriptor

import (
	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
)

// VolumeDescriptorType is the type byte of a volume descriptor.
type VolumeDescriptorType byte

// Volume Descriptor Types.
//
//	| 0 = Boot Record
//	| 1 = Primary
//	| 2 = Supplementary
//	| 3 = Partition
//	| 4 - 254 = Reserved
//	| 255 = Terminator
const (
	TYPE_BOOT_RECORD_DESCRIPTOR   VolumeDescriptorType = 0
	TYPE_PRIMARY_DESCRIPTOR       VolumeDescriptorType = 1
	TYPE_SUPPLEMENTARY_DESCRIPTOR VolumeDescriptorType = 2
	TYPE_PARTITION_DESCRIPTOR     VolumeDescriptorType = 3
	TYPE_TERMINATOR_DESCRIPTOR    VolumeDescriptorType = 255
)

// VolumeDescriptorHeader is the 7-byte header every volume descriptor begins
// with.
type VolumeDescriptorHeader struct {
	// Volume Descriptor Type.
	VolumeDescriptorType VolumeDescriptorType
	// Standard Identifier should always be 'CD001'.
	StandardIdentifier string
	// Volume Descriptor Version. The contents and interpretation depend on the Volume Descriptor Type field.
	VolumeDescriptorVersion uint8
}

// NewVolumeDescriptorHeader returns the standard header for the given type.
func NewVolumeDescriptorHeader(descriptorType VolumeDescriptorType) VolumeDescriptorHeader {
	return VolumeDescriptorHeader{
		VolumeDescriptorType:    descriptorType,
		StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
		VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
	}
}

// WriteTo emits the 7 header bytes at the writer's current position.
func (vdh *VolumeDescriptorHeader) WriteTo(iw *writer.ImageWriter) error {
	if err := iw.WriteUint8(uint8(vdh.VolumeDescriptorType)); err != nil {
		return err
	}
	if err := iw.WriteBytes([]byte(vdh.StandardIdentifier)); err != nil {
		return err
	}
	return iw.WriteUint8(vdh.VolumeDescriptorVersion)
}
