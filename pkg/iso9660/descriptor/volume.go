package descriptor

import (
	"fmt"
	"time"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/directory"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
)

// VolumeDescriptor is a primary (type 1) or supplementary (type 2) volume
// descriptor. Both types share one body layout.
type VolumeDescriptor struct {
	VolumeDescriptorHeader
	VolumeDescriptorBody
}

// NewVolumeDescriptor returns a descriptor of the given type with the
// standard header filled in.
func NewVolumeDescriptor(descriptorType VolumeDescriptorType) *VolumeDescriptor {
	return &VolumeDescriptor{
		VolumeDescriptorHeader: NewVolumeDescriptorHeader(descriptorType),
		VolumeDescriptorBody: VolumeDescriptorBody{
			FileStructureVersion: consts.ISO9660_FILE_STRUCTURE_VERSION,
		},
	}
}

// VolumeDescriptorBody holds the 2041 data bytes following the header.
type VolumeDescriptorBody struct {
	// System Identifier identifies a system which can act upon the system
	// area. a-characters, at most 32 bytes.
	SystemIdentifier string
	// Volume Identifier identifies the volume. d-characters, at most 32 bytes.
	VolumeIdentifier string
	// Volume Space Size is the number of logical blocks of the volume space.
	//  | Encoding: BothByteOrder
	VolumeSpaceSize uint32
	// Volume Set Size is the assigned size of the volume set.
	//  | Encoding: BothByteOrder
	VolumeSetSize uint16
	// Volume Sequence Number is the ordinal number of this volume in its set.
	//  | Encoding: BothByteOrder
	VolumeSequenceNumber uint16
	// Logical Block Size is the size in bytes of a logical block. Always the
	// logical sector size in this revision.
	//  | Encoding: BothByteOrder
	LogicalBlockSize uint16
	// Path Table Size is the length in bytes of a recorded path table,
	// rounded up to a whole number of sectors.
	//  | Encoding: BothByteOrder
	PathTableSize uint32
	// Location of the type L (little-endian) path table.
	TypeLPathTableLocation uint32
	// Location of the type M (big-endian) path table.
	TypeMPathTableLocation uint32
	// Root Directory Record is the 34-byte directory record describing the
	// root directory's extent.
	RootDirectoryRecord *directory.DirectoryRecord
	// Volume Set Identifier identifies the volume set. d-characters, at most
	// 128 bytes.
	VolumeSetIdentifier string
	// Publisher, Data Preparer and Application Identifiers. a-characters, at
	// most 128 bytes each.
	PublisherIdentifier    string
	DataPreparerIdentifier string
	ApplicationIdentifier  string
	// Copyright, Abstract and Bibliographic File Identifiers name files of
	// the root directory. d-characters and separators, at most 37 bytes each.
	CopyrightFileIdentifier     string
	AbstractFileIdentifier      string
	BibliographicFileIdentifier string
	// The four volume date/times, each 17 bytes on disk. A zero time records
	// the unspecified form.
	VolumeCreationDateAndTime     time.Time
	VolumeModificationDateAndTime time.Time
	VolumeExpirationDateAndTime   time.Time
	VolumeEffectiveDateAndTime    time.Time
	// File Structure Version is always 1.
	FileStructureVersion uint8
}

// WriteTo emits the full 2048-byte descriptor at the writer's current
// position, which must be sector aligned.
func (vd *VolumeDescriptor) WriteTo(iw *writer.ImageWriter) error {
	if !iw.AtStartOfSector() {
		return fmt.Errorf("volume descriptor must begin at a sector boundary, position is %d", iw.Position())
	}
	if vd.RootDirectoryRecord == nil {
		return fmt.Errorf("volume descriptor %q: rootDirectoryRecord is nil", vd.VolumeIdentifier)
	}
	start := iw.Position()

	if err := vd.VolumeDescriptorHeader.WriteTo(iw); err != nil {
		return err
	}
	// Unused field (BP 8).
	if err := iw.WriteZeros(1); err != nil {
		return err
	}
	if err := iw.WriteAString(vd.SystemIdentifier, 32); err != nil {
		return err
	}
	if err := iw.WriteDString(vd.VolumeIdentifier, 32); err != nil {
		return err
	}
	// Unused field (BP 73 to 80).
	if err := iw.WriteZeros(8); err != nil {
		return err
	}
	if err := iw.WriteUint32Both(vd.VolumeSpaceSize); err != nil {
		return err
	}
	// Unused field (BP 89 to 120); the supplementary descriptor records its
	// escape sequences here, always zero without Joliet.
	if err := iw.WriteZeros(32); err != nil {
		return err
	}
	if err := iw.WriteUint16Both(vd.VolumeSetSize); err != nil {
		return err
	}
	if err := iw.WriteUint16Both(vd.VolumeSequenceNumber); err != nil {
		return err
	}
	if err := iw.WriteUint16Both(vd.LogicalBlockSize); err != nil {
		return err
	}
	if err := iw.WriteUint32Both(vd.PathTableSize); err != nil {
		return err
	}
	// Type L path table location, then the optional type L path table
	// location (not recorded).
	if err := iw.WriteUint32LE(vd.TypeLPathTableLocation); err != nil {
		return err
	}
	if err := iw.WriteZeros(4); err != nil {
		return err
	}
	// Type M path table location, then the optional type M path table
	// location (not recorded).
	if err := iw.WriteUint32BE(vd.TypeMPathTableLocation); err != nil {
		return err
	}
	if err := iw.WriteZeros(4); err != nil {
		return err
	}

	rootBytes, err := vd.RootDirectoryRecord.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal root directory record: %w", err)
	}
	if len(rootBytes) != 34 {
		return fmt.Errorf("root directory record must marshal to 34 bytes, got %d", len(rootBytes))
	}
	if err := iw.WriteBytes(rootBytes); err != nil {
		return err
	}

	if err := iw.WriteDString(vd.VolumeSetIdentifier, 128); err != nil {
		return err
	}
	if err := iw.WriteAString(vd.PublisherIdentifier, 128); err != nil {
		return err
	}
	if err := iw.WriteAString(vd.DataPreparerIdentifier, 128); err != nil {
		return err
	}
	if err := iw.WriteAString(vd.ApplicationIdentifier, 128); err != nil {
		return err
	}
	if err := iw.WriteFileIdentifier(vd.CopyrightFileIdentifier, 37); err != nil {
		return err
	}
	if err := iw.WriteFileIdentifier(vd.AbstractFileIdentifier, 37); err != nil {
		return err
	}
	if err := iw.WriteFileIdentifier(vd.BibliographicFileIdentifier, 37); err != nil {
		return err
	}
	for _, t := range []time.Time{
		vd.VolumeCreationDateAndTime,
		vd.VolumeModificationDateAndTime,
		vd.VolumeExpirationDateAndTime,
		vd.VolumeEffectiveDateAndTime,
	} {
		if err := iw.WriteDateTime(t); err != nil {
			return err
		}
	}
	if err := iw.WriteUint8(vd.FileStructureVersion); err != nil {
		return err
	}
	// Reserved byte, application use area and the reserved tail fill the
	// remainder of the sector.
	written := int(iw.Position() - start)
	return iw.WriteZeros(consts.ISO9660_SECTOR_SIZE - written)
}
