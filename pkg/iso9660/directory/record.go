// Package directory emits and decodes ISO9660 directory records.
package directory

import (
	"fmt"
	"time"

	"github.com/asztal/generate-iso/pkg/iso9660/encoding"
)

// Identifiers of the two special records every directory extent begins with.
const (
	SelfIdentifier   = "\x00"
	ParentIdentifier = "\x01"
)

// BaseRecordSize returns the byte length of a directory record carrying an
// identifier of the given length: 33 fixed bytes plus the identifier, rounded
// up to an even number of bytes with a null pad.
func BaseRecordSize(identifierLength int) int {
	size := 33 + identifierLength
	if size%2 != 0 {
		size++
	}
	return size
}

// DirectoryRecord describes one entry of a directory extent.
type DirectoryRecord struct {
	// Length Of Directory Record specifies the length of the directory record in bytes.
	// Computed while marshalling.
	LengthOfDirectoryRecord uint8
	// Extended Attribute Record Length is always zero: this builder never
	// records Extended Attribute Records.
	ExtendedAttributeRecordLength uint8
	// Location of Extent specifies the Logical Block Number of the first Logical Block allocated to the Extent.
	//  | Encoding: BothByteOrder
	LocationOfExtent uint32
	// Data Length specifies the data length of the File Section.
	//  | Encoding: BothByteOrder
	DataLength uint32
	// Recording Date and Time specifies the date and time of the day at which the information in the Extent described
	// by the Directory Record was recorded.
	//  | Encoding: 7-byte time format
	RecordingDateAndTime time.Time
	// File Flags records the attribute flags of the entry.
	FileFlags FileFlags
	// File Unit Size is zero: interleaved mode is not emitted.
	FileUnitSize uint8
	// Interleave Gap Size is zero: interleaved mode is not emitted.
	InterleaveGapSize uint8
	// Volume Sequence Number specifies the ordinal number of the volume in the Volume Set on which the Extent described
	// by this Directory Record is recorded.
	//  | Encoding: BothByteOrder
	VolumeSequenceNumber uint16
	// File Identifier holds the identifier bytes: the mapped identifier of
	// the entry, or the single byte 0x00 (self) or 0x01 (parent). A null pad
	// byte follows an even-length identifier so the record length is even;
	// the pad is computed while marshalling.
	FileIdentifier []byte
}

// Marshal converts the DirectoryRecord into its on-disk byte representation.
// It computes and sets the LengthOfDirectoryRecord field and appends the
// optional padding byte after an even-length File Identifier.
func (dr *DirectoryRecord) Marshal() ([]byte, error) {
	if len(dr.FileIdentifier) == 0 {
		return nil, fmt.Errorf("directory record has an empty file identifier")
	}
	if len(dr.FileIdentifier) > 0xFF-33 {
		return nil, fmt.Errorf("file identifier of %d bytes does not fit in a directory record", len(dr.FileIdentifier))
	}

	buf := make([]byte, 0, BaseRecordSize(len(dr.FileIdentifier)))

	// Reserve a byte for LengthOfDirectoryRecord; set at the end.
	buf = append(buf, 0)
	buf = append(buf, dr.ExtendedAttributeRecordLength)

	// Location Of Extent: 8 bytes (both-byte orders for uint32)
	locBytes := encoding.MarshalBothByteOrders32(dr.LocationOfExtent)
	buf = append(buf, locBytes[:]...)

	// Data Length: 8 bytes (both-byte orders for uint32)
	dataLenBytes := encoding.MarshalBothByteOrders32(dr.DataLength)
	buf = append(buf, dataLenBytes[:]...)

	// Recording Date and Time: 7 bytes
	recTimeBytes, err := encoding.MarshalRecordingDateTime(dr.RecordingDateAndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RecordingDateAndTime: %w", err)
	}
	buf = append(buf, recTimeBytes[:]...)

	buf = append(buf, dr.FileFlags.Marshal())
	buf = append(buf, dr.FileUnitSize)
	buf = append(buf, dr.InterleaveGapSize)

	// Volume Sequence Number: 4 bytes (both-byte orders for uint16)
	volSeqBytes := encoding.MarshalBothByteOrders16(dr.VolumeSequenceNumber)
	buf = append(buf, volSeqBytes[:]...)

	// File Identifier, preceded by its length.
	buf = append(buf, uint8(len(dr.FileIdentifier)))
	buf = append(buf, dr.FileIdentifier...)

	// Padding Field: present if the File Identifier length is even.
	if len(dr.FileIdentifier)%2 == 0 {
		buf = append(buf, 0x00)
	}

	dr.LengthOfDirectoryRecord = uint8(len(buf))
	buf[0] = dr.LengthOfDirectoryRecord

	return buf, nil
}

// Unmarshal decodes a DirectoryRecord from the provided byte slice.
// It expects that data contains at least LengthOfDirectoryRecord bytes.
// It also handles skipping the optional Padding Field if the File Identifier length is even.
func (dr *DirectoryRecord) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("data too short to contain a DirectoryRecord")
	}
	offset := 0

	recordLength := data[offset]
	dr.LengthOfDirectoryRecord = recordLength
	if len(data) < int(recordLength) {
		return fmt.Errorf("data length %d is less than expected record length %d", len(data), recordLength)
	}
	if recordLength < 34 {
		return fmt.Errorf("record length %d is shorter than the minimal directory record", recordLength)
	}
	offset++

	dr.ExtendedAttributeRecordLength = data[offset]
	offset++

	var locBytes [8]byte
	copy(locBytes[:], data[offset:offset+8])
	loc, err := encoding.UnmarshalUint32LSBMSB(locBytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal Location Of Extent: %w", err)
	}
	dr.LocationOfExtent = loc
	offset += 8

	var dataLenBytes [8]byte
	copy(dataLenBytes[:], data[offset:offset+8])
	dataLen, err := encoding.UnmarshalUint32LSBMSB(dataLenBytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal Data Length: %w", err)
	}
	dr.DataLength = dataLen
	offset += 8

	var recTimeBytes [7]byte
	copy(recTimeBytes[:], data[offset:offset+7])
	recTime, err := encoding.UnmarshalRecordingDateTime(recTimeBytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal Recording Date and Time: %w", err)
	}
	dr.RecordingDateAndTime = recTime
	offset += 7

	ff, err := UnmarshalFileFlags(data[offset])
	if err != nil {
		return fmt.Errorf("failed to unmarshal File Flags: %w", err)
	}
	dr.FileFlags = ff
	offset++

	dr.FileUnitSize = data[offset]
	offset++
	dr.InterleaveGapSize = data[offset]
	offset++

	var volSeqBytes [4]byte
	copy(volSeqBytes[:], data[offset:offset+4])
	volSeq, err := encoding.UnmarshalUint16LSBMSB(volSeqBytes)
	if err != nil {
		return fmt.Errorf("failed to unmarshal Volume Sequence Number: %w", err)
	}
	dr.VolumeSequenceNumber = volSeq
	offset += 4

	fiLen := int(data[offset])
	offset++
	if offset+fiLen > int(recordLength) {
		return fmt.Errorf("insufficient data for File Identifier")
	}
	dr.FileIdentifier = make([]byte, fiLen)
	copy(dr.FileIdentifier, data[offset:offset+fiLen])
	offset += fiLen

	// Padding Field: present if the File Identifier length is even.
	if fiLen%2 == 0 {
		if offset+1 > int(recordLength) {
			return fmt.Errorf("insufficient data for padding byte")
		}
		if data[offset] != 0x00 {
			return fmt.Errorf("expected padding byte 0x00, got 0x%02X", data[offset])
		}
	}

	return nil
}
