// Package pathtable emits and decodes ISO9660 path tables. A table holds one
// record per directory of a volume in breadth-first order, the root always
// first, and is written twice: type L in little-endian and type M in
// big-endian byte order.
package pathtable

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RootIdentifier is the identifier byte of the root directory's record.
const RootIdentifier = "\x00"

// PathTableRecord describes one directory of the volume.
type PathTableRecord struct {
	// Length of Directory Identifier specifies the length in bytes of the Directory Identifier field of the Path Table
	// Record. Computed while marshalling.
	LengthOfDirectoryIdentifier uint8
	// Extended Attribute Record Length is always zero: this builder never
	// records Extended Attribute Records.
	ExtendedAttributeRecordLength uint8
	// Location of Extent specifies the Logical Block Number of the first Logical Block allocated to the Extent in which
	// the directory is recorded.
	LocationOfExtent uint32
	// Parent Directory Number specifies the record number in the Path Table for the parent directory of the directory.
	// The root directory is record number 1 and is its own parent.
	ParentDirectoryNumber uint16
	// Directory Identifier holds the mapped identifier bytes of the
	// directory, or the single 0x00 byte for the root. A null pad byte
	// follows an odd-length identifier; the pad is computed while
	// marshalling.
	DirectoryIdentifier []byte
}

// Size returns the on-disk byte length of the record: 8 fixed bytes, the
// identifier, and a pad byte when the identifier length is odd.
func (ptr *PathTableRecord) Size() int {
	size := 8 + len(ptr.DirectoryIdentifier)
	if len(ptr.DirectoryIdentifier)%2 != 0 {
		size++
	}
	return size
}

// Marshal converts a single PathTableRecord into a byte slice in the given
// byte order.
func (ptr *PathTableRecord) Marshal(littleEndian bool) ([]byte, error) {
	if len(ptr.DirectoryIdentifier) == 0 {
		return nil, fmt.Errorf("path table record has an empty directory identifier")
	}
	if len(ptr.DirectoryIdentifier) > 0xFF {
		return nil, fmt.Errorf("directory identifier of %d bytes does not fit in a path table record", len(ptr.DirectoryIdentifier))
	}
	ptr.LengthOfDirectoryIdentifier = uint8(len(ptr.DirectoryIdentifier))

	buf := make([]byte, ptr.Size())
	offset := 0

	buf[offset] = ptr.LengthOfDirectoryIdentifier
	offset++
	buf[offset] = ptr.ExtendedAttributeRecordLength
	offset++

	if littleEndian {
		binary.LittleEndian.PutUint32(buf[offset:], ptr.LocationOfExtent)
	} else {
		binary.BigEndian.PutUint32(buf[offset:], ptr.LocationOfExtent)
	}
	offset += 4

	if littleEndian {
		binary.LittleEndian.PutUint16(buf[offset:], ptr.ParentDirectoryNumber)
	} else {
		binary.BigEndian.PutUint16(buf[offset:], ptr.ParentDirectoryNumber)
	}
	offset += 2

	copy(buf[offset:], ptr.DirectoryIdentifier)

	// The pad byte after an odd-length identifier is already zero.
	return buf, nil
}

// Unmarshal decodes a single PathTableRecord from a byte slice.
func (ptr *PathTableRecord) Unmarshal(data []byte, littleEndian bool) error {
	if len(data) < 8 {
		return fmt.Errorf("data too short to contain a PathTableRecord")
	}
	offset := 0

	ptr.LengthOfDirectoryIdentifier = data[offset]
	offset++
	ptr.ExtendedAttributeRecordLength = data[offset]
	offset++

	if littleEndian {
		ptr.LocationOfExtent = binary.LittleEndian.Uint32(data[offset:])
	} else {
		ptr.LocationOfExtent = binary.BigEndian.Uint32(data[offset:])
	}
	offset += 4

	if littleEndian {
		ptr.ParentDirectoryNumber = binary.LittleEndian.Uint16(data[offset:])
	} else {
		ptr.ParentDirectoryNumber = binary.BigEndian.Uint16(data[offset:])
	}
	offset += 2

	n := int(ptr.LengthOfDirectoryIdentifier)
	if len(data) < offset+n {
		return fmt.Errorf("data too short for DirectoryIdentifier")
	}
	ptr.DirectoryIdentifier = make([]byte, n)
	copy(ptr.DirectoryIdentifier, data[offset:offset+n])

	return nil
}

// PathTable represents a full path table, containing multiple records.
type PathTable struct {
	Records []*PathTableRecord
}

// Size returns the unpadded byte length of the table.
func (pt *PathTable) Size() int {
	total := 0
	for _, record := range pt.Records {
		total += record.Size()
	}
	return total
}

// Marshal converts the PathTable into a contiguous byte array in the given
// byte order.
func (pt *PathTable) Marshal(littleEndian bool) ([]byte, error) {
	var buf bytes.Buffer
	for _, record := range pt.Records {
		recBytes, err := record.Marshal(littleEndian)
		if err != nil {
			return nil, err
		}
		buf.Write(recBytes)
	}
	return buf.Bytes(), nil
}

// UnmarshalTable decodes a contiguous path table.
func UnmarshalTable(data []byte, littleEndian bool) (*PathTable, error) {
	pt := &PathTable{}
	offset := 0
	for offset < len(data) {
		record := &PathTableRecord{}
		if err := record.Unmarshal(data[offset:], littleEndian); err != nil {
			return nil, fmt.Errorf("failed to unmarshal path table record at offset %d: %w", offset, err)
		}
		pt.Records = append(pt.Records, record)
		offset += record.Size()
	}
	return pt, nil
}
