package builder

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/iso9660"
	"github.com/asztal/generate-iso/pkg/iso9660/directory"
	"github.com/asztal/generate-iso/pkg/iso9660/pathtable"
)

// VolumeLocation records where a volume's structures were allocated.
type VolumeLocation struct {
	// DescriptorSector is the reserved sector of the volume descriptor.
	DescriptorSector uint32
	// TypeLPathTableSector and TypeMPathTableSector are the sectors
	// containing the first byte of each path table.
	TypeLPathTableSector uint32
	TypeMPathTableSector uint32
	// PathTableSize is the unpadded byte length of one path table.
	PathTableSize uint32
	// LogicalBlockCount is the volume space size in logical blocks, known
	// once every extent of the volume has been laid out.
	LogicalBlockCount uint32
	written           bool
}

// DirectoryLocation records a directory extent's allocation.
type DirectoryLocation struct {
	ExtentSector uint32
	SectorCount  uint32
	// DataLength is the extent length in bytes recorded in directory
	// records, always a whole number of sectors.
	DataLength uint32
	written    bool
}

// FileLocation records a file extent's allocation. A zero-length file
// reserves no sectors and records extent sector zero.
type FileLocation struct {
	ExtentSector uint32
	SectorCount  uint32
	DataLength   uint32
	written      bool
}

// layoutTables holds the side tables the two-pass build records allocations
// in, keyed by entity identity so the model stays untouched.
type layoutTables struct {
	volumes             map[*image.Volume]*VolumeLocation
	directories         map[*image.Directory]*DirectoryLocation
	files               map[*image.File]*FileLocation
	bootRecordSector    uint32
	bootRecordAllocated bool
	bootCatalogSector   uint32
	bootEntryRBAs       map[*image.BootCatalogEntry]uint32
}

func newLayoutTables() layoutTables {
	return layoutTables{
		volumes:       make(map[*image.Volume]*VolumeLocation),
		directories:   make(map[*image.Directory]*DirectoryLocation),
		files:         make(map[*image.File]*FileLocation),
		bootEntryRBAs: make(map[*image.BootCatalogEntry]uint32),
	}
}

// sortedChildren returns the children of d ordered by their mapped
// identifiers (ISO9660 9.3 ordering). Associated entries share their
// sibling's identifier and keep their model order relative to it through
// the stable sort.
func sortedChildren(d *image.Directory) []image.FileSystemObject {
	children := append([]image.FileSystemObject(nil), d.Children()...)
	sort.SliceStable(children, func(i, j int) bool {
		return bytes.Compare(children[i].MappedIdentifier(), children[j].MappedIdentifier()) < 0
	})
	return children
}

// measureDirectory computes the byte length of the directory's extent: the
// self and parent records followed by one record per child in emission
// order, with records pushed past sector boundaries they would otherwise
// cross.
func measureDirectory(d *image.Directory) (uint32, error) {
	offset := 2 * directory.BaseRecordSize(1)
	for _, child := range sortedChildren(d) {
		identifier := child.MappedIdentifier()
		if len(identifier) == 0 {
			return 0, fmt.Errorf("entry %q has not been canonicalised: %w", child.Name(), iso9660.ErrBuilderState)
		}
		recordLength := directory.BaseRecordSize(len(identifier))
		if offset%consts.ISO9660_SECTOR_SIZE+recordLength > consts.ISO9660_SECTOR_SIZE {
			offset = (offset/consts.ISO9660_SECTOR_SIZE + 1) * consts.ISO9660_SECTOR_SIZE
		}
		offset += recordLength
	}
	if offset > int(^uint32(0)) {
		return 0, fmt.Errorf("directory %q extent of %d bytes: %w", d.Name(), offset, iso9660.ErrSizeOverflow)
	}
	return uint32(offset), nil
}

// buildPathTable assembles the volume's path table: breadth first from the
// root (record number 1, its own parent), siblings in identifier order.
func (b *Builder) buildPathTable(v *image.Volume) (*pathtable.PathTable, error) {
	rootLocation, ok := b.tables.directories[v.Root]
	if !ok {
		return nil, fmt.Errorf("root of volume %q has no allocated extent: %w",
			v.VolumeIdentifier, iso9660.ErrBuilderState)
	}

	table := &pathtable.PathTable{
		Records: []*pathtable.PathTableRecord{{
			LocationOfExtent:      rootLocation.ExtentSector,
			ParentDirectoryNumber: 1,
			DirectoryIdentifier:   []byte(pathtable.RootIdentifier),
		}},
	}

	type numbered struct {
		dir    *image.Directory
		number uint16
	}
	queue := []numbered{{dir: v.Root, number: 1}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range sortedChildren(current.dir) {
			sub, isDir := child.(*image.Directory)
			if !isDir {
				continue
			}
			location, ok := b.tables.directories[sub]
			if !ok {
				return nil, fmt.Errorf("directory %q has no allocated extent: %w",
					sub.Name(), iso9660.ErrBuilderState)
			}
			if len(table.Records) >= 0xFFFF {
				return nil, fmt.Errorf("volume %q has more than 65535 directories: %w",
					v.VolumeIdentifier, iso9660.ErrSizeOverflow)
			}
			table.Records = append(table.Records, &pathtable.PathTableRecord{
				LocationOfExtent:      location.ExtentSector,
				ParentDirectoryNumber: current.number,
				DirectoryIdentifier:   sub.MappedIdentifier(),
			})
			queue = append(queue, numbered{dir: sub, number: uint16(len(table.Records))})
		}
	}
	return table, nil
}
