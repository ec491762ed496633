// Package builder drives the two-pass emission of an ISO9660 image: names
// are canonicalised, sectors are reserved while the layout is still being
// discovered, downstream structures are emitted, and the structures that
// reference them are backfilled at their reserved sectors.
package builder

import (
	"fmt"
	"io"
	"time"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/iso9660"
	"github.com/asztal/generate-iso/pkg/iso9660/boot"
	"github.com/asztal/generate-iso/pkg/iso9660/descriptor"
	"github.com/asztal/generate-iso/pkg/iso9660/directory"
	"github.com/asztal/generate-iso/pkg/iso9660/names"
	"github.com/asztal/generate-iso/pkg/iso9660/validation"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
	"github.com/asztal/generate-iso/pkg/logging"
	"github.com/asztal/generate-iso/pkg/options"
)

// Builder emits one DiskImage to one output stream. A Builder is used for a
// single build and is not safe for concurrent use; it owns the stream for the
// whole build.
type Builder struct {
	img           *image.DiskImage
	opts          options.Options
	log           *logging.Logger
	iw            *writer.ImageWriter
	tables        layoutTables
	recordingTime time.Time
	// imageEnd is the first byte past every allocated extent. Allocation
	// advances it ahead of the physical end of the stream, which only grows
	// as structures are written.
	imageEnd     int64
	totalFiles   int
	writtenFiles int
}

// New validates the model and configuration and returns a builder for it.
func New(img *image.DiskImage, opts ...options.Option) (*Builder, error) {
	o := options.New(opts...)

	if o.Mode != options.Mode1 {
		return nil, fmt.Errorf("sector mode %s: %w", o.Mode, iso9660.ErrUnsupported)
	}
	if o.Extensions.Has(options.Udf) {
		return nil, fmt.Errorf("UDF extensions: %w", iso9660.ErrUnsupported)
	}
	if o.Extensions.Has(options.Apple) {
		return nil, fmt.Errorf("Apple extensions: %w", iso9660.ErrUnsupported)
	}

	if img == nil || img.Primary == nil {
		return nil, fmt.Errorf("image has no primary volume: %w", iso9660.ErrModelInconsistent)
	}
	totalFiles := 0
	for _, v := range img.Volumes() {
		if v.Root == nil {
			return nil, fmt.Errorf("volume %q has no root directory: %w",
				v.VolumeIdentifier, iso9660.ErrModelInconsistent)
		}
		if v.LogicalBlockSize != consts.ISO9660_SECTOR_SIZE {
			return nil, fmt.Errorf("volume %q logical block size %d: %w",
				v.VolumeIdentifier, v.LogicalBlockSize, iso9660.ErrUnsupported)
		}
		if err := validateVolumeMetadata(v); err != nil {
			return nil, err
		}
		totalFiles += countFiles(v.Root)
	}
	if img.BootCatalog != nil && img.BootCatalog.InitialEntry == nil {
		return nil, fmt.Errorf("boot catalog has no initial entry: %w", iso9660.ErrModelInconsistent)
	}

	return &Builder{
		img:        img,
		opts:       o,
		log:        logging.NewLogger(o.Logger).WithName("builder"),
		tables:     newLayoutTables(),
		totalFiles: totalFiles,
	}, nil
}

// validateVolumeMetadata checks the descriptor string fields against their
// character sets before any byte is written, so misconfigured metadata fails
// the build up front rather than halfway through emission.
func validateVolumeMetadata(v *image.Volume) error {
	checks := []struct {
		field string
		value string
		check func(string) error
	}{
		{"system identifier", v.SystemIdentifier, validation.ValidateACharacters},
		{"volume identifier", v.VolumeIdentifier, func(s string) error { return validation.ValidateDCharacters(s, false) }},
		{"volume set identifier", v.VolumeSetIdentifier, func(s string) error { return validation.ValidateDCharacters(s, false) }},
		{"publisher identifier", v.PublisherIdentifier, validation.ValidateACharacters},
		{"data preparer identifier", v.DataPreparerIdentifier, validation.ValidateACharacters},
		{"application identifier", v.ApplicationIdentifier, validation.ValidateACharacters},
		{"copyright file identifier", v.CopyrightFileIdentifier, validation.ValidateFileIdentifier},
		{"abstract file identifier", v.AbstractFileIdentifier, validation.ValidateFileIdentifier},
		{"bibliographic file identifier", v.BibliographicFileIdentifier, validation.ValidateFileIdentifier},
	}
	for _, c := range checks {
		if err := c.check(c.value); err != nil {
			return fmt.Errorf("volume %q %s: %v: %w", v.VolumeIdentifier, c.field, err, iso9660.ErrInvalidArgument)
		}
	}
	return nil
}

func countFiles(d *image.Directory) int {
	count := 0
	for _, child := range d.Children() {
		if sub, ok := child.(*image.Directory); ok {
			count += countFiles(sub)
		} else {
			count++
		}
	}
	return count
}

// Build emits the image to the stream. The stream must be empty, seekable and
// exclusively owned by the builder; on error a partial image is left behind
// for inspection and should not be used.
func (b *Builder) Build(w io.WriteSeeker) (err error) {
	b.iw, err = writer.New(w)
	if err != nil {
		return err
	}

	b.recordingTime = b.opts.RecordingTime
	if b.recordingTime.IsZero() {
		b.recordingTime = time.Now()
	}

	// The system area stays zero; the first descriptor goes at sector 16.
	if err := b.iw.SeekToSector(consts.ISO9660_SYSTEM_AREA_SECTORS); err != nil {
		return err
	}

	mapper := names.NewMapper(b.opts.Level, b.opts.Flags, b.opts.Logger)
	for _, v := range b.img.Volumes() {
		if err := mapper.MapVolume(v); err != nil {
			return err
		}
	}
	b.log.Debug("canonicalised names", "level", b.opts.Level.String())
	b.log.Debug("directory records and path table entries are sorted by identifier (ISO9660 9.3)")

	if err := b.allocateVolumeDescriptor(b.img.Primary); err != nil {
		return err
	}
	if b.img.BootCatalog != nil {
		if err := b.allocateBootRecord(); err != nil {
			return err
		}
	}
	for _, v := range b.img.Supplementary {
		if err := b.allocateVolumeDescriptor(v); err != nil {
			return err
		}
	}

	terminator := descriptor.NewVolumeDescriptorSetTerminator()
	if err := terminator.WriteTo(b.iw); err != nil {
		return err
	}
	b.advanceImageEnd()

	if b.img.BootCatalog != nil {
		if err := b.emitBootCatalog(b.img.BootCatalog); err != nil {
			return err
		}
	}

	if err := b.emitVolume(b.img.Primary, true); err != nil {
		return err
	}
	for _, v := range b.img.Supplementary {
		if err := b.emitVolume(v, false); err != nil {
			return err
		}
	}

	// Extend the stream to the last allocated sector boundary with a single
	// zero byte when the final writes fell short of it.
	if err := b.iw.SeekToEnd(); err != nil {
		return err
	}
	if b.iw.Position() < b.imageEnd {
		if _, err := b.iw.Seek(b.imageEnd-1, io.SeekStart); err != nil {
			return err
		}
		if err := b.iw.WriteUint8(0); err != nil {
			return err
		}
	}
	b.log.Info("image complete", "sectors", b.imageEnd/consts.ISO9660_SECTOR_SIZE, "files", b.writtenFiles)
	return nil
}

// advanceImageEnd notes the writer's position as the new end of the
// allocated image when it lies past the previous one.
func (b *Builder) advanceImageEnd() {
	if b.iw.Position() > b.imageEnd {
		b.imageEnd = b.iw.Position()
	}
}

// allocateVolumeDescriptor reserves the current sector for the volume's
// descriptor and advances one sector.
func (b *Builder) allocateVolumeDescriptor(v *image.Volume) error {
	if !b.iw.AtStartOfSector() {
		return fmt.Errorf("volume descriptor allocation at unaligned position %d: %w",
			b.iw.Position(), iso9660.ErrBuilderState)
	}
	if _, exists := b.tables.volumes[v]; exists {
		return fmt.Errorf("volume %q already has a descriptor sector: %w",
			v.VolumeIdentifier, iso9660.ErrBuilderState)
	}
	sector := b.iw.CurrentSector()
	b.tables.volumes[v] = &VolumeLocation{DescriptorSector: sector}
	b.log.Trace("allocated volume descriptor", "volume", v.VolumeIdentifier, "sector", sector)
	if err := b.iw.SeekToSector(sector + 1); err != nil {
		return err
	}
	b.advanceImageEnd()
	return nil
}

// allocateBootRecord reserves the current sector for the El Torito boot
// record.
func (b *Builder) allocateBootRecord() error {
	if !b.iw.AtStartOfSector() {
		return fmt.Errorf("boot record allocation at unaligned position %d: %w",
			b.iw.Position(), iso9660.ErrBuilderState)
	}
	if b.tables.bootRecordAllocated {
		return fmt.Errorf("boot record is already allocated: %w", iso9660.ErrBuilderState)
	}
	sector := b.iw.CurrentSector()
	b.tables.bootRecordSector = sector
	b.tables.bootRecordAllocated = true
	b.log.Trace("allocated boot record", "sector", sector)
	if err := b.iw.SeekToSector(sector + 1); err != nil {
		return err
	}
	b.advanceImageEnd()
	return nil
}

// emitBootCatalog reserves the catalog sector, emits each boot image extent
// behind it, then backfills the catalog and the boot record.
func (b *Builder) emitBootCatalog(cat *image.BootCatalog) error {
	if !b.tables.bootRecordAllocated {
		return fmt.Errorf("boot catalog emitted before the boot record was allocated: %w", iso9660.ErrBuilderState)
	}
	if !b.iw.AtStartOfSector() {
		return fmt.Errorf("boot catalog emission at unaligned position %d: %w",
			b.iw.Position(), iso9660.ErrBuilderState)
	}

	b.tables.bootCatalogSector = b.iw.CurrentSector()
	if err := b.iw.SeekToSector(b.tables.bootCatalogSector + 1); err != nil {
		return err
	}
	b.advanceImageEnd()

	// Boot image data goes immediately after the catalog, one extent per
	// entry, so the catalog's load RBAs are known before it is written.
	for _, entry := range cat.Entries() {
		rba := b.iw.CurrentSector()
		b.tables.bootEntryRBAs[entry] = rba
		if len(entry.Data) > 0 {
			if err := b.iw.WriteBytes(entry.Data); err != nil {
				return err
			}
			if err := b.iw.SeekToNextSector(); err != nil {
				return err
			}
		}
		b.advanceImageEnd()
		b.log.Trace("emitted boot image", "sector", rba, "bytes", len(entry.Data))
	}

	catalogBytes, err := boot.MarshalCatalog(cat, b.tables.bootEntryRBAs)
	if err != nil {
		return err
	}
	if err := b.iw.PreservingLocation(func() error {
		if err := b.iw.SeekToSector(b.tables.bootCatalogSector); err != nil {
			return err
		}
		return b.iw.WriteBytes(catalogBytes)
	}); err != nil {
		return err
	}

	bootRecord := descriptor.NewBootRecordDescriptor(b.tables.bootCatalogSector)
	if err := b.iw.PreservingLocation(func() error {
		if err := b.iw.SeekToSector(b.tables.bootRecordSector); err != nil {
			return err
		}
		return bootRecord.WriteTo(b.iw)
	}); err != nil {
		return err
	}
	b.log.Debug("emitted boot catalog", "sector", b.tables.bootCatalogSector, "entries", len(cat.Entries()))
	return nil
}

// emitVolume lays out and emits one volume: directory extents, path tables,
// file extents, then the backfilled volume descriptor.
func (b *Builder) emitVolume(v *image.Volume, primary bool) error {
	location, ok := b.tables.volumes[v]
	if !ok {
		return fmt.Errorf("volume %q has no descriptor sector: %w",
			v.VolumeIdentifier, iso9660.ErrBuilderState)
	}
	if location.written {
		return fmt.Errorf("volume %q was already emitted: %w", v.VolumeIdentifier, iso9660.ErrBuilderState)
	}

	// Position at the end of the allocated image for this volume's extents.
	if _, err := b.iw.Seek(b.imageEnd, io.SeekStart); err != nil {
		return err
	}
	if err := b.iw.SeekToNextSector(); err != nil {
		return err
	}

	if err := b.allocateDirectoryExtents(v, v.Root); err != nil {
		return err
	}

	if err := b.emitPathTables(v, location); err != nil {
		return err
	}

	if err := b.allocateFileExtents(v, v.Root); err != nil {
		return err
	}

	rootLocation := b.tables.directories[v.Root]
	if err := b.emitDirectoryExtents(v, v.Root, rootLocation); err != nil {
		return err
	}
	if err := b.emitFileExtents(v.Root); err != nil {
		return err
	}

	blockCount, err := toUint32(b.imageEnd / int64(v.LogicalBlockSize))
	if err != nil {
		return fmt.Errorf("volume %q space size: %w", v.VolumeIdentifier, err)
	}
	location.LogicalBlockCount = blockCount

	if err := b.iw.PreservingLocation(func() error {
		if err := b.iw.SeekToSector(location.DescriptorSector); err != nil {
			return err
		}
		return b.emitVolumeDescriptor(v, location, primary)
	}); err != nil {
		return err
	}
	location.written = true

	if _, err := b.iw.Seek(b.imageEnd, io.SeekStart); err != nil {
		return err
	}
	b.log.Debug("emitted volume", "volume", v.VolumeIdentifier, "primary", primary, "blocks", blockCount)
	return nil
}

// allocateDirectoryExtents reserves the extents of d and its descendant
// directories, depth first.
func (b *Builder) allocateDirectoryExtents(v *image.Volume, d *image.Directory) error {
	if !b.iw.AtStartOfSector() {
		return fmt.Errorf("directory extent allocation at unaligned position %d: %w",
			b.iw.Position(), iso9660.ErrBuilderState)
	}
	if _, exists := b.tables.directories[d]; exists {
		return fmt.Errorf("directory %q already has an extent: %w", d.Name(), iso9660.ErrBuilderState)
	}

	requiredBytes, err := measureDirectory(d)
	if err != nil {
		return err
	}
	sectors := (requiredBytes + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
	if sectors == 0 {
		sectors = 1
	}
	sector := b.iw.CurrentSector()
	b.tables.directories[d] = &DirectoryLocation{
		ExtentSector: sector,
		SectorCount:  sectors,
		DataLength:   sectors * consts.ISO9660_SECTOR_SIZE,
	}
	if err := b.iw.SeekToSector(sector + sectors); err != nil {
		return err
	}
	b.advanceImageEnd()
	b.log.Trace("allocated directory extent", "directory", d.Name(), "sector", sector, "sectors", sectors)

	for _, child := range sortedChildren(d) {
		if sub, ok := child.(*image.Directory); ok {
			if err := b.allocateDirectoryExtents(v, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// allocateFileExtents reserves extents for the files of d and its descendant
// directories at the end of the image, depth first. Empty files reserve
// nothing and record extent sector zero.
func (b *Builder) allocateFileExtents(v *image.Volume, d *image.Directory) error {
	for _, child := range sortedChildren(d) {
		switch entry := child.(type) {
		case *image.Directory:
			if err := b.allocateFileExtents(v, entry); err != nil {
				return err
			}
		case *image.File:
			if !b.iw.AtStartOfSector() {
				return fmt.Errorf("file extent allocation at unaligned position %d: %w",
					b.iw.Position(), iso9660.ErrBuilderState)
			}
			if _, exists := b.tables.files[entry]; exists {
				return fmt.Errorf("file %q already has an extent: %w", entry.Name(), iso9660.ErrBuilderState)
			}
			length := entry.DataLength()
			sectors := (length + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
			location := &FileLocation{DataLength: length, SectorCount: sectors}
			if sectors > 0 {
				location.ExtentSector = b.iw.CurrentSector()
				if err := b.iw.SeekToSector(location.ExtentSector + sectors); err != nil {
					return err
				}
				b.advanceImageEnd()
			}
			b.tables.files[entry] = location
			b.log.Trace("allocated file extent", "file", entry.Name(),
				"sector", location.ExtentSector, "sectors", sectors)
		}
	}
	return nil
}

// emitPathTables writes the type L and type M tables contiguously at the
// current sector boundary and records their locations and length.
func (b *Builder) emitPathTables(v *image.Volume, location *VolumeLocation) error {
	if !b.iw.AtStartOfSector() {
		return fmt.Errorf("path table emission at unaligned position %d: %w",
			b.iw.Position(), iso9660.ErrBuilderState)
	}

	table, err := b.buildPathTable(v)
	if err != nil {
		return err
	}

	typeL, err := table.Marshal(true)
	if err != nil {
		return err
	}
	location.TypeLPathTableSector = b.iw.CurrentSector()
	if err := b.iw.WriteBytes(typeL); err != nil {
		return err
	}

	typeM, err := table.Marshal(false)
	if err != nil {
		return err
	}
	location.TypeMPathTableSector = b.iw.CurrentSector()
	if err := b.iw.WriteBytes(typeM); err != nil {
		return err
	}

	if len(typeL) != len(typeM) {
		return fmt.Errorf("path tables differ in length: type L %d bytes, type M %d bytes: %w",
			len(typeL), len(typeM), iso9660.ErrBuilderState)
	}
	size, err := toUint32(int64(len(typeL)))
	if err != nil {
		return fmt.Errorf("path table of volume %q: %w", v.VolumeIdentifier, err)
	}
	location.PathTableSize = size

	if err := b.iw.SeekToNextSector(); err != nil {
		return err
	}
	b.advanceImageEnd()
	b.log.Debug("emitted path tables", "volume", v.VolumeIdentifier,
		"records", len(table.Records), "bytes", size,
		"typeL", location.TypeLPathTableSector, "typeM", location.TypeMPathTableSector)
	return nil
}

// recordFor builds the directory record describing one entry.
func (b *Builder) recordFor(identifier []byte, flags directory.FileFlags,
	extentSector, dataLength uint32, sequenceNumber uint16) *directory.DirectoryRecord {
	return &directory.DirectoryRecord{
		LocationOfExtent:     extentSector,
		DataLength:           dataLength,
		RecordingDateAndTime: b.recordingTime,
		FileFlags:            flags,
		VolumeSequenceNumber: sequenceNumber,
		FileIdentifier:       identifier,
	}
}

// emitDirectoryExtents writes the extent of d at its reserved sectors, then
// descends. Records are ordered by identifier; every record ends in the
// sector it begins in, with the gap before a pushed record zero filled.
func (b *Builder) emitDirectoryExtents(v *image.Volume, d *image.Directory, parentLocation *DirectoryLocation) error {
	location, ok := b.tables.directories[d]
	if !ok {
		return fmt.Errorf("directory %q has no allocated extent: %w", d.Name(), iso9660.ErrBuilderState)
	}
	if location.written {
		return fmt.Errorf("directory %q was already emitted: %w", d.Name(), iso9660.ErrBuilderState)
	}
	if err := b.iw.SeekToSector(location.ExtentSector); err != nil {
		return err
	}
	extentStart := b.iw.Position()
	extentEnd := extentStart + int64(location.DataLength)

	writeRecord := func(record *directory.DirectoryRecord) error {
		recordBytes, err := record.Marshal()
		if err != nil {
			return err
		}
		offset := b.iw.Position() - extentStart
		remaining := consts.ISO9660_SECTOR_SIZE - int(offset%consts.ISO9660_SECTOR_SIZE)
		if len(recordBytes) > remaining {
			if err := b.iw.WriteZeros(remaining); err != nil {
				return err
			}
		}
		if b.iw.Position()+int64(len(recordBytes)) > extentEnd {
			return fmt.Errorf("directory %q overflows its measured extent: %w", d.Name(), iso9660.ErrBuilderState)
		}
		return b.iw.WriteBytes(recordBytes)
	}

	selfFlags := directory.FileFlags{Directory: true}
	self := b.recordFor([]byte(directory.SelfIdentifier), selfFlags,
		location.ExtentSector, location.DataLength, v.VolumeSequenceNumber)
	if err := writeRecord(self); err != nil {
		return err
	}
	parent := b.recordFor([]byte(directory.ParentIdentifier), selfFlags,
		parentLocation.ExtentSector, parentLocation.DataLength, v.VolumeSequenceNumber)
	if err := writeRecord(parent); err != nil {
		return err
	}

	for _, child := range sortedChildren(d) {
		switch entry := child.(type) {
		case *image.Directory:
			childLocation, ok := b.tables.directories[entry]
			if !ok {
				return fmt.Errorf("directory %q has no allocated extent: %w", entry.Name(), iso9660.ErrBuilderState)
			}
			record := b.recordFor(entry.MappedIdentifier(), directory.FlagsFor(entry),
				childLocation.ExtentSector, childLocation.DataLength, v.VolumeSequenceNumber)
			if err := writeRecord(record); err != nil {
				return err
			}
		case *image.File:
			childLocation, ok := b.tables.files[entry]
			if !ok {
				return fmt.Errorf("file %q has no allocated extent: %w", entry.Name(), iso9660.ErrBuilderState)
			}
			record := b.recordFor(entry.MappedIdentifier(), directory.FlagsFor(entry),
				childLocation.ExtentSector, childLocation.DataLength, v.VolumeSequenceNumber)
			if err := writeRecord(record); err != nil {
				return err
			}
		}
	}

	// Define the rest of the extent.
	if err := b.iw.WriteZeros(int(extentEnd - b.iw.Position())); err != nil {
		return err
	}
	location.written = true

	for _, child := range sortedChildren(d) {
		if sub, ok := child.(*image.Directory); ok {
			if err := b.emitDirectoryExtents(v, sub, location); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitFileExtents streams the file contents of d and its descendants to
// their reserved extents, depth first in the same order they were allocated.
func (b *Builder) emitFileExtents(d *image.Directory) error {
	for _, child := range sortedChildren(d) {
		switch entry := child.(type) {
		case *image.Directory:
			if err := b.emitFileExtents(entry); err != nil {
				return err
			}
		case *image.File:
			if err := b.emitFile(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) emitFile(f *image.File) error {
	location, ok := b.tables.files[f]
	if !ok {
		return fmt.Errorf("file %q has no allocated extent: %w", f.Name(), iso9660.ErrBuilderState)
	}
	if location.written {
		return fmt.Errorf("file %q was already emitted: %w", f.Name(), iso9660.ErrBuilderState)
	}

	b.writtenFiles++
	if b.opts.ProgressCallback != nil {
		b.opts.ProgressCallback(f.Name(), 0, int64(location.DataLength), b.writtenFiles, b.totalFiles)
	}

	if location.SectorCount > 0 {
		if err := b.iw.SeekToSector(location.ExtentSector); err != nil {
			return err
		}
		if err := b.copyContents(f, location); err != nil {
			return err
		}
	}
	location.written = true

	if b.opts.ProgressCallback != nil {
		b.opts.ProgressCallback(f.Name(), int64(location.DataLength), int64(location.DataLength),
			b.writtenFiles, b.totalFiles)
	}
	b.log.Trace("emitted file", "file", f.Name(), "sector", location.ExtentSector, "bytes", location.DataLength)
	return nil
}

// copyContents streams one content source to its extent, releasing the
// source on every exit path. A source that yields more or fewer bytes than
// were measured at allocation time fails the build.
func (b *Builder) copyContents(f *image.File, location *FileLocation) error {
	source, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open contents of %q: %w", f.Name(), err)
	}
	defer source.Close()

	copied, err := io.Copy(b.iw, io.LimitReader(source, int64(location.DataLength)))
	if err != nil {
		return fmt.Errorf("failed to copy contents of %q: %w", f.Name(), err)
	}
	if copied != int64(location.DataLength) {
		return fmt.Errorf("contents of %q shrank to %d of %d bytes: %w",
			f.Name(), copied, location.DataLength, iso9660.ErrContentRace)
	}
	// One more readable byte means the source grew past its measured length.
	var probe [1]byte
	if n, _ := source.Read(probe[:]); n > 0 {
		return fmt.Errorf("contents of %q grew past %d bytes: %w",
			f.Name(), location.DataLength, iso9660.ErrContentRace)
	}
	return nil
}

// emitVolumeDescriptor writes the primary or supplementary descriptor of v
// at the writer's current position.
func (b *Builder) emitVolumeDescriptor(v *image.Volume, location *VolumeLocation, primary bool) error {
	rootLocation, ok := b.tables.directories[v.Root]
	if !ok {
		return fmt.Errorf("root of volume %q has no allocated extent: %w",
			v.VolumeIdentifier, iso9660.ErrBuilderState)
	}

	descriptorType := descriptor.TYPE_SUPPLEMENTARY_DESCRIPTOR
	if primary {
		descriptorType = descriptor.TYPE_PRIMARY_DESCRIPTOR
	}
	vd := descriptor.NewVolumeDescriptor(descriptorType)
	vd.SystemIdentifier = v.SystemIdentifier
	vd.VolumeIdentifier = v.VolumeIdentifier
	vd.VolumeSpaceSize = location.LogicalBlockCount
	vd.VolumeSetSize = v.VolumeSetSize
	vd.VolumeSequenceNumber = v.VolumeSequenceNumber
	vd.LogicalBlockSize = v.LogicalBlockSize
	vd.PathTableSize = roundUpToSector(location.PathTableSize)
	vd.TypeLPathTableLocation = location.TypeLPathTableSector
	vd.TypeMPathTableLocation = location.TypeMPathTableSector
	vd.RootDirectoryRecord = b.recordFor([]byte(directory.SelfIdentifier),
		directory.FileFlags{Directory: true}, rootLocation.ExtentSector, rootLocation.DataLength,
		v.VolumeSequenceNumber)
	vd.VolumeSetIdentifier = v.VolumeSetIdentifier
	vd.PublisherIdentifier = v.PublisherIdentifier
	vd.DataPreparerIdentifier = v.DataPreparerIdentifier
	vd.ApplicationIdentifier = v.ApplicationIdentifier
	vd.CopyrightFileIdentifier = v.CopyrightFileIdentifier
	vd.AbstractFileIdentifier = v.AbstractFileIdentifier
	vd.BibliographicFileIdentifier = v.BibliographicFileIdentifier
	vd.VolumeCreationDateAndTime = v.CreationTime
	vd.VolumeModificationDateAndTime = v.ModificationTime
	vd.VolumeExpirationDateAndTime = v.ExpirationTime
	vd.VolumeEffectiveDateAndTime = v.EffectiveTime

	return vd.WriteTo(b.iw)
}

// Location lookups for tests and external inspection.

// VolumeLocation returns the side table entry of v, or nil before layout.
func (b *Builder) VolumeLocation(v *image.Volume) *VolumeLocation {
	return b.tables.volumes[v]
}

// DirectoryLocation returns the side table entry of d, or nil before layout.
func (b *Builder) DirectoryLocation(d *image.Directory) *DirectoryLocation {
	return b.tables.directories[d]
}

// FileLocation returns the side table entry of f, or nil before layout.
func (b *Builder) FileLocation(f *image.File) *FileLocation {
	return b.tables.files[f]
}

// BootCatalogSector returns the sector of the boot catalog, or zero when the
// image has none.
func (b *Builder) BootCatalogSector() uint32 {
	return b.tables.bootCatalogSector
}

func roundUpToSector(n uint32) uint32 {
	return (n + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE * consts.ISO9660_SECTOR_SIZE
}

func toUint32(n int64) (uint32, error) {
	if n < 0 || n > int64(^uint32(0)) {
		return 0, fmt.Errorf("value %d does not fit in 32 bits: %w", n, iso9660.ErrSizeOverflow)
	}
	return uint32(n), nil
}
