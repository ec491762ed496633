package image

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/asztal/generate-iso/pkg/consts"
)

// Attributes holds the boolean file attributes recorded in a directory
// record's file flags field. Hidden inverts the meaning of the ISO9660
// "Existence" bit.
type Attributes struct {
	Hidden         bool
	AssociatedFile bool
	Record         bool
	Protection     bool
	MultiExtent    bool
}

// FileSystemObject is a named entry of a volume's directory tree. Every entry
// carries its source name; after canonicalisation it also carries the mapped
// name (text form) and the mapped identifier (equal-length ASCII bytes).
type FileSystemObject interface {
	Name() string
	Attributes() Attributes
	MappedName() string
	MappedIdentifier() []byte
	SetMapped(name string, identifier []byte)
	IsDir() bool
}

// Object is the common state embedded by Directory and File.
type Object struct {
	name             string
	attributes       Attributes
	mappedName       string
	mappedIdentifier []byte
}

// Name returns the source name of the entry as given by the host.
func (o *Object) Name() string { return o.name }

// Attributes returns the entry's file attributes.
func (o *Object) Attributes() Attributes { return o.attributes }

// SetAttributes replaces the entry's file attributes. Attributes are read
// only once the entry has been handed to the builder.
func (o *Object) SetAttributes(attrs Attributes) { o.attributes = attrs }

// MappedName returns the canonicalised name, or "" before canonicalisation.
func (o *Object) MappedName() string { return o.mappedName }

// MappedIdentifier returns the on-disk identifier bytes, or nil before
// canonicalisation.
func (o *Object) MappedIdentifier() []byte { return o.mappedIdentifier }

// SetMapped records the canonicalised name and identifier. Only the name
// canonicaliser calls this.
func (o *Object) SetMapped(name string, identifier []byte) {
	o.mappedName = name
	o.mappedIdentifier = identifier
}

// Directory is a FileSystemObject with an ordered sequence of children.
type Directory struct {
	Object
	children []FileSystemObject
}

// NewDirectory returns an empty directory with the given source name.
func NewDirectory(name string) *Directory {
	return &Directory{Object: Object{name: name}}
}

func (d *Directory) IsDir() bool { return true }

// Children returns the ordered child entries.
func (d *Directory) Children() []FileSystemObject { return d.children }

// Add appends child entries in order.
func (d *Directory) Add(children ...FileSystemObject) {
	d.children = append(d.children, children...)
}

// File is a FileSystemObject with a content source and a pre-measured data
// length. The content source must yield exactly DataLength bytes at write
// time; a source that has grown fails the build.
type File struct {
	Object
	dataLength uint32
	open       func() (io.ReadCloser, error)
}

// NewFileFromPath returns a file whose content is read from the host path at
// write time. The data length is measured now.
func NewFileFromPath(name, path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > int64(^uint32(0)) {
		return nil, fmt.Errorf("file %s is too large for a single ISO9660 extent: %d bytes", path, info.Size())
	}
	return &File{
		Object:     Object{name: name},
		dataLength: uint32(info.Size()),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewFileFromBytes returns a file backed by an in-memory byte slice.
func NewFileFromBytes(name string, data []byte) *File {
	return &File{
		Object:     Object{name: name},
		dataLength: uint32(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func (f *File) IsDir() bool { return false }

// DataLength returns the measured content length in bytes.
func (f *File) DataLength() uint32 { return f.dataLength }

// Open opens the content source. The caller owns the returned reader and
// closes it on every exit path.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content source", f.name)
	}
	return f.open()
}

// Volume holds the volume level metadata recorded in a primary or
// supplementary volume descriptor, and the root of its directory tree.
type Volume struct {
	SystemIdentifier            string
	VolumeIdentifier            string
	VolumeSetIdentifier         string
	PublisherIdentifier         string
	DataPreparerIdentifier      string
	ApplicationIdentifier       string
	CopyrightFileIdentifier     string
	AbstractFileIdentifier      string
	BibliographicFileIdentifier string
	CreationTime                time.Time
	ModificationTime            time.Time
	ExpirationTime              time.Time
	EffectiveTime               time.Time
	VolumeSetSize               uint16
	VolumeSequenceNumber        uint16
	LogicalBlockSize            uint16
	Root                        *Directory
}

// NewVolume returns a volume with the given identifier, an empty root
// directory and the defaults every single-volume image uses: set size 1,
// sequence number 1, logical block size 2048.
func NewVolume(volumeIdentifier string) *Volume {
	return &Volume{
		VolumeIdentifier:     volumeIdentifier,
		VolumeSetSize:        1,
		VolumeSequenceNumber: 1,
		LogicalBlockSize:     consts.ISO9660_SECTOR_SIZE,
		Root:                 NewDirectory(""),
	}
}

// DiskImage aggregates one primary volume, zero or more supplementary
// volumes and an optional boot catalog. The model is built, handed to the
// builder, and treated as immutable afterwards except for the mapped name
// fields written during canonicalisation.
type DiskImage struct {
	Primary       *Volume
	Supplementary []*Volume
	BootCatalog   *BootCatalog
}

// NewDiskImage returns an image holding the given primary volume.
func NewDiskImage(primary *Volume) *DiskImage {
	return &DiskImage{Primary: primary}
}

// Volumes returns the primary volume followed by the supplementary volumes.
func (d *DiskImage) Volumes() []*Volume {
	if d.Primary == nil {
		return d.Supplementary
	}
	return append([]*Volume{d.Primary}, d.Supplementary...)
}
