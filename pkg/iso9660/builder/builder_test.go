package builder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/iso9660"
	"github.com/asztal/generate-iso/pkg/options"
	"github.com/stretchr/testify/require"
)

const sectorSize = 2048

// memStream is a minimal in-memory io.WriteSeeker.
type memStream struct {
	data []byte
	pos  int64
}

func (m *memStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

var recordingTime = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func build(t *testing.T, img *image.DiskImage, opts ...options.Option) (*Builder, []byte) {
	t.Helper()
	opts = append([]options.Option{options.WithRecordingTime(recordingTime)}, opts...)
	b, err := New(img, opts...)
	require.NoError(t, err)
	stream := &memStream{}
	require.NoError(t, b.Build(stream))
	require.Zero(t, len(stream.data)%sectorSize, "image must end at a sector boundary")
	return b, stream.data
}

func sector(data []byte, n uint32) []byte {
	return data[int(n)*sectorSize : (int(n)+1)*sectorSize]
}

// bothEndian32 reads an 8-byte both-endian field, requiring the halves to
// agree.
func bothEndian32(t *testing.T, field []byte) uint32 {
	t.Helper()
	little := binary.LittleEndian.Uint32(field[0:4])
	big := binary.BigEndian.Uint32(field[4:8])
	require.Equal(t, little, big, "both-endian halves disagree")
	return little
}

// directoryIdentifiers walks the records of a directory extent and returns
// the identifiers in order.
func directoryIdentifiers(extent []byte) [][]byte {
	var identifiers [][]byte
	offset := 0
	for offset < len(extent) {
		recordLength := int(extent[offset])
		if recordLength == 0 {
			// Records never span sectors; skip to the next one.
			offset = (offset/sectorSize + 1) * sectorSize
			if offset >= len(extent) {
				break
			}
			continue
		}
		idLength := int(extent[offset+32])
		identifiers = append(identifiers, extent[offset+33:offset+33+idLength])
		offset += recordLength
	}
	return identifiers
}

func TestEmptyVolume(t *testing.T) {
	v := image.NewVolume("TEST")
	b, data := build(t, image.NewDiskImage(v))

	t.Run("image is 20 sectors", func(t *testing.T) {
		require.Equal(t, 20*sectorSize, len(data))
	})

	t.Run("system area is zero", func(t *testing.T) {
		for _, by := range data[:16*sectorSize] {
			require.Zero(t, by)
		}
	})

	t.Run("primary descriptor at sector 16", func(t *testing.T) {
		pvd := sector(data, 16)
		require.Equal(t, byte(0x01), pvd[0])
		require.Equal(t, "CD001", string(pvd[1:6]))
		require.Equal(t, byte(0x01), pvd[6])
		require.Equal(t, "TEST", string(bytes.TrimRight(pvd[40:72], " ")))
	})

	t.Run("set terminator at sector 17", func(t *testing.T) {
		term := sector(data, 17)
		require.Equal(t, byte(0xFF), term[0])
		require.Equal(t, "CD001", string(term[1:6]))
		for _, by := range term[7:] {
			require.Zero(t, by)
		}
	})

	t.Run("root extent holds self and parent pointing at itself", func(t *testing.T) {
		rootLoc := b.DirectoryLocation(v.Root)
		require.NotNil(t, rootLoc)
		require.Equal(t, uint32(18), rootLoc.ExtentSector)

		extent := sector(data, 18)
		identifiers := directoryIdentifiers(extent)
		require.Equal(t, [][]byte{{0x00}, {0x01}}, identifiers)

		self := extent[0:34]
		parent := extent[34:68]
		require.Equal(t, uint32(18), bothEndian32(t, self[2:10]))
		require.Equal(t, uint32(18), bothEndian32(t, parent[2:10]))
	})

	t.Run("volume space size covers the whole image", func(t *testing.T) {
		pvd := sector(data, 16)
		require.Equal(t, uint32(20), bothEndian32(t, pvd[80:88]))
	})

	t.Run("path tables at sector 19", func(t *testing.T) {
		loc := b.VolumeLocation(v)
		require.Equal(t, uint32(19), loc.TypeLPathTableSector)
		require.Equal(t, uint32(19), loc.TypeMPathTableSector)
		require.Equal(t, uint32(10), loc.PathTableSize)

		pvd := sector(data, 16)
		// Recorded size is rounded up to a whole sector.
		require.Equal(t, uint32(2048), bothEndian32(t, pvd[132:140]))
		require.Equal(t, uint32(19), binary.LittleEndian.Uint32(pvd[140:144]))
		require.Equal(t, uint32(19), binary.BigEndian.Uint32(pvd[148:152]))

		table := sector(data, 19)
		// Root record, little-endian: extent 18, parent 1.
		require.Equal(t, byte(1), table[0])
		require.Equal(t, uint32(18), binary.LittleEndian.Uint32(table[2:6]))
		require.Equal(t, uint16(1), binary.LittleEndian.Uint16(table[6:8]))
		// The type M copy follows immediately.
		require.Equal(t, byte(1), table[10])
		require.Equal(t, uint32(18), binary.BigEndian.Uint32(table[12:16]))
	})
}

func TestSingleFile(t *testing.T) {
	v := image.NewVolume("TEST")
	f := image.NewFileFromBytes("HELLO.TXT;1", []byte("hi"))
	v.Root.Add(f)
	b, data := build(t, image.NewDiskImage(v))

	rootLoc := b.DirectoryLocation(v.Root)
	fileLoc := b.FileLocation(f)
	require.NotNil(t, fileLoc)

	t.Run("file extent is one sector, two sectors after the root extent", func(t *testing.T) {
		require.Equal(t, uint32(1), fileLoc.SectorCount)
		require.Equal(t, rootLoc.ExtentSector+2, fileLoc.ExtentSector)
	})

	t.Run("file contents land at the extent", func(t *testing.T) {
		extent := sector(data, fileLoc.ExtentSector)
		require.Equal(t, []byte{0x68, 0x69}, extent[:2])
		for _, by := range extent[2:] {
			require.Zero(t, by)
		}
	})

	t.Run("root extent has self, parent and the file", func(t *testing.T) {
		identifiers := directoryIdentifiers(sector(data, rootLoc.ExtentSector))
		require.Equal(t, [][]byte{{0x00}, {0x01}, []byte("HELLO.TXT;1")}, identifiers)
	})

	t.Run("file record carries the extent and length", func(t *testing.T) {
		extent := sector(data, rootLoc.ExtentSector)
		record := extent[68:] // after the two 34-byte special records
		require.Equal(t, fileLoc.ExtentSector, bothEndian32(t, record[2:10]))
		require.Equal(t, uint32(2), bothEndian32(t, record[10:18]))
		require.Equal(t, byte(0x00), record[25]) // plain file flags
	})
}

func TestNameConflictResolution(t *testing.T) {
	v := image.NewVolume("TEST")
	first := image.NewFileFromBytes("Readme.txt", []byte("a"))
	second := image.NewFileFromBytes("README.TXT", []byte("b"))
	v.Root.Add(first, second)
	b, data := build(t, image.NewDiskImage(v))

	require.Equal(t, "README.TXT;1", first.MappedName())
	require.Equal(t, "README~1.TXT;1", second.MappedName())

	identifiers := directoryIdentifiers(sector(data, b.DirectoryLocation(v.Root).ExtentSector))
	counts := map[string]int{}
	for _, id := range identifiers {
		counts[string(id)]++
	}
	require.Equal(t, 1, counts["README.TXT;1"])
	require.Equal(t, 1, counts["README~1.TXT;1"])
}

func TestDepthLimit(t *testing.T) {
	v := image.NewVolume("TEST")
	parent := v.Root
	for i := 0; i < 9; i++ {
		child := image.NewDirectory(fmt.Sprintf("DIR%d", i))
		parent.Add(child)
		parent = child
	}

	b, err := New(image.NewDiskImage(v))
	require.NoError(t, err)
	err = b.Build(&memStream{})
	require.ErrorIs(t, err, iso9660.ErrDepthExceeded)
}

func TestElToritoBoot(t *testing.T) {
	payload := bytes.Repeat([]byte{0xE9}, 2048)
	initial := image.NewBootCatalogEntry(payload, 4)
	v := image.NewVolume("BOOTABLE")
	img := image.NewDiskImage(v)
	img.BootCatalog = image.NewBootCatalog(image.X86, "TEST", initial)

	b, data := build(t, img, options.WithExtensions(options.ElTorito))

	t.Run("boot record at sector 17", func(t *testing.T) {
		br := sector(data, 17)
		require.Equal(t, byte(0x00), br[0])
		require.Equal(t, "CD001", string(br[1:6]))
		require.Equal(t, byte(0x01), br[6])
		require.Equal(t, "EL TORITO SPECIFICATION", string(br[7:30]))
		for _, by := range br[30:71] {
			require.Zero(t, by)
		}
		require.Equal(t, b.BootCatalogSector(), binary.LittleEndian.Uint32(br[71:75]))
	})

	t.Run("terminator follows the boot record", func(t *testing.T) {
		require.Equal(t, byte(0xFF), sector(data, 18)[0])
	})

	t.Run("validation entry checks out", func(t *testing.T) {
		catalog := sector(data, b.BootCatalogSector())
		require.Equal(t, byte(0x01), catalog[0])
		require.Equal(t, byte(0x55), catalog[30])
		require.Equal(t, byte(0xAA), catalog[31])
		var sum uint16
		for i := 0; i < 32; i += 2 {
			sum += binary.LittleEndian.Uint16(catalog[i : i+2])
		}
		require.Equal(t, uint16(0), sum)
	})

	t.Run("initial entry boots the payload", func(t *testing.T) {
		catalog := sector(data, b.BootCatalogSector())
		require.Equal(t, byte(0x88), catalog[32])
		rba := binary.LittleEndian.Uint32(catalog[40:44])
		require.Equal(t, payload, sector(data, rba))
	})
}

func TestUnsupportedConfigurations(t *testing.T) {
	v := image.NewVolume("TEST")

	t.Run("mode 2 fails at construction", func(t *testing.T) {
		_, err := New(image.NewDiskImage(v), options.WithMode(options.Mode2Form1))
		require.ErrorIs(t, err, iso9660.ErrUnsupported)
		_, err = New(image.NewDiskImage(v), options.WithMode(options.Mode2Form2))
		require.ErrorIs(t, err, iso9660.ErrUnsupported)
	})

	t.Run("udf and apple extensions fail at construction", func(t *testing.T) {
		_, err := New(image.NewDiskImage(v), options.WithExtensions(options.Udf))
		require.ErrorIs(t, err, iso9660.ErrUnsupported)
		_, err = New(image.NewDiskImage(v), options.WithExtensions(options.Apple))
		require.ErrorIs(t, err, iso9660.ErrUnsupported)
	})

	t.Run("missing primary volume fails at construction", func(t *testing.T) {
		_, err := New(&image.DiskImage{})
		require.ErrorIs(t, err, iso9660.ErrModelInconsistent)
	})

	t.Run("boot catalog without an initial entry fails", func(t *testing.T) {
		img := image.NewDiskImage(v)
		img.BootCatalog = &image.BootCatalog{Platform: image.X86}
		_, err := New(img)
		require.ErrorIs(t, err, iso9660.ErrModelInconsistent)
	})
}

func TestLayoutProperties(t *testing.T) {
	v := image.NewVolume("TEST")
	sub := image.NewDirectory("SUBDIR")
	sub.Add(image.NewFileFromBytes("NESTED.DAT", bytes.Repeat([]byte{7}, 3000)))
	v.Root.Add(
		sub,
		image.NewFileFromBytes("EMPTY.DAT", nil),
		image.NewFileFromBytes("HELLO.TXT", []byte("hello")),
	)
	img := image.NewDiskImage(v)
	b, data := build(t, img)

	t.Run("lba monotonicity over allocation order", func(t *testing.T) {
		rootLoc := b.DirectoryLocation(v.Root)
		subLoc := b.DirectoryLocation(sub)
		require.Less(t, rootLoc.ExtentSector, subLoc.ExtentSector)

		volLoc := b.VolumeLocation(v)
		require.Less(t, subLoc.ExtentSector, volLoc.TypeLPathTableSector)

		var fileSectors []uint32
		for _, child := range v.Root.Children() {
			if f, ok := child.(*image.File); ok {
				loc := b.FileLocation(f)
				if loc.SectorCount > 0 {
					require.Greater(t, loc.ExtentSector, volLoc.TypeMPathTableSector)
					fileSectors = append(fileSectors, loc.ExtentSector)
				} else {
					require.Zero(t, loc.ExtentSector)
				}
			}
		}
		for i := 1; i < len(fileSectors); i++ {
			require.Less(t, fileSectors[i-1], fileSectors[i])
		}
	})

	t.Run("volume space size matches the file size", func(t *testing.T) {
		pvd := sector(data, 16)
		require.Equal(t, uint32(len(data)/sectorSize), bothEndian32(t, pvd[80:88]))
	})

	t.Run("type L path table holds the root and SUBDIR records", func(t *testing.T) {
		loc := b.VolumeLocation(v)
		start := int(loc.TypeLPathTableSector) * sectorSize
		typeL := data[start : start+int(loc.PathTableSize)]
		// 10 bytes for the root, 14 for SUBDIR.
		require.Equal(t, uint32(24), loc.PathTableSize)
		require.Equal(t, []byte("SUBDIR"), typeL[18:24])
	})

	t.Run("deterministic output for a fixed recording time", func(t *testing.T) {
		b2, err := New(image.NewDiskImage(cloneVolume(t)), options.WithRecordingTime(recordingTime))
		require.NoError(t, err)
		stream := &memStream{}
		require.NoError(t, b2.Build(stream))
		require.Equal(t, data, stream.data)
	})
}

// cloneVolume rebuilds the TestLayoutProperties model from scratch.
func cloneVolume(t *testing.T) *image.Volume {
	t.Helper()
	v := image.NewVolume("TEST")
	sub := image.NewDirectory("SUBDIR")
	sub.Add(image.NewFileFromBytes("NESTED.DAT", bytes.Repeat([]byte{7}, 3000)))
	v.Root.Add(
		sub,
		image.NewFileFromBytes("EMPTY.DAT", nil),
		image.NewFileFromBytes("HELLO.TXT", []byte("hello")),
	)
	return v
}

func TestDirectoryRecordContainment(t *testing.T) {
	// Enough children to spill the root extent into a second sector: 60
	// records of 48 bytes each plus self and parent.
	v := image.NewVolume("TEST")
	for i := 0; i < 60; i++ {
		v.Root.Add(image.NewFileFromBytes(fmt.Sprintf("FILE%04d.DAT", i), []byte{byte(i)}))
	}
	b, data := build(t, image.NewDiskImage(v))

	rootLoc := b.DirectoryLocation(v.Root)
	require.Greater(t, rootLoc.SectorCount, uint32(1))

	extent := data[int(rootLoc.ExtentSector)*sectorSize : int(rootLoc.ExtentSector+rootLoc.SectorCount)*sectorSize]
	offset := 0
	records := 0
	for offset < len(extent) {
		recordLength := int(extent[offset])
		if recordLength == 0 {
			offset = (offset/sectorSize + 1) * sectorSize
			continue
		}
		require.Equal(t, offset/sectorSize, (offset+recordLength-1)/sectorSize,
			"record at offset %d crosses a sector boundary", offset)
		offset += recordLength
		records++
	}
	require.Equal(t, 62, records)
}

func TestContentRace(t *testing.T) {
	t.Run("a source that grew after measurement fails the build", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grows.dat")
		require.NoError(t, os.WriteFile(path, []byte("four"), 0o644))

		f, err := image.NewFileFromPath("GROWS.DAT", path)
		require.NoError(t, err)
		v := image.NewVolume("TEST")
		v.Root.Add(f)

		// The source gains bytes between measurement and emission.
		require.NoError(t, os.WriteFile(path, []byte("four and more"), 0o644))

		b, err := New(image.NewDiskImage(v))
		require.NoError(t, err)
		err = b.Build(&memStream{})
		require.ErrorIs(t, err, iso9660.ErrContentRace)
	})

	t.Run("a source that shrank after measurement fails the build", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shrinks.dat")
		require.NoError(t, os.WriteFile(path, []byte("four and more"), 0o644))

		f, err := image.NewFileFromPath("SHRINKS.DAT", path)
		require.NoError(t, err)
		v := image.NewVolume("TEST")
		v.Root.Add(f)

		require.NoError(t, os.WriteFile(path, []byte("four"), 0o644))

		b, err := New(image.NewDiskImage(v))
		require.NoError(t, err)
		err = b.Build(&memStream{})
		require.ErrorIs(t, err, iso9660.ErrContentRace)
	})
}
