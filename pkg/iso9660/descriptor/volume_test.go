package descriptor

import (
	"io"
	"testing"
	"time"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/directory"
	"github.com/asztal/generate-iso/pkg/iso9660/writer"
	"github.com/stretchr/testify/require"
)

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

func newTestWriter(t *testing.T) (*writer.ImageWriter, *memStream) {
	t.Helper()
	stream := &memStream{}
	iw, err := writer.New(stream)
	require.NoError(t, err)
	return iw, stream
}

func rootRecord(t *testing.T) *directory.DirectoryRecord {
	t.Helper()
	return &directory.DirectoryRecord{
		FileIdentifier:       []byte(directory.SelfIdentifier),
		FileFlags:            directory.FileFlags{Directory: true},
		RecordingDateAndTime: time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC),
		LocationOfExtent:     18,
		DataLength:           2048,
		VolumeSequenceNumber: 1,
	}
}

func TestVolumeDescriptorWriteTo(t *testing.T) {
	t.Run("fills exactly one sector", func(t *testing.T) {
		iw, stream := newTestWriter(t)
		vd := NewVolumeDescriptor(TYPE_PRIMARY_DESCRIPTOR)
		vd.SystemIdentifier = "SYS ID"
		vd.VolumeIdentifier = "VOL_ID"
		vd.VolumeSpaceSize = 12345
		vd.VolumeSetSize = 1
		vd.VolumeSequenceNumber = 1
		vd.LogicalBlockSize = 2048
		vd.PathTableSize = 4096
		vd.TypeLPathTableLocation = 19
		vd.TypeMPathTableLocation = 20
		vd.RootDirectoryRecord = rootRecord(t)
		vd.VolumeCreationDateAndTime = time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

		require.NoError(t, vd.WriteTo(iw))
		require.Len(t, stream.data, consts.ISO9660_SECTOR_SIZE)

		require.Equal(t, byte(0x01), stream.data[0])
		require.Equal(t, "CD001", string(stream.data[1:6]))
		require.Equal(t, byte(0x01), stream.data[6])
		require.Equal(t, "VOL_ID", string(stream.data[40:46]))
		require.Equal(t, byte(' '), stream.data[46]) // d-string filler
		// Root record sits at byte 156.
		require.Equal(t, byte(34), stream.data[156])
		require.Equal(t, byte(0x01), stream.data[881]) // file structure version
	})

	t.Run("supplementary type byte", func(t *testing.T) {
		iw, stream := newTestWriter(t)
		vd := NewVolumeDescriptor(TYPE_SUPPLEMENTARY_DESCRIPTOR)
		vd.VolumeIdentifier = "SECOND"
		vd.RootDirectoryRecord = rootRecord(t)
		require.NoError(t, vd.WriteTo(iw))
		require.Equal(t, byte(0x02), stream.data[0])
	})

	t.Run("nil root record is rejected", func(t *testing.T) {
		iw, _ := newTestWriter(t)
		vd := NewVolumeDescriptor(TYPE_PRIMARY_DESCRIPTOR)
		err := vd.WriteTo(iw)
		require.Error(t, err)
		require.Contains(t, err.Error(), "rootDirectoryRecord is nil")
	})

	t.Run("invalid identifier characters are rejected", func(t *testing.T) {
		iw, _ := newTestWriter(t)
		vd := NewVolumeDescriptor(TYPE_PRIMARY_DESCRIPTOR)
		vd.VolumeIdentifier = "lower case"
		vd.RootDirectoryRecord = rootRecord(t)
		require.Error(t, vd.WriteTo(iw))
	})

	t.Run("unaligned position is rejected", func(t *testing.T) {
		iw, _ := newTestWriter(t)
		require.NoError(t, iw.WriteZeros(1))
		vd := NewVolumeDescriptor(TYPE_PRIMARY_DESCRIPTOR)
		vd.RootDirectoryRecord = rootRecord(t)
		require.Error(t, vd.WriteTo(iw))
	})
}

func TestTerminatorWriteTo(t *testing.T) {
	iw, stream := newTestWriter(t)
	require.NoError(t, NewVolumeDescriptorSetTerminator().WriteTo(iw))
	require.Len(t, stream.data, consts.ISO9660_SECTOR_SIZE)
	require.Equal(t, byte(0xFF), stream.data[0])
	require.Equal(t, "CD001", string(stream.data[1:6]))
	require.Equal(t, byte(0x01), stream.data[6])
	for _, b := range stream.data[7:] {
		require.Zero(t, b)
	}
}

func TestBootRecordWriteTo(t *testing.T) {
	iw, stream := newTestWriter(t)
	require.NoError(t, NewBootRecordDescriptor(19).WriteTo(iw))
	require.Len(t, stream.data, consts.ISO9660_SECTOR_SIZE)
	require.Equal(t, byte(0x00), stream.data[0])
	require.Equal(t, "CD001", string(stream.data[1:6]))
	require.Equal(t, "EL TORITO SPECIFICATION", string(stream.data[7:30]))
	for _, b := range stream.data[30:71] {
		require.Zero(t, b)
	}
	require.Equal(t, byte(19), stream.data[71])
	require.Equal(t, []byte{0, 0, 0}, stream.data[72:75])
}
