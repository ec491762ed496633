package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseRecordSize(t *testing.T) {
	require.Equal(t, 34, BaseRecordSize(1))  // special identifiers
	require.Equal(t, 44, BaseRecordSize(11)) // "HELLO.TXT;1"
	require.Equal(t, 46, BaseRecordSize(12)) // even identifier gains a pad byte
}

func TestDirectoryRecordMarshal(t *testing.T) {
	recorded := time.Date(2025, time.March, 4, 5, 6, 7, 0, time.UTC)

	t.Run("special identifier marshals to 34 bytes", func(t *testing.T) {
		dr := &DirectoryRecord{
			FileIdentifier:       []byte(SelfIdentifier),
			FileFlags:            FileFlags{Directory: true},
			RecordingDateAndTime: recorded,
			LocationOfExtent:     18,
			DataLength:           2048,
			VolumeSequenceNumber: 1,
		}
		data, err := dr.Marshal()
		require.NoError(t, err)
		require.Len(t, data, 34)
		require.Equal(t, byte(34), data[0])
		require.Equal(t, byte(0), data[1]) // no extended attributes
		// Both-endian extent location.
		require.Equal(t, []byte{18, 0, 0, 0, 0, 0, 0, 18}, data[2:10])
		// Both-endian data length.
		require.Equal(t, []byte{0, 8, 0, 0, 0, 0, 8, 0}, data[10:18])
		require.Equal(t, byte(0x02), data[25]) // directory flag
		require.Equal(t, byte(1), data[32])    // identifier length
		require.Equal(t, byte(0), data[33])    // identifier 0x00
	})

	t.Run("odd record lengths gain a pad byte", func(t *testing.T) {
		dr := &DirectoryRecord{
			FileIdentifier:       []byte("HELLO.TXT;1"), // 11 bytes -> 44, already even
			RecordingDateAndTime: recorded,
			VolumeSequenceNumber: 1,
		}
		data, err := dr.Marshal()
		require.NoError(t, err)
		require.Len(t, data, 44)

		dr.FileIdentifier = []byte("HELLO.TXTX;1") // 12 bytes -> 45, padded to 46
		data, err = dr.Marshal()
		require.NoError(t, err)
		require.Len(t, data, 46)
		require.Equal(t, byte(0), data[45])
	})

	t.Run("empty identifier is rejected", func(t *testing.T) {
		dr := &DirectoryRecord{RecordingDateAndTime: recorded}
		_, err := dr.Marshal()
		require.Error(t, err)
	})

	t.Run("round trips", func(t *testing.T) {
		dr := &DirectoryRecord{
			FileIdentifier:       []byte("DATA.BIN;1"),
			FileFlags:            FileFlags{Hidden: true},
			RecordingDateAndTime: recorded,
			LocationOfExtent:     123,
			DataLength:           4567,
			VolumeSequenceNumber: 2,
		}
		data, err := dr.Marshal()
		require.NoError(t, err)

		var decoded DirectoryRecord
		require.NoError(t, decoded.Unmarshal(data))
		require.Equal(t, dr.LocationOfExtent, decoded.LocationOfExtent)
		require.Equal(t, dr.DataLength, decoded.DataLength)
		require.Equal(t, dr.FileFlags, decoded.FileFlags)
		require.Equal(t, dr.FileIdentifier, decoded.FileIdentifier)
		require.Equal(t, dr.VolumeSequenceNumber, decoded.VolumeSequenceNumber)
		require.True(t, dr.RecordingDateAndTime.Equal(decoded.RecordingDateAndTime))
	})
}

func TestFileFlagsMarshal(t *testing.T) {
	tests := []struct {
		name  string
		flags FileFlags
		want  byte
	}{
		{"none", FileFlags{}, 0x00},
		{"hidden", FileFlags{Hidden: true}, 0x01},
		{"directory", FileFlags{Directory: true}, 0x02},
		{"associated", FileFlags{AssociatedFile: true}, 0x04},
		{"record", FileFlags{Record: true}, 0x08},
		{"protection", FileFlags{Protection: true}, 0x10},
		{"multi-extent", FileFlags{MultiExtent: true}, 0x80},
		{"combined", FileFlags{Hidden: true, Directory: true, MultiExtent: true}, 0x83},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.flags.Marshal())
			decoded, err := UnmarshalFileFlags(tt.want)
			require.NoError(t, err)
			require.Equal(t, tt.flags, decoded)
		})
	}

	t.Run("reserved bits are rejected", func(t *testing.T) {
		_, err := UnmarshalFileFlags(0x20)
		require.Error(t, err)
		_, err = UnmarshalFileFlags(0x40)
		require.Error(t, err)
	})
}
