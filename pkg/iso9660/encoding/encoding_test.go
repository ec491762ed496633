package encoding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshalBothByteOrders32(t *testing.T) {
	t.Run("encodes little-endian then big-endian", func(t *testing.T) {
		data := MarshalBothByteOrders32(0x12345678)
		require.Equal(t, [8]byte{0x78, 0x56, 0x34, 0x12, 0x12, 0x34, 0x56, 0x78}, data)
	})

	t.Run("round trips", func(t *testing.T) {
		for _, val := range []uint32{0, 1, 0x7FFFFFFF, 0xFFFFFFFF, 20} {
			data := MarshalBothByteOrders32(val)
			decoded, err := UnmarshalUint32LSBMSB(data)
			require.NoError(t, err)
			require.Equal(t, val, decoded)
		}
	})

	t.Run("rejects mismatched halves", func(t *testing.T) {
		data := MarshalBothByteOrders32(42)
		data[7] ^= 0xFF
		_, err := UnmarshalUint32LSBMSB(data)
		require.Error(t, err)
		require.Contains(t, err.Error(), "mismatched both-byte orders")
	})
}

func TestMarshalBothByteOrders16(t *testing.T) {
	t.Run("encodes little-endian then big-endian", func(t *testing.T) {
		data := MarshalBothByteOrders16(0x1234)
		require.Equal(t, [4]byte{0x34, 0x12, 0x12, 0x34}, data)
	})

	t.Run("round trips", func(t *testing.T) {
		for _, val := range []uint16{0, 1, 2048, 0xFFFF} {
			data := MarshalBothByteOrders16(val)
			decoded, err := UnmarshalUint16LSBMSB(data)
			require.NoError(t, err)
			require.Equal(t, val, decoded)
		}
	})

	t.Run("rejects mismatched halves", func(t *testing.T) {
		data := MarshalBothByteOrders16(7)
		data[0] ^= 0xFF
		_, err := UnmarshalUint16LSBMSB(data)
		require.Error(t, err)
	})
}

func TestMarshalDateTime(t *testing.T) {
	t.Run("zero time writes the unspecified form", func(t *testing.T) {
		field, err := MarshalDateTime(time.Time{})
		require.NoError(t, err)
		for i := 0; i < 16; i++ {
			require.Equal(t, byte('0'), field[i])
		}
		require.Equal(t, byte(0), field[16])
	})

	t.Run("formats digits and offset", func(t *testing.T) {
		loc := time.FixedZone("", 3600) // +1h => +4 quarter hours
		moment := time.Date(2025, time.January, 2, 3, 4, 5, 120_000_000, loc)
		field, err := MarshalDateTime(moment)
		require.NoError(t, err)
		require.Equal(t, "2025010203040512", string(field[:16]))
		require.Equal(t, byte(4), field[16])
	})

	t.Run("round trips", func(t *testing.T) {
		moment := time.Date(1999, time.December, 31, 23, 59, 58, 0, time.UTC)
		field, err := MarshalDateTime(moment)
		require.NoError(t, err)
		decoded, err := UnmarshalDateTime(field)
		require.NoError(t, err)
		require.True(t, moment.Equal(decoded))
	})

	t.Run("uses the full zone offset, not its minute component", func(t *testing.T) {
		// UTC+5:30 is 22 quarter hours; a writer using only the minute
		// component would record 2.
		loc := time.FixedZone("", 5*3600+30*60)
		field, err := MarshalDateTime(time.Date(2020, time.June, 1, 0, 0, 0, 0, loc))
		require.NoError(t, err)
		require.Equal(t, byte(22), field[16])
	})

	t.Run("rejects offsets outside the ISO9660 range", func(t *testing.T) {
		loc := time.FixedZone("", 14*3600) // +56 quarter hours
		_, err := MarshalDateTime(time.Date(2020, time.June, 1, 0, 0, 0, 0, loc))
		require.Error(t, err)
	})
}

func TestMarshalRecordingDateTime(t *testing.T) {
	t.Run("encodes the numeric fields", func(t *testing.T) {
		moment := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
		field, err := MarshalRecordingDateTime(moment)
		require.NoError(t, err)
		require.Equal(t, [7]byte{101, 2, 3, 4, 5, 6, 0}, field)
	})

	t.Run("round trips", func(t *testing.T) {
		moment := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
		field, err := MarshalRecordingDateTime(moment)
		require.NoError(t, err)
		decoded, err := UnmarshalRecordingDateTime(field)
		require.NoError(t, err)
		require.True(t, moment.Equal(decoded))
	})

	t.Run("rejects years outside 1900-2155", func(t *testing.T) {
		_, err := MarshalRecordingDateTime(time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC))
		require.Error(t, err)
		_, err = MarshalRecordingDateTime(time.Date(2156, time.January, 1, 0, 0, 0, 0, time.UTC))
		require.Error(t, err)
	})

	t.Run("negative offsets survive the byte encoding", func(t *testing.T) {
		loc := time.FixedZone("", -8*3600) // -32 quarter hours
		field, err := MarshalRecordingDateTime(time.Date(2010, time.July, 1, 12, 0, 0, 0, loc))
		require.NoError(t, err)
		require.Equal(t, int8(-32), int8(field[6]))
	})
}
