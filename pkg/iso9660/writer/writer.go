// Package writer provides the positioned byte writer the builder emits every
// ISO9660 structure through: scalar fields in little-endian, big-endian and
// both-endian byte orders, fixed-length identifier strings over the ECMA-119
// character sets, the two date/time encodings, and logical sector
// addressing over a seekable output stream.
package writer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/iso9660/encoding"
)

// CharacterSet selects the alphabet a padded string field accepts.
type CharacterSet int

const (
	// DCharacters is the 37 character set 0-9 A-Z _ .
	DCharacters CharacterSet = iota
	// ACharacters is the d-character set plus space and punctuation.
	ACharacters
	// DCharactersWithSeparators is the d-character set plus '.' and ';'.
	DCharactersWithSeparators
)

func (cs CharacterSet) alphabet() string {
	switch cs {
	case ACharacters:
		return consts.A_CHARACTERS
	case DCharactersWithSeparators:
		return consts.D_CHARACTERS + consts.ISO9660_SEPARATOR_1 + consts.ISO9660_SEPARATOR_2
	default:
		return consts.D_CHARACTERS
	}
}

func (cs CharacterSet) String() string {
	switch cs {
	case ACharacters:
		return "a-characters"
	case DCharactersWithSeparators:
		return "d-characters with separators"
	default:
		return "d-characters"
	}
}

// ImageWriter writes ISO9660 primitives to a seekable stream and tracks the
// stream position in logical sectors. The builder owns the stream exclusively
// for the lifetime of a build.
type ImageWriter struct {
	w   io.WriteSeeker
	pos int64
}

// New wraps a seekable stream. The stream's current position is adopted as
// the writer's position.
func New(w io.WriteSeeker) (*ImageWriter, error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream position: %w", err)
	}
	return &ImageWriter{w: w, pos: pos}, nil
}

// Position returns the current byte offset from the start of the image.
func (iw *ImageWriter) Position() int64 {
	return iw.pos
}

// CurrentSector returns the logical sector containing the current position.
// Logical blocks equal logical sectors in this revision, so the value is also
// the current LBA.
func (iw *ImageWriter) CurrentSector() uint32 {
	return uint32(iw.pos / consts.ISO9660_SECTOR_SIZE)
}

// AtStartOfSector reports whether the current position is sector aligned.
func (iw *ImageWriter) AtStartOfSector() bool {
	return iw.pos%consts.ISO9660_SECTOR_SIZE == 0
}

// Seek repositions the stream.
func (iw *ImageWriter) Seek(offset int64, whence int) (int64, error) {
	pos, err := iw.w.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("seek failed: %w", err)
	}
	iw.pos = pos
	return pos, nil
}

// SeekToSector positions the stream at the start of the given logical sector.
func (iw *ImageWriter) SeekToSector(sector uint32) error {
	_, err := iw.Seek(int64(sector)*consts.ISO9660_SECTOR_SIZE, io.SeekStart)
	return err
}

// SeekToNextSector rounds the position up to the next sector boundary. A
// position already at a boundary is left unchanged.
func (iw *ImageWriter) SeekToNextSector() error {
	if iw.AtStartOfSector() {
		return nil
	}
	return iw.SeekToSector(iw.CurrentSector() + 1)
}

// SeekToEnd positions the stream at the current end of the image.
func (iw *ImageWriter) SeekToEnd() error {
	_, err := iw.Seek(0, io.SeekEnd)
	return err
}

// PreservingLocation records the current position, runs the action, and
// restores the position whether or not the action failed.
func (iw *ImageWriter) PreservingLocation(action func() error) error {
	saved := iw.pos
	actionErr := action()
	if _, err := iw.Seek(saved, io.SeekStart); err != nil {
		if actionErr != nil {
			return actionErr
		}
		return err
	}
	return actionErr
}

// Write implements io.Writer so content sources can be streamed straight
// into the image.
func (iw *ImageWriter) Write(p []byte) (int, error) {
	n, err := iw.w.Write(p)
	iw.pos += int64(n)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// WriteBytes writes the slice verbatim.
func (iw *ImageWriter) WriteBytes(data []byte) error {
	_, err := iw.Write(data)
	return err
}

// WriteUint8 writes one unsigned byte.
func (iw *ImageWriter) WriteUint8(val uint8) error {
	return iw.WriteBytes([]byte{val})
}

// WriteInt8 writes one signed byte.
func (iw *ImageWriter) WriteInt8(val int8) error {
	return iw.WriteBytes([]byte{byte(val)})
}

// WriteUint16LE writes a uint16 in little-endian order.
func (iw *ImageWriter) WriteUint16LE(val uint16) error {
	return iw.WriteBytes([]byte{byte(val), byte(val >> 8)})
}

// WriteUint16BE writes a uint16 in big-endian order.
func (iw *ImageWriter) WriteUint16BE(val uint16) error {
	return iw.WriteBytes([]byte{byte(val >> 8), byte(val)})
}

// WriteUint16Both writes a uint16 in both byte orders, little-endian first.
func (iw *ImageWriter) WriteUint16Both(val uint16) error {
	data := encoding.MarshalBothByteOrders16(val)
	return iw.WriteBytes(data[:])
}

// WriteUint32LE writes a uint32 in little-endian order.
func (iw *ImageWriter) WriteUint32LE(val uint32) error {
	return iw.WriteBytes([]byte{byte(val), byte(val >> 8), byte(val >> 16), byte(val >> 24)})
}

// WriteUint32BE writes a uint32 in big-endian order.
func (iw *ImageWriter) WriteUint32BE(val uint32) error {
	return iw.WriteBytes([]byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)})
}

// WriteUint32Both writes a uint32 in both byte orders, little-endian first.
func (iw *ImageWriter) WriteUint32Both(val uint32) error {
	data := encoding.MarshalBothByteOrders32(val)
	return iw.WriteBytes(data[:])
}

const zeroChunkSize = 32 * 1024

// WriteZeros writes n zero bytes.
func (iw *ImageWriter) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	chunk := make([]byte, min(n, zeroChunkSize))
	for n > 0 {
		step := min(n, len(chunk))
		if err := iw.WriteBytes(chunk[:step]); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// WritePaddedString writes s as ASCII over the given character set, padded to
// length with the pad byte. The empty string fills the whole field with
// padding. Strings longer than the field or containing a character outside
// the set are rejected.
func (iw *ImageWriter) WritePaddedString(s string, length int, set CharacterSet, pad byte) error {
	if len(s) > length {
		return fmt.Errorf("string %q exceeds field length %d", s, length)
	}
	alphabet := set.alphabet()
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F || !strings.ContainsRune(alphabet, rune(s[i])) {
			return fmt.Errorf("string %q contains %q which is not in the %s set", s, s[i], set)
		}
	}
	field := make([]byte, length)
	copy(field, s)
	for i := len(s); i < length; i++ {
		field[i] = pad
	}
	return iw.WriteBytes(field)
}

// WriteAString writes a space padded a-character field.
func (iw *ImageWriter) WriteAString(s string, length int) error {
	return iw.WritePaddedString(s, length, ACharacters, consts.ISO9660_FILLER[0])
}

// WriteDString writes a space padded d-character field.
func (iw *ImageWriter) WriteDString(s string, length int) error {
	return iw.WritePaddedString(s, length, DCharacters, consts.ISO9660_FILLER[0])
}

// WriteFileIdentifier writes a space padded field over the d-character set
// plus the '.' and ';' separators, as used by the copyright, abstract and
// bibliographic file identifier fields.
func (iw *ImageWriter) WriteFileIdentifier(s string, length int) error {
	return iw.WritePaddedString(s, length, DCharactersWithSeparators, consts.ISO9660_FILLER[0])
}

// WriteDateTime writes the 17-byte volume descriptor date/time form: sixteen
// ASCII digits YYYYMMDDhhmmssff and a signed GMT offset byte in 15-minute
// units. The zero time writes the unspecified form.
func (iw *ImageWriter) WriteDateTime(t time.Time) error {
	field, err := encoding.MarshalDateTime(t)
	if err != nil {
		return err
	}
	return iw.WriteBytes(field[:])
}

// WriteRecordingDateTime writes the 7-byte directory record date/time form.
func (iw *ImageWriter) WriteRecordingDateTime(t time.Time) error {
	field, err := encoding.MarshalRecordingDateTime(t)
	if err != nil {
		return err
	}
	return iw.WriteBytes(field[:])
}
