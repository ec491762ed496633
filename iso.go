// Package iso builds bootable ISO9660 (ECMA-119) disk images with the
// El Torito boot extension from an in-memory volume description.
package iso

import (
	"fmt"
	"io"
	"os"

	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/iso9660/builder"
	"github.com/asztal/generate-iso/pkg/options"
)

// Build emits the disk image model to the stream. The stream must be empty,
// seekable and exclusively owned by the build for its duration. On error the
// partially written output is left behind for inspection; callers should
// remove it.
func Build(img *image.DiskImage, w io.WriteSeeker, opts ...options.Option) error {
	b, err := builder.New(img, opts...)
	if err != nil {
		return err
	}
	return b.Build(w)
}

// BuildFile creates (or truncates) the file at location and emits the disk
// image into it.
func BuildFile(img *image.DiskImage, location string, opts ...options.Option) (err error) {
	f, err := os.Create(location)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", location, err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", location, closeErr)
		}
	}()

	return Build(img, f, opts...)
}
