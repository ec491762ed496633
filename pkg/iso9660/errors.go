// Package iso9660 holds the error kinds shared by the layout, naming and
// emission packages. Every failure of a build wraps exactly one of these
// sentinels, so callers can classify errors with errors.Is while the message
// carries the offending entity's name.
package iso9660

import "errors"

var (
	// ErrInvalidArgument reports a name or field that violates the ISO9660
	// rules of the selected compatibility level: no allowed characters, an
	// out-of-range version number, an illegally placed separator, a
	// zero-length identifier, or an over-long name or path.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflictUnresolvable reports a mapped name collision that could not
	// be resolved, either because conflict resolution is disabled or because
	// every tilde and hash alias is taken.
	ErrConflictUnresolvable = errors.New("unresolvable name conflict")

	// ErrDepthExceeded reports directory nesting deeper than eight levels
	// while depth limiting is in effect.
	ErrDepthExceeded = errors.New("directory depth exceeded")

	// ErrUnsupported reports configuration this builder does not implement:
	// sector modes other than Mode1, or the Udf and Apple extension sets.
	ErrUnsupported = errors.New("unsupported configuration")

	// ErrModelInconsistent reports an image model that cannot be emitted: a
	// missing primary volume or root directory, an associated file without a
	// matching primary sibling, or a boot catalog without an initial entry.
	ErrModelInconsistent = errors.New("inconsistent image model")

	// ErrBuilderState reports a sequencing fault inside the builder itself:
	// re-allocating an already allocated structure or emitting a structure
	// whose prerequisites have not been allocated.
	ErrBuilderState = errors.New("builder state error")

	// ErrContentRace reports a file whose content source yielded more or
	// fewer bytes at write time than were measured during allocation.
	ErrContentRace = errors.New("file content changed during build")

	// ErrSizeOverflow reports a sector count, LBA or field value that cannot
	// be represented in its 16 or 32 bit on-disk width.
	ErrSizeOverflow = errors.New("size overflow")
)
