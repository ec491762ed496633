package options

import (
	"time"

	"github.com/go-logr/logr"
)

// CompatibilityLevel selects the ISO9660 interchange level the builder
// enforces on file and directory identifiers.
type CompatibilityLevel int

const (
	// Level1 enforces 8.3 identifiers drawn from the d-character set.
	Level1 CompatibilityLevel = iota + 1
	// Level2 allows identifiers of up to 30 bytes (31 for directories) of any ASCII.
	Level2
	// Level3 is identical to Level2 for naming purposes. The builder records
	// every file as a single extent at all levels.
	Level3
)

func (l CompatibilityLevel) String() string {
	switch l {
	case Level1:
		return "Level1"
	case Level2:
		return "Level2"
	case Level3:
		return "Level3"
	default:
		return "Unknown"
	}
}

// CompatibilityFlags relax or tighten the naming rules of the selected level.
type CompatibilityFlags uint8

const (
	// LimitDirectories caps directory nesting at eight levels.
	LimitDirectories CompatibilityFlags = 1 << iota
	// TruncateFileNames allows over-long identifiers to be truncated instead
	// of rejected.
	TruncateFileNames
	// UpperCaseFileNames allows lower-case input at Level1 by folding it to
	// upper case.
	UpperCaseFileNames
	// ResolveNameConflicts allows colliding mapped names to be disambiguated
	// with tilde-numbered aliases.
	ResolveNameConflicts
	// StripIllegalDots drops surplus '.' characters instead of rejecting the
	// name.
	StripIllegalDots
)

// Has reports whether every bit of flag is set.
func (f CompatibilityFlags) Has(flag CompatibilityFlags) bool {
	return f&flag == flag
}

// Mode selects the CD-ROM sector mode. Only Mode1 is supported.
type Mode int

const (
	Mode1 Mode = iota
	Mode2Form1
	Mode2Form2
)

func (m Mode) String() string {
	switch m {
	case Mode1:
		return "Mode1"
	case Mode2Form1:
		return "Mode2Form1"
	case Mode2Form2:
		return "Mode2Form2"
	default:
		return "Unknown"
	}
}

// Extensions is a bitfield of ISO9660 extension sets. Of these only ElTorito
// is functional; Udf and Apple are rejected when the builder is constructed,
// RockRidge and Joliet are accepted and ignored.
type Extensions uint8

const (
	None      Extensions = 0
	RockRidge Extensions = 1 << iota
	Joliet
	Udf
	ElTorito
	Apple
)

// Has reports whether every bit of ext is set.
func (e Extensions) Has(ext Extensions) bool {
	return e&ext == ext
}

// ProgressCallback defines the signature for progress update functions.
type ProgressCallback func(
	currentFilename string,
	bytesTransferred int64,
	totalBytes int64,
	currentFileNumber int,
	totalFileCount int,
)

// Options represents the options for building an ISO image.
type Options struct {
	Level            CompatibilityLevel
	Flags            CompatibilityFlags
	Mode             Mode
	Extensions       Extensions
	RecordingTime    time.Time
	Logger           logr.Logger
	ProgressCallback ProgressCallback
}

// Option represents a function that modifies the Options
type Option func(*Options)

// New returns the builder defaults with the given options applied: Level1
// names with truncation, case folding and conflict resolution allowed, depth
// limited to eight levels, Mode1 sectors and no extensions.
func New(opts ...Option) Options {
	options := Options{
		Level:  Level1,
		Flags:  LimitDirectories | TruncateFileNames | UpperCaseFileNames | ResolveNameConflicts,
		Mode:   Mode1,
		Logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithCompatibilityLevel sets the interchange level for identifiers.
func WithCompatibilityLevel(level CompatibilityLevel) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithCompatibilityFlags replaces the compatibility flag set.
func WithCompatibilityFlags(flags CompatibilityFlags) Option {
	return func(o *Options) {
		o.Flags = flags
	}
}

// WithMode sets the CD-ROM sector mode. Only Mode1 is supported; other modes
// are rejected when the builder is constructed.
func WithMode(mode Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithExtensions sets the extension bitfield.
func WithExtensions(ext Extensions) Option {
	return func(o *Options) {
		o.Extensions = ext
	}
}

// WithRecordingTime pins the recording date/time stamped into directory
// records. Builds with the same model and recording time are byte identical.
func WithRecordingTime(t time.Time) Option {
	return func(o *Options) {
		o.RecordingTime = t
	}
}

// WithLogger sets the Logger for the builder.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithProgress sets a progress callback function that will be called as file
// extents are written.
// Parameters:
// - currentFilename: The name of the file currently being processed.
// - bytesTransferred: The number of bytes transferred so far for the current file.
// - totalBytes: The total number of bytes to be transferred for the current file.
// - currentFileNumber: The index of the current file being processed.
// - totalFileCount: The total number of files to be processed.
func WithProgress(callback ProgressCallback) Option {
	return func(o *Options) {
		o.ProgressCallback = callback
	}
}
