// Package names canonicalises host file and directory names into ISO9660
// identifiers for the selected interchange level, resolving collisions with
// tilde-numbered aliases the way DOS-era writers do.
package names

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/asztal/generate-iso/pkg/consts"
	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/iso9660"
	"github.com/asztal/generate-iso/pkg/options"
	"github.com/go-logr/logr"
)

// Mapper maps host names to on-disk identifiers according to the
// compatibility level and flags it was constructed with.
type Mapper struct {
	level  options.CompatibilityLevel
	flags  options.CompatibilityFlags
	logger logr.Logger
}

// NewMapper returns a mapper for the given level and flags.
func NewMapper(level options.CompatibilityLevel, flags options.CompatibilityFlags, logger logr.Logger) *Mapper {
	return &Mapper{level: level, flags: flags, logger: logger}
}

// MapVolume canonicalises every entry under the volume root, depth first.
// The root itself maps to the empty name; its on-disk identifier is the
// single 0x00 byte written by the emitter.
func (m *Mapper) MapVolume(v *image.Volume) error {
	if v.Root == nil {
		return fmt.Errorf("volume %q has no root directory: %w", v.VolumeIdentifier, iso9660.ErrModelInconsistent)
	}
	v.Root.SetMapped("", nil)
	return m.mapDirectory(v.Root, 1, 0)
}

// mapDirectory maps the children of dir. depth is the directory's own level,
// the root being level 1. parentPathLen is the byte length of the directory's
// full path, separators included.
func (m *Mapper) mapDirectory(dir *image.Directory, depth, parentPathLen int) error {
	hasSubdirectories := false
	for _, child := range dir.Children() {
		if child.IsDir() {
			hasSubdirectories = true
			break
		}
	}
	if hasSubdirectories && depth == consts.ISO9660_MAX_DIR_DEPTH && m.flags.Has(options.LimitDirectories) {
		return fmt.Errorf("directory %q is at level %d and may not contain directories: %w",
			dir.Name(), depth, iso9660.ErrDepthExceeded)
	}

	// First pass: non-associated children claim mapped names.
	taken := make(map[string]bool)
	byHostName := make(map[string]image.FileSystemObject)
	for _, child := range dir.Children() {
		if child.Attributes().AssociatedFile {
			continue
		}
		mapped, err := m.mapEntry(child.Name(), child.IsDir(), taken)
		if err != nil {
			return err
		}
		if parentPathLen+len(mapped) > consts.ISO9660_MAX_PATH {
			return fmt.Errorf("path of %q exceeds %d bytes: %w",
				child.Name(), consts.ISO9660_MAX_PATH, iso9660.ErrInvalidArgument)
		}
		child.SetMapped(mapped, []byte(mapped))
		taken[mapped] = true
		if _, dup := byHostName[child.Name()]; !dup {
			byHostName[child.Name()] = child
		}
		m.logger.V(2).Info("mapped name", "host", child.Name(), "mapped", mapped)
	}

	// Second pass: associated children share the mapped name of the
	// non-associated sibling with the same host name.
	for _, child := range dir.Children() {
		if !child.Attributes().AssociatedFile {
			continue
		}
		primary, ok := byHostName[child.Name()]
		if !ok {
			return fmt.Errorf("associated file %q has no matching sibling: %w",
				child.Name(), iso9660.ErrModelInconsistent)
		}
		child.SetMapped(primary.MappedName(), primary.MappedIdentifier())
	}

	for _, child := range dir.Children() {
		sub, ok := child.(*image.Directory)
		if !ok {
			continue
		}
		if err := m.mapDirectory(sub, depth+1, parentPathLen+len(sub.MappedIdentifier())+1); err != nil {
			return err
		}
	}
	return nil
}

// mapEntry derives the mapped name for one host name, resolving collisions
// against the sibling names already in taken.
func (m *Mapper) mapEntry(hostName string, isDir bool, taken map[string]bool) (string, error) {
	name, ext, version, err := m.filter(hostName, isDir)
	if err != nil {
		return "", err
	}
	name, ext, err = m.cap(hostName, name, ext, isDir)
	if err != nil {
		return "", err
	}

	// The suffix is fixed; conflict resolution varies only the name portion.
	suffix := ""
	if !isDir {
		suffix = consts.ISO9660_SEPARATOR_1 + ext + consts.ISO9660_SEPARATOR_2 + strconv.Itoa(version)
	}
	acceptable := func(n string) bool { return !taken[n+suffix] }

	if acceptable(name) {
		return name + suffix, nil
	}
	if !m.flags.Has(options.ResolveNameConflicts) {
		return "", fmt.Errorf("name %q collides with a sibling: %w", hostName, iso9660.ErrConflictUnresolvable)
	}

	max := m.maxNameLength(len(ext), isDir)
	base := truncate(name, max-2)
	for i := 1; i <= 4; i++ {
		candidate := base + "~" + strconv.Itoa(i)
		if acceptable(candidate) {
			return candidate + suffix, nil
		}
	}
	hashed := truncate(name, max-6) + fmt.Sprintf("%04X", hashName(hostName))
	for i := 1; i <= 9; i++ {
		candidate := hashed + "~" + strconv.Itoa(i)
		if acceptable(candidate) {
			return candidate + suffix, nil
		}
	}
	return "", fmt.Errorf("all aliases for %q are taken: %w", hostName, iso9660.ErrConflictUnresolvable)
}

// filter walks the host name applying the uppercase mapping, the character
// set of the level, and the separator rules. It returns the name portion, the
// extension portion and the file version.
func (m *Mapper) filter(hostName string, isDir bool) (name, ext string, version int, err error) {
	foldCase := m.level == options.Level1 && m.flags.Has(options.UpperCaseFileNames)

	var nameBuf, extBuf, versionBuf []byte
	sawDot := false
	sawSemicolon := false
	for i := 0; i < len(hostName); i++ {
		c := hostName[i]
		if c > 0x7F {
			return "", "", 0, fmt.Errorf("name %q contains the non-ASCII byte 0x%02X: %w",
				hostName, c, iso9660.ErrInvalidArgument)
		}
		switch c {
		case '.':
			if isDir {
				if m.flags.Has(options.StripIllegalDots) {
					continue
				}
				return "", "", 0, fmt.Errorf("directory name %q contains '.': %w", hostName, iso9660.ErrInvalidArgument)
			}
			if sawSemicolon {
				return "", "", 0, fmt.Errorf("name %q has a malformed version suffix: %w", hostName, iso9660.ErrInvalidArgument)
			}
			if sawDot {
				if !m.flags.Has(options.StripIllegalDots) {
					return "", "", 0, fmt.Errorf("name %q contains more than one '.': %w", hostName, iso9660.ErrInvalidArgument)
				}
				// All but the last '.' are stripped from the name portion:
				// the previous extension folds back into the name.
				nameBuf = append(nameBuf, extBuf...)
				extBuf = extBuf[:0]
				continue
			}
			sawDot = true
		case ';':
			if isDir || !sawDot {
				return "", "", 0, fmt.Errorf("name %q contains ';' without a preceding '.': %w", hostName, iso9660.ErrInvalidArgument)
			}
			if sawSemicolon {
				return "", "", 0, fmt.Errorf("name %q contains more than one ';': %w", hostName, iso9660.ErrInvalidArgument)
			}
			sawSemicolon = true
		default:
			if foldCase && c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			switch {
			case sawSemicolon:
				versionBuf = append(versionBuf, c)
			case m.level == options.Level1 && !isDCharacter(c):
				return "", "", 0, fmt.Errorf("name %q contains %q which is not a d-character: %w",
					hostName, c, iso9660.ErrInvalidArgument)
			case sawDot:
				extBuf = append(extBuf, c)
			default:
				nameBuf = append(nameBuf, c)
			}
		}
	}

	version = 1
	if sawSemicolon {
		version, err = strconv.Atoi(string(versionBuf))
		if err != nil || version < 1 || version > consts.ISO9660_MAX_FILE_VERSION {
			return "", "", 0, fmt.Errorf("name %q has version %q outside [1, %d]: %w",
				hostName, versionBuf, consts.ISO9660_MAX_FILE_VERSION, iso9660.ErrInvalidArgument)
		}
	}
	if len(nameBuf)+len(extBuf) == 0 {
		return "", "", 0, fmt.Errorf("name %q maps to a zero-length identifier: %w", hostName, iso9660.ErrInvalidArgument)
	}
	return string(nameBuf), string(extBuf), version, nil
}

// cap enforces the length limits of the level, truncating when the flags
// allow it.
func (m *Mapper) cap(hostName, name, ext string, isDir bool) (string, string, error) {
	truncateAllowed := m.flags.Has(options.TruncateFileNames)
	overLong := func() (string, string, error) {
		return "", "", fmt.Errorf("name %q is too long for %s: %w", hostName, m.level, iso9660.ErrInvalidArgument)
	}

	if isDir {
		max := consts.ISO9660_MAX_DIR_NAME
		if m.level == options.Level1 {
			max = consts.ISO9660_LEVEL1_MAX_NAME
		}
		if len(name) > max {
			if !truncateAllowed {
				return overLong()
			}
			name = name[:max]
		}
		return name, "", nil
	}

	if m.level == options.Level1 {
		if len(name) > consts.ISO9660_LEVEL1_MAX_NAME {
			if !truncateAllowed {
				return overLong()
			}
			name = name[:consts.ISO9660_LEVEL1_MAX_NAME]
		}
		if len(ext) > consts.ISO9660_LEVEL1_MAX_EXTENSION {
			if !truncateAllowed {
				return overLong()
			}
			ext = ext[:consts.ISO9660_LEVEL1_MAX_EXTENSION]
		}
	}
	if len(name)+len(ext) > consts.ISO9660_MAX_FILE_NAME {
		if !truncateAllowed {
			return overLong()
		}
		// Shrink the name portion, preserving the extension when it fits.
		if len(ext) < consts.ISO9660_MAX_FILE_NAME {
			name = name[:consts.ISO9660_MAX_FILE_NAME-len(ext)]
		} else {
			ext = ext[:consts.ISO9660_MAX_FILE_NAME-len(name)]
		}
	}
	return name, ext, nil
}

// maxNameLength returns the cap on the name portion used when building tilde
// aliases.
func (m *Mapper) maxNameLength(extLen int, isDir bool) int {
	if isDir {
		if m.level == options.Level1 {
			return consts.ISO9660_LEVEL1_MAX_NAME
		}
		return consts.ISO9660_MAX_DIR_NAME
	}
	if m.level == options.Level1 {
		return consts.ISO9660_LEVEL1_MAX_NAME
	}
	return consts.ISO9660_MAX_FILE_NAME - extLen
}

func truncate(s string, max int) string {
	if max < 0 {
		return ""
	}
	if len(s) > max {
		return s[:max]
	}
	return s
}

func isDCharacter(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c == '_'
}

// hashName folds a 32-bit FNV-1a hash of the original host name to 16 bits
// for the hashed alias form. Distinctness, not a particular polynomial, is
// what the aliases rely on.
func hashName(hostName string) uint16 {
	h := fnv.New32a()
	h.Write([]byte(hostName))
	sum := h.Sum32()
	return uint16(sum>>16) ^ uint16(sum)
}
