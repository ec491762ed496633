package validation

import (
	"fmt"
	"strings"

	"github.com/asztal/generate-iso/pkg/consts"
)

// validateByAllowedChars is a generic helper function that checks if every character in s
// is contained in the allowed set. The setName is used in error messages.
// All identifiers emitted into ISO9660 structures are single-byte ASCII.
func validateByAllowedChars(s, allowed, setName string) error {
	for i, r := range s {
		if r > 0x7F {
			return fmt.Errorf("invalid %s-character at index %d: code point 0x%X is outside the ASCII range", setName, i, r)
		}
		if !strings.ContainsRune(allowed, r) {
			return fmt.Errorf("invalid %s-character at index %d: %q is not allowed", setName, i, r)
		}
	}
	return nil
}

// ValidateACharacters checks that every character in the input string is one of the allowed A_CHARACTERS.
func ValidateACharacters(s string) error {
	return validateByAllowedChars(s, consts.A_CHARACTERS, "A")
}

// ValidateDCharacters checks that every character in the input string is one of the allowed D_CHARACTERS.
// If allowSeparators is true, it also permits the ISO9660 separator characters.
func ValidateDCharacters(s string, allowSeparators bool) error {
	allowedChars := consts.D_CHARACTERS
	if allowSeparators {
		allowedChars += consts.ISO9660_SEPARATOR_1 + consts.ISO9660_SEPARATOR_2
	}
	return validateByAllowedChars(s, allowedChars, "D")
}

// ValidateFileIdentifier checks that every character in the input string is a
// d-character or one of the two separators. File identifiers in directory
// records and copyright/abstract/bibliographic descriptor fields use this set.
func ValidateFileIdentifier(s string) error {
	return ValidateDCharacters(s, true)
}

// IsDCharacter reports whether the byte is a member of the d-character set.
func IsDCharacter(b byte) bool {
	return strings.IndexByte(consts.D_CHARACTERS, b) >= 0
}

// IsACharacter reports whether the byte is a member of the a-character set.
func IsACharacter(b byte) bool {
	return strings.IndexByte(consts.A_CHARACTERS, b) >= 0
}
