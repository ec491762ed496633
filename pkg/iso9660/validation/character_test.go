package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDCharacters(t *testing.T) {
	require.NoError(t, ValidateDCharacters("ABC_0129", false))
	require.Error(t, ValidateDCharacters("abc", false))
	require.Error(t, ValidateDCharacters("A B", false))
	require.Error(t, ValidateDCharacters("A.B", false))
	require.NoError(t, ValidateDCharacters("A.B;1", true))
}

func TestValidateACharacters(t *testing.T) {
	require.NoError(t, ValidateACharacters("HELLO WORLD! (C) 2025"))
	require.Error(t, ValidateACharacters("lower"))
	require.Error(t, ValidateACharacters("tab\tseparated"))
}

func TestValidateFileIdentifier(t *testing.T) {
	require.NoError(t, ValidateFileIdentifier("README.TXT;1"))
	require.Error(t, ValidateFileIdentifier("readme.txt"))
}

func TestNonASCIIRejected(t *testing.T) {
	err := ValidateDCharacters("CAFÉ", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside the ASCII range")
}

func TestByteMembership(t *testing.T) {
	require.True(t, IsDCharacter('A'))
	require.True(t, IsDCharacter('_'))
	require.False(t, IsDCharacter('a'))
	require.False(t, IsDCharacter('.'))
	require.True(t, IsACharacter(' '))
	require.True(t, IsACharacter('&'))
	require.False(t, IsACharacter('#'))
}
