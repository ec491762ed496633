package iso

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestBuildFile(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "hello.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(source, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "docs", "guide.txt"), []byte("read me"), 0o644))

	root, err := image.ScanDirectory(source)
	require.NoError(t, err)
	volume := image.NewVolume("EXAMPLE")
	volume.Root = root
	volume.ApplicationIdentifier = "GENERATE-ISO"

	output := filepath.Join(t.TempDir(), "example.iso")
	err = BuildFile(image.NewDiskImage(volume), output,
		options.WithCompatibilityLevel(options.Level1))
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Zero(t, len(data)%2048)

	// System area zero, primary descriptor at sector 16.
	for _, b := range data[:16*2048] {
		require.Zero(t, b)
	}
	require.Equal(t, byte(0x01), data[16*2048])
	require.Equal(t, "CD001", string(data[16*2048+1:16*2048+6]))
}

func TestBuildFileRejectsBadModel(t *testing.T) {
	output := filepath.Join(t.TempDir(), "bad.iso")
	err := BuildFile(nil, output)
	require.Error(t, err)
}
