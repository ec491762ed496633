package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	iso "github.com/asztal/generate-iso"
	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/logging"
	"github.com/asztal/generate-iso/pkg/options"
	"github.com/asztal/generate-iso/pkg/version"
	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

func main() {

	u := usage.NewUsage(
		usage.WithApplicationVersion(version.Version()),
		usage.WithApplicationBranch(version.Branch()),
		usage.WithApplicationBuildDate(version.Date()),
		usage.WithApplicationCommitHash(version.Revision()),
		usage.WithApplicationName("isogen"),
		usage.WithApplicationDescription("isogen builds bootable ISO9660 disk images from a directory tree. Volume metadata, naming compatibility and El Torito boot configuration are read from an optional YAML manifest."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Enable verbose (debug) logging", "", nil)
	trace := u.AddBooleanOption("vv", "trace", false, "Enable trace logging", "", nil)
	quiet := u.AddBooleanOption("q", "quiet", false, "Disable the progress spinner", "", nil)
	manifestPath := u.AddStringOption("m", "manifest", "", "Path to a YAML image manifest", "optional", nil)
	volumeID := u.AddStringOption("V", "volume-id", "", "Volume identifier (overrides the manifest)", "optional", nil)
	source := u.AddArgument(1, "source-dir", "Directory tree to build the image from", "")
	output := u.AddArgument(2, "output-iso", "Path of the image to create", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if source == nil || *source == "" || output == nil || *output == "" {
		u.PrintError(fmt.Errorf("both <source-dir> and <output-iso> must be provided"))
		os.Exit(1)
	}

	isTTY := term.IsTerminal(int(os.Stderr.Fd()))

	level := logging.LEVEL_INFO
	if *verbose {
		level = logging.LEVEL_DEBUG
	}
	if *trace {
		level = logging.LEVEL_TRACE
	}
	log := logging.NewSimpleLogger(os.Stderr, level, isTTY)

	manifest := &Manifest{}
	if *manifestPath != "" {
		var err error
		manifest, err = LoadManifest(*manifestPath)
		if err != nil {
			u.PrintError(err)
			os.Exit(1)
		}
	}

	compatLevel, err := manifest.CompatibilityLevel()
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}

	root, err := image.ScanDirectory(*source)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}

	volumeName := manifest.Volume.VolumeID
	if *volumeID != "" {
		volumeName = *volumeID
	}
	if volumeName == "" {
		volumeName = defaultVolumeID(*source)
	}
	volume := image.NewVolume(volumeName)
	volume.Root = root
	manifest.Apply(volume)
	volume.VolumeIdentifier = volumeName

	img := image.NewDiskImage(volume)

	extensions := options.None
	catalog, err := manifest.BootCatalog()
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	if catalog != nil {
		img.BootCatalog = catalog
		extensions = options.ElTorito
	}

	var spinner *yacspin.Spinner
	if isTTY && !*quiet {
		spinner, _ = yacspin.New(yacspin.Config{
			Frequency:       100 * time.Millisecond,
			CharSet:         yacspin.CharSets[14],
			Suffix:          " building " + *output,
			SuffixAutoColon: true,
			StopCharacter:   "✓",
			StopColors:      []string{"fgGreen"},
		})
	}

	buildOptions := []options.Option{
		options.WithCompatibilityLevel(compatLevel),
		options.WithCompatibilityFlags(manifest.CompatibilityFlags()),
		options.WithExtensions(extensions),
		options.WithLogger(log),
	}
	if spinner != nil {
		_ = spinner.Start()
		buildOptions = append(buildOptions, options.WithProgress(
			func(name string, transferred, total int64, fileNumber, fileCount int) {
				spinner.Message(fmt.Sprintf("%s (%d/%d)", name, fileNumber, fileCount))
			}))
	}

	err = iso.BuildFile(img, *output, buildOptions...)
	if spinner != nil {
		if err != nil {
			_ = spinner.StopFail()
		} else {
			_ = spinner.Stop()
		}
	}
	if err != nil {
		// Partial output is not a valid image.
		_ = os.Remove(*output)
		u.PrintError(err)
		os.Exit(1)
	}

	fmt.Printf("Created '%s' from '%s'.\n", *output, *source)
}

// defaultVolumeID derives a d-character volume identifier from the source
// directory name.
func defaultVolumeID(source string) string {
	base := strings.ToUpper(strings.TrimRight(source, "/\\"))
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	var b strings.Builder
	for i := 0; i < len(base) && b.Len() < 32; i++ {
		c := base[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "CDROM"
	}
	return b.String()
}
