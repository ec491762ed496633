package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/asztal/generate-iso/pkg/image"
	"github.com/asztal/generate-iso/pkg/options"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of an image build: volume metadata, the
// compatibility configuration and an optional El Torito boot entry.
type Manifest struct {
	Volume struct {
		SystemID    string `yaml:"system_id"`
		VolumeID    string `yaml:"volume_id"`
		VolumeSetID string `yaml:"volume_set_id"`
		Publisher   string `yaml:"publisher"`
		Preparer    string `yaml:"preparer"`
		Application string `yaml:"application"`
	} `yaml:"volume"`
	Level int `yaml:"level"`
	Flags struct {
		LimitDirectories     *bool `yaml:"limit_directories"`
		TruncateFileNames    *bool `yaml:"truncate_file_names"`
		UpperCaseFileNames   *bool `yaml:"upper_case_file_names"`
		ResolveNameConflicts *bool `yaml:"resolve_name_conflicts"`
		StripIllegalDots     *bool `yaml:"strip_illegal_dots"`
	} `yaml:"flags"`
	Boot *struct {
		Platform    string `yaml:"platform"`
		IDString    string `yaml:"id_string"`
		Image       string `yaml:"image"`
		LoadSegment uint16 `yaml:"load_segment"`
		SectorCount uint16 `yaml:"sector_count"`
	} `yaml:"boot"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// CompatibilityLevel maps the manifest level to the builder's. Zero means
// the default.
func (m *Manifest) CompatibilityLevel() (options.CompatibilityLevel, error) {
	switch m.Level {
	case 0, 1:
		return options.Level1, nil
	case 2:
		return options.Level2, nil
	case 3:
		return options.Level3, nil
	default:
		return 0, fmt.Errorf("manifest level %d is not 1, 2 or 3", m.Level)
	}
}

// CompatibilityFlags applies the manifest's flag overrides to the defaults.
func (m *Manifest) CompatibilityFlags() options.CompatibilityFlags {
	flags := options.LimitDirectories | options.TruncateFileNames |
		options.UpperCaseFileNames | options.ResolveNameConflicts
	apply := func(value *bool, flag options.CompatibilityFlags) {
		if value == nil {
			return
		}
		if *value {
			flags |= flag
		} else {
			flags &^= flag
		}
	}
	apply(m.Flags.LimitDirectories, options.LimitDirectories)
	apply(m.Flags.TruncateFileNames, options.TruncateFileNames)
	apply(m.Flags.UpperCaseFileNames, options.UpperCaseFileNames)
	apply(m.Flags.ResolveNameConflicts, options.ResolveNameConflicts)
	apply(m.Flags.StripIllegalDots, options.StripIllegalDots)
	return flags
}

// BootCatalog builds the El Torito catalog named by the manifest, reading
// the boot image from disk. Returns nil when the manifest has no boot entry.
func (m *Manifest) BootCatalog() (*image.BootCatalog, error) {
	if m.Boot == nil {
		return nil, nil
	}

	var platform image.Platform
	switch strings.ToLower(m.Boot.Platform) {
	case "", "x86", "bios":
		platform = image.X86
	case "ppc", "powerpc":
		platform = image.PowerPC
	case "mac", "macintosh":
		platform = image.Mac
	case "efi":
		platform = image.Firmware
	default:
		return nil, fmt.Errorf("unknown boot platform %q", m.Boot.Platform)
	}

	data, err := os.ReadFile(m.Boot.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot image %s: %w", m.Boot.Image, err)
	}
	entry := image.NewBootCatalogEntry(data, m.Boot.SectorCount)
	entry.LoadSegment = m.Boot.LoadSegment
	return image.NewBootCatalog(platform, m.Boot.IDString, entry), nil
}

// Apply copies the manifest's volume metadata onto the volume.
func (m *Manifest) Apply(v *image.Volume) {
	v.SystemIdentifier = m.Volume.SystemID
	if m.Volume.VolumeID != "" {
		v.VolumeIdentifier = m.Volume.VolumeID
	}
	v.VolumeSetIdentifier = m.Volume.VolumeSetID
	v.PublisherIdentifier = m.Volume.Publisher
	v.DataPreparerIdentifier = m.Volume.Preparer
	v.ApplicationIdentifier = m.Volume.Application
}
