package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config carries the settings that change what the checker accepts.
// It is passed explicitly wherever it is needed; there is no package-level
// default that can be mutated at runtime.
type Config struct {
	// PythonVersion gates which overload alternatives are visible,
	// as "major.minor".
	PythonVersion Version `yaml:"python_version"`

	// StrictLiteralFlags rejects non-literal expressions passed to flags
	// which must be known at check time (such as a field specifier's
	// kw_only). When false such flags are ignored rather than rejected.
	StrictLiteralFlags bool `yaml:"strict_literal_flags"`
}

// Default is the configuration used when no file is supplied.
func Default() Config {
	return Config{
		PythonVersion:      Version{Major: 3, Minor: 13},
		StrictLiteralFlags: true,
	}
}

// LoadFile reads a yaml config file. Missing keys keep their Default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read config file")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "could not decode config file")
	}
	return cfg, nil
}

type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is other or newer.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

var _ yaml.Unmarshaler = (*Version)(nil)

func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Version) MarshalYAML() (any, error) {
	return v.String(), nil
}

func ParseVersion(raw string) (Version, error) {
	var v Version
	n, err := fmt.Sscanf(raw, "%d.%d", &v.Major, &v.Minor)
	if err != nil || n != 2 {
		return v, fmt.Errorf("invalid version %q: want major.minor", raw)
	}
	return v, nil
}
