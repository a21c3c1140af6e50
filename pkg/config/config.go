// Package config loads trussrig settings from TOML or YAML files.
//
// Settings are layered: built-in defaults, then the config file, then
// command-line flags applied by the caller. The file format is chosen by
// extension (.yaml/.yml for YAML, anything else is TOML). Unknown keys are
// rejected so that typos do not silently fall back to defaults.
//
// A minimal TOML file:
//
//	[truss]
//	length = 4.0
//	position = [0.0, 2.5, 0.0]
//
//	[load]
//	mass = 250.0
//
//	[solver]
//	pose_mode = "free"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/trussrig/pkg/connect"
	"github.com/matzehuels/trussrig/pkg/errors"
	"github.com/matzehuels/trussrig/pkg/geom"
	"github.com/matzehuels/trussrig/pkg/load"
	"github.com/matzehuels/trussrig/pkg/observability"
	"github.com/matzehuels/trussrig/pkg/truss"
)

const (
	// appName is the directory name under the XDG config home.
	appName = "trussrig"

	// FileName is the default config file name.
	FileName = "config.toml"

	// DefaultMass is the payload mass after a reset, in kilograms.
	DefaultMass = 100.0

	// DefaultTrussY is the default height of the truss centerline.
	DefaultTrussY = 2.0
)

// Format is a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Config is the full set of settings.
type Config struct {
	Truss    Truss           `toml:"truss" yaml:"truss"`
	Load     Payload         `toml:"load" yaml:"load"`
	Solver   Solver          `toml:"solver" yaml:"solver"`
	Connect  Connect         `toml:"connect" yaml:"connect"`
	Severity load.Thresholds `toml:"severity" yaml:"severity"`
}

// Truss holds the truss dimensions and its default placement.
type Truss struct {
	Length         float64    `toml:"length" yaml:"length"`
	Height         float64    `toml:"height" yaml:"height"`
	Width          float64    `toml:"width" yaml:"width"`
	WeightPerMeter float64    `toml:"weight_per_meter" yaml:"weight_per_meter"`
	Position       [3]float64 `toml:"position" yaml:"position,flow"`
	YawDegrees     float64    `toml:"yaw_degrees" yaml:"yaw_degrees"`
}

// Payload holds the payload settings.
type Payload struct {
	Gravity float64 `toml:"gravity" yaml:"gravity"`
	OffsetY float64 `toml:"offset_y" yaml:"offset_y"`
	Mass    float64 `toml:"mass" yaml:"mass"`
}

// Solver selects the truss pose policy.
type Solver struct {
	PoseMode string `toml:"pose_mode" yaml:"pose_mode"`
}

// Connect selects the rope routing policy.
type Connect struct {
	Mode string `toml:"mode" yaml:"mode"`
}

// Default returns the built-in configuration.
func Default() *Config {
	spec := truss.DefaultSpec()
	return &Config{
		Truss: Truss{
			Length:         spec.Length,
			Height:         spec.Height,
			Width:          spec.Width,
			WeightPerMeter: spec.WeightPerMeter,
			Position:       [3]float64{0, DefaultTrussY, 0},
		},
		Load: Payload{
			Gravity: load.Gravity,
			OffsetY: spec.LoadOffsetY,
			Mass:    DefaultMass,
		},
		Solver:   Solver{PoseMode: truss.PoseLocked.String()},
		Connect:  Connect{Mode: connect.ModeExplicit.String()},
		Severity: load.DefaultThresholds(),
	}
}

// Validate checks every setting and returns an INVALID_CONFIG error for the
// first problem found.
func (c *Config) Validate() error {
	if err := c.TrussSpec().Validate(); err != nil {
		return err
	}
	for i, v := range c.Truss.Position {
		if err := errors.ValidateFinite("truss position", v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "truss.position[%d]", i)
		}
	}
	if err := errors.ValidateFinite("truss yaw", c.Truss.YawDegrees); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "truss.yaw_degrees")
	}
	if err := errors.ValidatePositive("gravity", c.Load.Gravity); err != nil {
		return err
	}
	if err := errors.ValidateMass(c.Load.Mass); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load.mass")
	}
	if _, err := c.PoseMode(); err != nil {
		return err
	}
	if _, err := c.ConnectMode(); err != nil {
		return err
	}
	return c.Severity.Validate()
}

// TrussSpec returns the truss dimensions.
func (c *Config) TrussSpec() truss.Spec {
	return truss.Spec{
		Length:         c.Truss.Length,
		Height:         c.Truss.Height,
		Width:          c.Truss.Width,
		WeightPerMeter: c.Truss.WeightPerMeter,
		LoadOffsetY:    c.Load.OffsetY,
	}
}

// HomePose returns the configured truss placement.
func (c *Config) HomePose() geom.Pose {
	p := c.Truss.Position
	return geom.YawPose(r3.Vec{X: p[0], Y: p[1], Z: p[2]}, c.Truss.YawDegrees)
}

// PoseMode parses the solver pose mode.
func (c *Config) PoseMode() (truss.PoseMode, error) {
	return truss.ParsePoseMode(c.Solver.PoseMode)
}

// ConnectMode parses the rope routing mode.
func (c *Config) ConnectMode() (connect.Mode, error) {
	return connect.ParseMode(c.Connect.Mode)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// FormatOf returns the encoding implied by a file name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Decode reads a config in format f from r on top of the defaults.
func Decode(r io.Reader, f Format) (*Config, error) {
	cfg := Default()
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		md, err := toml.NewDecoder(r).Decode(cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (*Config, error) {
	cfg, err := loadFile(path)
	observability.Config().OnConfigLoad(path, err)
	return cfg, err
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data), FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the config for a session. An explicit path must exist.
// Without one the default path is used when present, else the built-in
// defaults. The returned path is empty when no file was read.
func Load(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}
	def, err := Path()
	if err != nil {
		observability.Config().OnConfigLoad("", nil)
		return Default(), "", nil
	}
	if _, err := os.Stat(def); err != nil {
		observability.Config().OnConfigLoad("", nil)
		return Default(), "", nil
	}
	cfg, err := LoadFile(def)
	return cfg, def, err
}

// Encode writes c to w in format f.
func (c *Config) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		if err := toml.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	}
	return nil
}

// WriteFile writes c to path, creating parent directories. An existing file
// is only replaced when overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, FormatOf(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Dir returns the config directory using the XDG standard
// (~/.config/trussrig/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}
