package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/taigrr/icosphere/pkg/models"
	"gopkg.in/yaml.v3"
)

// MaxPasses bounds the pass count accepted from the command line or a
// config file. Counts grow as 4^passes; 10 passes is ~21M triangles.
const MaxPasses = 10

// maxConfigSize rejects config files that cannot be a sphere preset.
const maxConfigSize = 64 * 1024

// Config holds the generation settings. It can be loaded from a YAML file and
// overridden by flags.
type Config struct {
	Passes    int     `yaml:"passes"`
	Output    string  `yaml:"output"`    // file name without the .stl extension
	Name      string  `yaml:"name"`      // STL solid name
	Precision int     `yaml:"precision"` // significant digits per number
	Keying    string  `yaml:"keying"`    // "edge" or "position"
	Tolerance float64 `yaml:"tolerance"` // position keying only
}

// DefaultConfig returns the settings used when neither a file nor flags say otherwise.
func DefaultConfig() Config {
	return Config{
		Passes:    0,
		Output:    models.DefaultSolidName,
		Name:      models.DefaultSolidName,
		Precision: models.DefaultPrecision,
		Keying:    models.KeyByEdge.String(),
		Tolerance: models.DefaultTolerance,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Passes < 0 || c.Passes > MaxPasses {
		return fmt.Errorf("passes must be between 0 and %d, got %d", MaxPasses, c.Passes)
	}
	if c.Output == "" {
		return errors.New("output must not be empty")
	}
	if c.Precision < 1 || c.Precision > 17 {
		return fmt.Errorf("precision must be between 1 and 17, got %d", c.Precision)
	}
	keying, err := models.ParseMidpointKeying(c.Keying)
	if err != nil {
		return err
	}
	if keying == models.KeyByPosition && c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for position keying, got %g", c.Tolerance)
	}
	return nil
}

// NewIcosphere creates a seed mesh configured with c's keying options.
func (c Config) NewIcosphere() (*models.Icosphere, error) {
	keying, err := models.ParseMidpointKeying(c.Keying)
	if err != nil {
		return nil, err
	}
	sphere := models.NewIcosphere(c.Name)
	sphere.Keying = keying
	sphere.Tolerance = c.Tolerance
	return sphere, nil
}
