package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/efc/internal/efc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEntropyScale   = 1.0
	DefaultLengthScale    = 10.0
	DefaultFlowConstant   = 1.0
	DefaultVelocityScale  = 1.0
	DefaultGridResolution = 100
)

// Config mirrors the on-disk configuration file. It is decoded once and
// turned into validated efc.Parameters by Parameters.
type Config struct {
	EntropyScale   float64 `yaml:"entropy_scale" json:"entropy_scale"`
	LengthScale    float64 `yaml:"length_scale" json:"length_scale"`
	FlowConstant   float64 `yaml:"flow_constant" json:"flow_constant"`
	VelocityScale  float64 `yaml:"velocity_scale" json:"velocity_scale"`
	GridResolution int     `yaml:"grid_resolution" json:"grid_resolution"`
	TimestepCount  int     `yaml:"timestep_count" json:"timestep_count"`
	Seed           *int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	GridMaxRadius  float64 `yaml:"grid_max_radius,omitempty" json:"grid_max_radius,omitempty"`
	Derivative     string  `yaml:"derivative,omitempty" json:"derivative,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		EntropyScale:   DefaultEntropyScale,
		LengthScale:    DefaultLengthScale,
		FlowConstant:   DefaultFlowConstant,
		VelocityScale:  DefaultVelocityScale,
		GridResolution: DefaultGridResolution,
		Derivative:     string(efc.DerivativeAnalytic),
	}
}

// Load reads a configuration file over the defaults. Files ending in .json
// are decoded as JSON, everything else as YAML. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isJSON(path) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters validates the configuration and returns the immutable
// parameter record used by the evaluator.
func (c *Config) Parameters() (efc.Parameters, error) {
	p := efc.Parameters{
		EntropyScale:   c.EntropyScale,
		LengthScale:    c.LengthScale,
		FlowConstant:   c.FlowConstant,
		VelocityScale:  c.VelocityScale,
		GridResolution: c.GridResolution,
		TimestepCount:  c.TimestepCount,
		GridMaxRadius:  c.GridMaxRadius,
		Derivative:     efc.DerivativeMode(c.Derivative),
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	if err := p.Validate(); err != nil {
		return efc.Parameters{}, err
	}
	return p, nil
}

// FromParameters converts a parameter record back into its file form.
func FromParameters(p efc.Parameters) *Config {
	seed := p.Seed
	return &Config{
		EntropyScale:   p.EntropyScale,
		LengthScale:    p.LengthScale,
		FlowConstant:   p.FlowConstant,
		VelocityScale:  p.VelocityScale,
		GridResolution: p.GridResolution,
		TimestepCount:  p.TimestepCount,
		Seed:           &seed,
		GridMaxRadius:  p.GridMaxRadius,
		Derivative:     string(p.Derivative),
	}
}

// Set assigns a named value; used to apply CLI overrides.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case efc.ParamEntropyScale:
		c.EntropyScale = value
	case efc.ParamLengthScale:
		c.LengthScale = value
	case efc.ParamFlowConstant:
		c.FlowConstant = value
	case efc.ParamVelocityScale:
		c.VelocityScale = value
	case efc.ParamGridResolution:
		c.GridResolution = int(value)
	case efc.ParamTimestepCount:
		c.TimestepCount = int(value)
	case efc.ParamSeed:
		seed := int64(value)
		c.Seed = &seed
	case efc.ParamGridMaxRadius:
		c.GridMaxRadius = value
	default:
		return fmt.Errorf("unknown config key: %s", name)
	}
	return nil
}

func (c *Config) Clone() *Config {
	cp := *c
	if c.Seed != nil {
		seed := *c.Seed
		cp.Seed = &seed
	}
	return &cp
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
