package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/efc/internal/config"
	"github.com/san-kum/efc/internal/efc"
	"github.com/san-kum/efc/internal/optim"
	"github.com/spf13/cobra"
)

func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml or json)")
	f.StringVar(&preset, "preset", "", "use preset parameters")
	f.Float64Var(&entropyScale, "entropy-scale", config.DefaultEntropyScale, "entropy scale (Smax)")
	f.Float64Var(&lengthScale, "length-scale", config.DefaultLengthScale, "length scale (L)")
	f.Float64Var(&flowConstant, "flow-constant", config.DefaultFlowConstant, "flow constant (K)")
	f.Float64Var(&velocityScale, "velocity-scale", config.DefaultVelocityScale, "velocity scale (V)")
	f.IntVar(&gridResolution, "grid-resolution", config.DefaultGridResolution, "grid resolution")
	f.Float64Var(&gridMaxRadius, "grid-max-radius", 0, "grid outer radius (default 10 length scales)")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.StringVar(&derivative, "derivative", string(efc.DerivativeAnalytic), "potential derivative (analytic, central)")
}

// loadConfig resolves preset, config file and explicitly set flags, in
// that order of precedence (flags win).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := []struct {
		flag  string
		name  string
		value func() float64
	}{
		{"entropy-scale", efc.ParamEntropyScale, func() float64 { return entropyScale }},
		{"length-scale", efc.ParamLengthScale, func() float64 { return lengthScale }},
		{"flow-constant", efc.ParamFlowConstant, func() float64 { return flowConstant }},
		{"velocity-scale", efc.ParamVelocityScale, func() float64 { return velocityScale }},
		{"grid-resolution", efc.ParamGridResolution, func() float64 { return float64(gridResolution) }},
		{"grid-max-radius", efc.ParamGridMaxRadius, func() float64 { return gridMaxRadius }},
		{"seed", efc.ParamSeed, func() float64 { return float64(seed) }},
	}
	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		if err := cfg.Set(o.name, o.value()); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("derivative") {
		cfg.Derivative = derivative
	}

	return cfg, nil
}

func loadParams(cmd *cobra.Command) (efc.Parameters, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return efc.Parameters{}, err
	}
	return cfg.Parameters()
}

// parseRadii parses a comma separated list of radii.
func parseRadii(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	radii := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid radius %q", part)
		}
		radii = append(radii, r)
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("no radii given")
	}
	return radii, nil
}

// parseVary parses name=lo:hi:n into a parameter name and its values.
func parseVary(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid range %q: want name=lo:hi:n", arg)
	}
	fields := strings.Split(rng, ":")
	if len(fields) != 3 {
		return "", nil, fmt.Errorf("invalid range %q: want name=lo:hi:n", arg)
	}
	lo, err1 := strconv.ParseFloat(fields[0], 64)
	hi, err2 := strconv.ParseFloat(fields[1], 64)
	n, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid range %q: want name=lo:hi:n", arg)
	}
	return strings.TrimSpace(name), optim.Linspace(lo, hi, n), nil
}
