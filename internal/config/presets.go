package config

import (
	"fmt"
	"sort"
)

// Preset is a named starting population, optionally with its own parameters.
type Preset struct {
	Description string
	Random      int
	Clones      int

	Sigma, Beta, Rho float64
}

var Presets = map[string]Preset{
	"default": {
		Description: "13 random trajectories",
		Random:      13,
	},
	"chaos": {
		Description: "one trajectory and 31 near copies diverging",
		Random:      1, Clones: 31,
	},
	"gentle": {
		Description: "32 random trajectories",
		Random:      32,
	},
	"bendy": {
		Description: "32 random trajectories with wide wings",
		Random:      32,
		Sigma:       17.24, Beta: 1.1, Rho: 217,
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the population and, where the preset sets them,
// the Lorenz parameters.
func (c *Config) ApplyPreset(name string) error {
	p, ok := GetPreset(name)
	if !ok {
		return fmt.Errorf("config: unknown preset %q", name)
	}
	c.Preset = name
	c.Trajectories = p.Random
	c.Clones = p.Clones
	if p.Sigma != 0 {
		c.Sigma = p.Sigma
	}
	if p.Beta != 0 {
		c.Beta = p.Beta
	}
	if p.Rho != 0 {
		c.Rho = p.Rho
	}
	return nil
}
