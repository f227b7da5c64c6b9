package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tradepost.gg/internal/sim/world"
)

// WorldLayout is the static placement config: where actors spawn and which
// store terminals exist.
type WorldLayout struct {
	SpawnPos [3]int        `yaml:"spawn_pos"`
	Stores   []StoreLayout `yaml:"stores"`
}

type StoreLayout struct {
	Proto  string     `yaml:"proto"`
	Pos    [3]int     `yaml:"pos"`
	Preset string     `yaml:"preset,omitempty"`
	Access [][]string `yaml:"access,omitempty"`
	Reader [][]string `yaml:"reader,omitempty"`
}

func loadLayout(path string) (WorldLayout, error) {
	var l WorldLayout
	raw, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return l, fmt.Errorf("%s: %w", path, err)
	}
	for i, s := range l.Stores {
		if s.Proto == "" {
			return l, fmt.Errorf("%s: store %d: empty proto", path, i)
		}
	}
	return l, nil
}

func (l WorldLayout) storeSpecs() []world.StoreSpec {
	specs := make([]world.StoreSpec, 0, len(l.Stores))
	for _, s := range l.Stores {
		specs = append(specs, world.StoreSpec{
			Proto:  s.Proto,
			Pos:    world.FromArray(s.Pos),
			Preset: s.Preset,
			Access: s.Access,
			Reader: s.Reader,
		})
	}
	return specs
}
