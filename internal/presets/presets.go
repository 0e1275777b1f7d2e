// Package presets loads named lever combinations for policy simulations.
package presets

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"futureweaver/domain/core"
	"futureweaver/internal/analysis/policy"

	"gopkg.in/yaml.v3"
)

// Preset is a named set of levers
type Preset struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Levers      policy.Levers `yaml:"levers" json:"levers"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Set holds presets by name
type Set struct {
	byName map[string]Preset
}

// Builtin returns the presets available without a preset file
func Builtin() *Set {
	s, _ := newSet([]Preset{
		{
			Name:        "baseline",
			Description: "Default levers",
			Levers:      policy.DefaultLevers(),
		},
		{
			Name:        "no-intervention",
			Description: "All levers off",
			Levers:      policy.Levers{},
		},
		{
			Name:        "water-first",
			Description: "Full water subsidy with minimal climate spend",
			Levers:      policy.Levers{WaterSubsidy: 100, ClimatePolicy: 10},
		},
		{
			Name:        "weak-monsoon",
			Description: "Default levers under a failed monsoon",
			Levers:      policy.Levers{WaterSubsidy: 50, ClimatePolicy: 30, MonsoonModifier: 40, ButterflyEffect: true},
		},
	})
	return s
}

// Load reads a YAML preset file. Unknown fields are rejected. An empty path returns the
// built-in presets.
func Load(path string) (*Set, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes preset YAML
func Parse(data []byte) (*Set, error) {
	var file presetFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse preset YAML: %w", err)
	}
	return newSet(file.Presets)
}

func newSet(list []Preset) (*Set, error) {
	s := &Set{byName: make(map[string]Preset, len(list))}
	for i, p := range list {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: name is required", i)
		}
		if _, dup := s.byName[p.Name]; dup {
			return nil, fmt.Errorf("preset %q: duplicate name", p.Name)
		}
		if err := p.Levers.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		s.byName[p.Name] = p
	}
	return s, nil
}

// Get returns the preset called name
func (s *Set) Get(name string) (Preset, error) {
	p, ok := s.byName[name]
	if !ok {
		return Preset{}, core.NewInvalidInputError("preset", fmt.Sprintf("unknown preset %q", name))
	}
	return p, nil
}

// List returns every preset sorted by name
func (s *Set) List() []Preset {
	out := make([]Preset, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
