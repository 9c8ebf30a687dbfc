package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

type yamlAreaFile struct {
	Area YAMLArea `yaml:"area"`
}

// YAMLArea is the YAML representation of an area. It is exported so scenario
// files can embed an area next to other sections.
type YAMLArea struct {
	ID                     string            `yaml:"id"`
	Name                   string            `yaml:"name"`
	Width                  int               `yaml:"width"`
	Height                 int               `yaml:"height"`
	VisibilityRadius       int               `yaml:"visibility_radius"`
	ScriptDir              string            `yaml:"script_dir"`
	ScriptInstructionLimit int               `yaml:"script_instruction_limit"`
	Opaque                 []hex.Point       `yaml:"opaque"`
	Concealment            []yamlConcealment `yaml:"concealment"`
	Elevation              []yamlElevation   `yaml:"elevation"`
	Doors                  []yamlDoor        `yaml:"doors"`
}

type yamlConcealment struct {
	X        int `yaml:"x"`
	Y        int `yaml:"y"`
	Amount   int `yaml:"amount"`
	Negation int `yaml:"negation"`
}

type yamlElevation struct {
	X     int `yaml:"x"`
	Y     int `yaml:"y"`
	Level int `yaml:"level"`
}

type yamlDoor struct {
	ID   string `yaml:"id"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Open bool   `yaml:"open"`
}

// LoadAreaFromFile reads and validates a single area YAML file.
//
// Postcondition: Returns a validated Area or a non-nil error.
func LoadAreaFromFile(path string) (*Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading area file %s: %w", path, err)
	}
	return LoadAreaFromBytes(data)
}

// LoadAreaFromBytes parses and validates an area from YAML bytes.
func LoadAreaFromBytes(data []byte) (*Area, error) {
	var file yamlAreaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing area YAML: %w", err)
	}
	return file.Area.Build()
}

// Build converts the YAML form into a validated Area.
func (ya YAMLArea) Build() (*Area, error) {
	if ya.Width <= 0 || ya.Height <= 0 {
		return nil, fmt.Errorf("validating area %q: dimensions %dx%d must be positive", ya.ID, ya.Width, ya.Height)
	}
	area := NewArea(ya.ID, ya.Width, ya.Height)
	if ya.Name != "" {
		area.Name = ya.Name
	}
	if ya.VisibilityRadius != 0 {
		area.VisibilityRadius = ya.VisibilityRadius
	}
	area.ScriptDir = ya.ScriptDir
	area.ScriptInstructionLimit = ya.ScriptInstructionLimit
	for _, p := range ya.Opaque {
		t := area.Terrain(p)
		t.Opaque = true
		area.SetTerrain(p, t)
	}
	for _, c := range ya.Concealment {
		p := hex.Pt(c.X, c.Y)
		t := area.Terrain(p)
		t.Concealment, t.ConcealmentNegation = c.Amount, c.Negation
		area.SetTerrain(p, t)
	}
	for _, e := range ya.Elevation {
		p := hex.Pt(e.X, e.Y)
		t := area.Terrain(p)
		t.Elevation = e.Level
		area.SetTerrain(p, t)
	}
	for _, d := range ya.Doors {
		area.AddDoor(NewDoor(d.ID, hex.Pt(d.X, d.Y), d.Open))
	}
	if err := area.Validate(); err != nil {
		return nil, fmt.Errorf("validating area: %w", err)
	}
	return area, nil
}

// LoadAreasFromDir loads all YAML files in a directory as areas.
//
// Postcondition: Returns all validated areas or the first error encountered.
func LoadAreasFromDir(dir string) ([]*Area, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading area directory %s: %w", dir, err)
	}
	var areas []*Area
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		area, err := LoadAreaFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading area from %s: %w", name, err)
		}
		areas = append(areas, area)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("no area files found in %s", dir)
	}
	return areas, nil
}
