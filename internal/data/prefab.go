package data

import (
	"fmt"
	"os"

	"github.com/boraty14/Becs/internal/config"
	"gopkg.in/yaml.v3"
)

// PoolOverride replaces individual pool tunables for one prefab.
type PoolOverride struct {
	Initial          *int  `yaml:"initial"`
	Max              *int  `yaml:"max"`
	CollectionChecks *bool `yaml:"collection_checks"`
}

// Apply returns base with every set field of o replaced.
func (o *PoolOverride) Apply(base config.PoolConfig) config.PoolConfig {
	if o == nil {
		return base
	}
	if o.Initial != nil {
		base.Initial = *o.Initial
	}
	if o.Max != nil {
		base.Max = *o.Max
	}
	if o.CollectionChecks != nil {
		base.CollectionChecks = *o.CollectionChecks
	}
	return base
}

// Prefab describes one kind of pooled unit.
type Prefab struct {
	Name     string        `yaml:"name"`
	Lifetime int           `yaml:"lifetime"` // frames, 0 = never expires
	Single   bool          `yaml:"single"`   // at most one live unit
	Pool     *PoolOverride `yaml:"pool"`
}

type prefabListFile struct {
	Prefabs []Prefab `yaml:"prefabs"`
}

// PrefabTable holds prefab definitions in file order, indexed by name.
type PrefabTable struct {
	prefabs []Prefab
	byName  map[string]int
}

func (t *PrefabTable) Get(name string) (Prefab, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Prefab{}, false
	}
	return t.prefabs[i], true
}

// All returns the prefabs in file order.
func (t *PrefabTable) All() []Prefab {
	return t.prefabs
}

func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}

// LoadPrefabTable loads prefab definitions from a YAML file.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefabs: %w", err)
	}
	return ParsePrefabTable(raw)
}

// ParsePrefabTable parses prefab YAML. Names must be non-empty and unique and
// lifetimes non-negative.
func ParsePrefabTable(raw []byte) (*PrefabTable, error) {
	var f prefabListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prefabs: %w", err)
	}
	t := &PrefabTable{
		prefabs: f.Prefabs,
		byName:  make(map[string]int, len(f.Prefabs)),
	}
	for i, p := range f.Prefabs {
		if p.Name == "" {
			return nil, fmt.Errorf("prefab #%d: missing name", i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("prefab %q: duplicate name", p.Name)
		}
		if p.Lifetime < 0 {
			return nil, fmt.Errorf("prefab %q: negative lifetime %d", p.Name, p.Lifetime)
		}
		t.byName[p.Name] = i
	}
	return t, nil
}
