package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalogs is the static prototype data the world resolves entity and stack
// identifiers against. Loaded once at startup; never mutated afterwards.
type Catalogs struct {
	Entities EntityCatalog
	Stacks   StackCatalog
	Access   AccessCatalog
	Presets  PresetCatalog
}

type EntityCatalog struct {
	Defs   map[string]EntityDef
	Digest string
}

// EntityDef is a spawnable entity prototype. StackType, when set, marks
// instances of this prototype as quantity-bearing stacks of that type.
type EntityDef struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	StackType string   `json:"stack_type,omitempty"`
	Grants    []string `json:"grants,omitempty"` // access tags granted while held
}

type StackCatalog struct {
	Defs   map[string]StackDef
	Digest string
}

// StackDef binds a fungible stack type to its spawn template.
// MaxCount 0 means unbounded stacks.
type StackDef struct {
	ID       string `json:"id"`
	Spawn    string `json:"spawn"`
	MaxCount int    `json:"max_count,omitempty"`
}

type AccessCatalog struct {
	Levels map[string]AccessLevelDef
	Groups map[string]AccessGroupDef
	Digest string
}

type AccessLevelDef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// AccessGroupDef is an alias expanding to one or more access levels.
type AccessGroupDef struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

type PresetCatalog struct {
	ByID   map[string]PresetDef
	Digest string
}

/// PresetDef is one store preset: a single accepted currency plus a catalog
// keyed mode -> category -> entries.
type PresetDef struct {
	ID       string                              `yaml:"id"`
	Currency string                              `yaml:"currency"`
	Catalog  map[string]map[string][]PresetEntry `yaml:"catalog"`
}

type PresetEntry struct {
	Proto string  `yaml:"proto"`
	Price float64 `yaml:"price"`
	Count *int    `yaml:"count,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadEntities(filepath.Join(configDir, "entities.json"), &c.Entities); err != nil {
		return nil, err
	}
	if err := loadStacks(filepath.Join(configDir, "stacks.json"), &c.Stacks); err != nil {
		return nil, err
	}
	if err := loadAccess(filepath.Join(configDir, "access.json"), &c.Access); err != nil {
		return nil, err
	}
	if err := loadPresets(filepath.Join(configDir, "presets"), &c.Presets); err != nil {
		return nil, err
	}

	// Every stack spawn template must resolve to a known entity prototype.
	for id, s := range c.Stacks.Defs {
		if _, ok := c.Entities.Defs[s.Spawn]; !ok {
			return nil, fmt.Errorf("stacks.json: %s: unknown spawn entity %q", id, s.Spawn)
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadEntities(path string, out *EntityCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EntityDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("entities.json: %w", err)
	}
	out.Defs = map[string]EntityDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("entities.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadStacks(path string, out *StackCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []StackDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("stacks.json: %w", err)
	}
	out.Defs = map[string]StackDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("stacks.json: empty id")
		}
		if d.Spawn == "" {
			return fmt.Errorf("stacks.json: %s: empty spawn", d.ID)
		}
		if d.MaxCount < 0 {
			return fmt.Errorf("stacks.json: %s: negative max_count", d.ID)
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadAccess(path string, out *AccessCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Worlds without access-gated stores don't need the file.
		if os.IsNotExist(err) {
			out.Levels = map[string]AccessLevelDef{}
			out.Groups = map[string]AccessGroupDef{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Levels []AccessLevelDef `json:"levels"`
		Groups []AccessGroupDef `json:"groups"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("access.json: %w", err)
	}
	out.Levels = map[string]AccessLevelDef{}
	for _, l := range doc.Levels {
		if l.ID == "" {
			return fmt.Errorf("access.json: empty level id")
		}
		out.Levels[l.ID] = l
	}
	out.Groups = map[string]AccessGroupDef{}
	for _, g := range doc.Groups {
		if g.ID == "" {
			return fmt.Errorf("access.json: empty group id")
		}
		out.Groups[g.ID] = g
	}
	return nil
}

func loadPresets(dir string, out *PresetCatalog) error {
	out.ByID = map[string]PresetDef{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	h := sha256.New()
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		h.Write(raw)

		var p PresetDef
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("presets/%s: %w", name, err)
		}
		if p.ID == "" {
			return fmt.Errorf("presets/%s: empty id", name)
		}
		if p.Currency == "" {
			return fmt.Errorf("presets/%s: empty currency", name)
		}
		if _, dup := out.ByID[p.ID]; dup {
			return fmt.Errorf("presets/%s: duplicate preset id %q", name, p.ID)
		}
		out.ByID[p.ID] = p
	}
	out.Digest = hex.EncodeToString(h.Sum(nil))
	return nil
}

// HasEntity reports whether an entity prototype id is spawnable.
func (c *Catalogs) HasEntity(id string) bool {
	_, ok := c.Entities.Defs[id]
	return ok
}

// StackTypeOf resolves the stack type of an entity prototype, if any.
func (c *Catalogs) StackTypeOf(protoID string) (string, bool) {
	d, ok := c.Entities.Defs[protoID]
	if !ok || d.StackType == "" {
		return "", false
	}
	return d.StackType, true
}
