package abilities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Catalog is the immutable ability table shared read-only by every room.
// Build it once at process start and never mutate it afterwards.
type Catalog struct {
	entries map[string]Definition
	hash    string
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	def, ok := c.entries[id]
	return def, ok
}

// Hash is a stable digest of the catalog contents, sent to clients at game
// start so both sides can detect ability-table drift.
func (c *Catalog) Hash() string {
	return c.hash
}

// IDs returns every ability id in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DebuffIDs returns the sorted ids of every debuff-category ability.
func (c *Catalog) DebuffIDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id, def := range c.entries {
		if def.Category == CategoryDebuff {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// BuiltIn returns the catalog assembled from compiled-in defaults only.
func BuiltIn() *Catalog {
	return build(defaults)
}

// Load merges the designer JSON file at path over the built-in defaults.
// A missing file is not an error; the defaults stand alone. Rows in the
// file must reference known ids with valid category and targeting values.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return BuiltIn(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ability catalog %s: %w", path, err)
	}

	var overrides []Definition
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse ability catalog %s: %w", path, err)
	}

	merged := append([]Definition(nil), defaults...)
	index := make(map[string]int, len(merged))
	for i, def := range merged {
		index[def.ID] = i
	}
	for _, def := range overrides {
		if err := validate(def); err != nil {
			return nil, fmt.Errorf("ability catalog %s: %w", path, err)
		}
		if i, ok := index[def.ID]; ok {
			merged[i] = def
			continue
		}
		index[def.ID] = len(merged)
		merged = append(merged, def)
	}
	return build(merged), nil
}

func validate(def Definition) error {
	if def.ID == "" {
		return errors.New("entry missing id")
	}
	if def.Cost < 0 {
		return fmt.Errorf("ability %s: negative cost", def.ID)
	}
	if def.DurationMs < 0 {
		return fmt.Errorf("ability %s: negative duration", def.ID)
	}
	switch def.Category {
	case CategoryBuff, CategoryDebuff, CategoryDefensive:
	default:
		return fmt.Errorf("ability %s: unknown category %q", def.ID, def.Category)
	}
	switch def.Targeting {
	case TargetSelf, TargetOpponent:
	default:
		return fmt.Errorf("ability %s: unknown targeting %q", def.ID, def.Targeting)
	}
	return nil
}

func build(defs []Definition) *Catalog {
	entries := make(map[string]Definition, len(defs))
	for _, def := range defs {
		entries[def.ID] = def
	}
	return &Catalog{entries: entries, hash: digest(entries)}
}

// digest canonicalizes the catalog as sorted JSON rows and hashes it, so
// the value is independent of map iteration order.
func digest(entries map[string]Definition) string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		row, err := json.Marshal(entries[id])
		if err != nil {
			continue
		}
		h.Write(row)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
