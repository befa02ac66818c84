package crop

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed presets/*.toml
var presetFS embed.FS

// DefaultPreset is the built-in catalog used when no catalog file is given.
const DefaultPreset = "baseline"

// catalogFile is the TOML shape of a catalog document:
//
//	[[crop]]
//	name = "Milho"
//	space_required = 1.0
//	cost = 150
//	yield = 400
//	growth_time = 120
type catalogFile struct {
	Crops []Profile `toml:"crop"`
}

// ParseCatalog decodes a TOML catalog document and validates it.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c := Catalog(f.Crops)
	if err := ValidateCatalog(c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog reads and validates the TOML catalog at path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Preset returns the built-in catalog with the given name.
func Preset(name string) (Catalog, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}
	return ParseCatalog(data)
}

// PresetNames lists the built-in catalog names in sorted order.
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names
}

// Marshal encodes the catalog back into its TOML document form.
func (c Catalog) Marshal() ([]byte, error) {
	return toml.Marshal(catalogFile{Crops: c})
}
