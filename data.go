package folio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Data holds the site's data collections keyed by file name without
// extension: data/projects.yml is Data["projects"].
type Data map[string]any

// LoadData reads every .yml, .yaml, .json and .toml file directly under
// dir. A missing directory yields empty data.
func LoadData(dir string) (Data, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("folio: read data dir: %w", err)
	}

	data := make(Data, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		name := strings.TrimSuffix(e.Name(), ext)
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("folio: read data %s: %w", e.Name(), err)
		}
		var v any
		switch ext {
		case ".yml", ".yaml":
			err = yaml.Unmarshal(raw, &v)
		case ".json":
			err = json.Unmarshal(raw, &v)
		case ".toml":
			var m map[string]any
			err = toml.Unmarshal(raw, &m)
			v = m
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("folio: parse data %s: %w", e.Name(), err)
		}
		data[name] = v
	}
	return data, nil
}

// Items returns collection name as a list of items. A TOML file holding a
// single array table ("[[projects]]") is unwrapped. Every item must be a
// mapping; the error for one that is not names its position in the file.
func (d Data) Items(name string) ([]Project, error) {
	v, ok := d[name]
	if !ok {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		inner, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("folio: data %q is a mapping, expected a list", name)
		}
		v = inner
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("folio: data %q is %T, expected a list", name, v)
	}
	items := make([]Project, 0, len(list))
	for i, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("folio: data %q item %d is %T, expected a mapping", name, i, it)
		}
		items = append(items, Project(m))
	}
	return items, nil
}
