package assumption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"property_projection/pkg/core/utils"
)

// presetFile is the on-disk layout: either a single scenario or a list.
type presetFile struct {
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadYAML reads scenarios from a YAML file.
func LoadYAML(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	if len(file.Scenarios) > 0 {
		return file.Scenarios, nil
	}

	var single Scenario
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	if single.Name == "" {
		return nil, fmt.Errorf("%s: no scenarios found", path)
	}
	return []Scenario{single}, nil
}

// LoadHJSON reads scenarios from an Hjson file. The file goes through JSON so
// that rates are read as percentage points like every other input.
func LoadHJSON(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}
	converted, err := utils.ParseHJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var file presetFile
	if err := json.Unmarshal(converted, &file); err == nil && len(file.Scenarios) > 0 {
		return file.Scenarios, nil
	}

	var single Scenario
	if err := json.Unmarshal(converted, &single); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if single.Name == "" {
		return nil, fmt.Errorf("%s: no scenarios found", path)
	}
	return []Scenario{single}, nil
}

// LoadDir loads every *.yaml, *.yml and *.hjson file in dir into the set.
// A missing directory is not an error. It returns the number of scenarios added.
func (s *ScenarioSet) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read presets dir: %w", err)
	}

	added := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())

		var scenarios []Scenario
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			scenarios, err = LoadYAML(path)
		case ".hjson":
			scenarios, err = LoadHJSON(path)
		default:
			continue
		}
		if err != nil {
			return added, err
		}
		for _, sc := range scenarios {
			if err := s.Add(sc); err != nil {
				return added, fmt.Errorf("%s: %w", path, err)
			}
			added++
		}
	}
	return added, nil
}
