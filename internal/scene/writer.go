package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteProject writes a project to a YAML file
func WriteProject(p *Project, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file. Fields the file leaves out
// keep their defaults.
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := New()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}
	p.normalize()

	return p, nil
}
