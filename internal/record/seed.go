package record

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// LoadSeedFile reads a YAML (or JSON) list of records to seed an empty store:
//
//	- name: Ada Lovelace
//	  email: ada@example.com
//	  role: admin
func LoadSeedFile(path string) ([]Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML list of record fields.
func ParseSeed(data []byte) ([]Fields, error) {
	var seeds []Fields
	if err := yaml.UnmarshalStrict(data, &seeds); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return seeds, nil
}
