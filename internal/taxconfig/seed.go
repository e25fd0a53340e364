package taxconfig

import (
	"fmt"
	"os"

	"tax-harvest-go/internal/models"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk layout of a rate-table file.
//
//	tax_configurations:
//	  - fiscal_year: "2024-25"
//	    short_term_equity_rate: 0.20
//	    ...
//
// Entries stay as nodes so that a key set to 0 can be told apart from a key
// left out.
type SeedFile struct {
	TaxConfigurations []yaml.Node `yaml:"tax_configurations"`
}

// LoadSeedFile parses a YAML rate-table file. Keys left out of an entry
// fall back to the default table for that year.
func LoadSeedFile(path string) ([]models.TaxConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed parses the YAML content of a seed file.
func ParseSeed(data []byte) ([]models.TaxConfiguration, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	out := make([]models.TaxConfiguration, 0, len(file.TaxConfigurations))
	for i := range file.TaxConfigurations {
		c, err := decodeEntry(&file.TaxConfigurations[i])
		if err != nil {
			return nil, fmt.Errorf("failed to parse seed entry %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// decodeEntry overlays the keys present in node onto the default table for
// its fiscal year.
func decodeEntry(node *yaml.Node) (models.TaxConfiguration, error) {
	var head struct {
		FiscalYear string `yaml:"fiscal_year"`
	}
	if err := node.Decode(&head); err != nil {
		return models.TaxConfiguration{}, err
	}
	c := Default(head.FiscalYear)
	if err := node.Decode(&c); err != nil {
		return models.TaxConfiguration{}, err
	}
	return c, nil
}
