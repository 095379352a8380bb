package refdata

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/verdant-group/impact-cli/internal/interval"
	"github.com/verdant-group/impact-cli/internal/resolver"
)

// factorFile mirrors factors.yml: per-category embodied factors under
// "manufacture" and per-location mix factors under "electricity", each
// keyed by criterion.
type factorFile struct {
	Manufacture map[string]map[string]factorEntry `yaml:"manufacture"`
	Electricity map[string]map[string]factorEntry `yaml:"electricity"`
}

// factorEntry accepts either a bare number or a mapping with explicit
// bounds and a source citation.
type factorEntry struct {
	Value  float64  `yaml:"value"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Source string   `yaml:"source"`
}

func (e *factorEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Value)
	}
	type plain factorEntry
	return node.Decode((*plain)(e))
}

func (e factorEntry) factor() resolver.Factor {
	r := interval.Exact(e.Value)
	if e.Min != nil && e.Max != nil {
		r = interval.Range{Value: e.Value, Min: *e.Min, Max: *e.Max}
	}
	return resolver.Factor{Range: r, Source: e.Source}
}

func loadFactorFile(dir string) (*factorFile, error) {
	path := filepath.Join(dir, "factors.yml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: open factors")
	}
	var f factorFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrap(err, "refdata: parse factors")
	}
	if len(f.Manufacture) == 0 {
		return nil, eris.New("refdata: factors file has no manufacture section")
	}
	return &f, nil
}
