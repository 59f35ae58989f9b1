// Package registry loads field definitions from a YAML file or a Notion
// database, falling back to the built-in defaults.
package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/curation-cli/internal/model"
)

type fileSpec struct {
	Fields []fieldEntry `yaml:"fields"`
}

type fieldEntry struct {
	Key     string `yaml:"key"`
	Label   string `yaml:"label"`
	Kind    string `yaml:"kind"`
	Section string `yaml:"section"`
}

// LoadFile reads field definitions from a YAML file. Entries with an
// unknown kind are skipped with a warning.
func LoadFile(path string) (*model.FieldRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}
	if len(spec.Fields) == 0 {
		return nil, eris.New("registry: no fields defined")
	}

	var fields []model.FieldSpec
	for _, e := range spec.Fields {
		f, err := toFieldSpec(e.Key, e.Label, e.Kind, e.Section)
		if err != nil {
			zap.L().Warn("registry: skipping field entry",
				zap.String("key", e.Key),
				zap.Error(err),
			)
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, eris.New("registry: no valid fields")
	}

	return model.NewFieldRegistry(fields), nil
}

func toFieldSpec(key, label, kind, section string) (model.FieldSpec, error) {
	if key == "" {
		return model.FieldSpec{}, eris.New("missing key")
	}
	if section == "" {
		return model.FieldSpec{}, eris.New("missing section")
	}
	if label == "" {
		label = key
	}

	var k model.FieldKind
	switch kind {
	case "scalar":
		k = model.KindScalar
	case "list":
		k = model.KindList
	case "ranked":
		k = model.KindRanked
	default:
		return model.FieldSpec{}, eris.Errorf("unknown kind %q", kind)
	}

	return model.FieldSpec{Key: key, Label: label, Kind: k, Section: section}, nil
}
