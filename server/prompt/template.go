package prompt

import (
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed instructions.yaml
var instructionsYAML []byte

// loadTemplate parses the embedded instructions file and joins its sections,
// in document order, with a "---" divider. Placeholders survive verbatim for
// renderTemplate to fill.
func loadTemplate() (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(instructionsYAML, &doc); err != nil {
		return "", errors.Wrap(err, "parse instructions template")
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", errors.New("instructions template is not a mapping")
	}
	mapping := doc.Content[0]

	var sections []string
	// Mapping content alternates key, value.
	for i := 1; i < len(mapping.Content); i += 2 {
		sections = append(sections, strings.TrimRight(mapping.Content[i].Value, "\n"))
	}
	if len(sections) == 0 {
		return "", errors.New("instructions template has no sections")
	}
	return strings.Join(sections, "\n---\n"), nil
}

// renderTemplate interpolates the serialized context collections into the
// template's designated placeholders.
func renderTemplate(template, tableMetadata, dataProfiles, samples string) string {
	return strings.NewReplacer(
		"{table_metadata}", tableMetadata,
		"{data_profiles}", dataProfiles,
		"{samples}", samples,
	).Replace(template)
}
