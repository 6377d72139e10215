package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/readaloud/internal/voice"
)

// builtinCatalog is the bundled voice list used when no catalog file is
// configured. IDs follow the piper model naming scheme so the optional CLI
// engine can resolve them directly.
func builtinCatalog() []voice.Voice {
	return []voice.Voice{
		{ID: "local:en_US-amy-medium", Name: "Amy (Enhanced)", Lang: "en-US"},
		{ID: "local:en_US-amy-low", Name: "Amy", Lang: "en-US"},
		{ID: "local:en_US-ryan-high", Name: "Ryan (Premium)", Lang: "en-US"},
		{ID: "local:en_GB-alan-medium", Name: "Alan", Lang: "en-GB"},
		{ID: "local:de_DE-eva_k-x_low", Name: "Eva", Lang: "de-DE"},
		{ID: "local:fr_FR-siwis-medium", Name: "Siwis", Lang: "fr-FR"},
		{ID: "local:es_ES-davefx-medium", Name: "Davefx", Lang: "es-ES"},
	}
}

type catalogFile struct {
	Voices []voice.Voice `yaml:"voices"`
}

// LoadCatalog reads a YAML voice catalog: a `voices` list of {id, name,
// lang} entries. Names default to the ID; IDs must be unique and languages
// set.
func LoadCatalog(path string) ([]voice.Voice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice catalog: %w", err)
	}

	var cat catalogFile
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode voice catalog: %w", err)
	}

	seen := make(map[string]bool, len(cat.Voices))
	voices := make([]voice.Voice, 0, len(cat.Voices))
	for _, v := range cat.Voices {
		if v.ID == "" {
			return nil, fmt.Errorf("voice catalog %s contains an empty id", path)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}
		seen[v.ID] = true

		if v.Lang == "" {
			return nil, fmt.Errorf("voice %q has no language tag", v.ID)
		}
		if v.Name == "" {
			v.Name = v.ID
		}
		voices = append(voices, v)
	}

	return voices, nil
}
