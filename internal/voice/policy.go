package voice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy controls which voices are offered and how one is picked when a
// document declares its language. The intent of the allow-lists is to prefer
// known high-quality voices over the noise of a full platform catalog; the
// exact entries are configuration, not contract.
type Policy struct {
	// Locales is the language-tag allow-list for the voice menu.
	Locales []string `yaml:"locales"`
	// Names is the display-name substring allow-list.
	Names []string `yaml:"names"`
	// PrimaryFallback is the primary language subtag assumed when a
	// document declares no language.
	PrimaryFallback string `yaml:"primary_fallback"`
	// DefaultLocale is handed to the synthesizer when no selected voice
	// resolves, letting the platform pick.
	DefaultLocale string `yaml:"default_locale"`
}

// DefaultPolicy returns the compiled-in policy, tuned to the bundled voice
// catalog plus common platform voice families.
func DefaultPolicy() Policy {
	return Policy{
		Locales: []string{"en-US", "en-GB", "en-AU", "de-DE", "fr-FR", "es-ES"},
		Names: []string{
			"Amy", "Ryan", "Alan", "Eva", "Siwis", "Davefx",
			"Google", "Samantha", "Daniel",
		},
		PrimaryFallback: "en",
		DefaultLocale:   "en-US",
	}
}

// LoadPolicy reads a YAML policy file. Empty allow-lists in the file mean
// "allow everything"; the scalar fallbacks default when absent.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read voice policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("decode voice policy: %w", err)
	}

	def := DefaultPolicy()
	if p.PrimaryFallback == "" {
		p.PrimaryFallback = def.PrimaryFallback
	}
	if p.DefaultLocale == "" {
		p.DefaultLocale = def.DefaultLocale
	}
	return p, nil
}
