package profile

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// document is the on-disk form of a profile. A document may start from a
// preset and override any of its fields.
type document struct {
	Preset string `json:"preset,omitempty"`
	Profile
}

// Unmarshal decodes a YAML (or JSON) profile document.
func Unmarshal(data []byte) (Profile, error) {
	var head struct {
		Preset string `json:"preset"`
	}

	err := yaml.Unmarshal(data, &head)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}

	doc := document{}
	if head.Preset != "" {
		doc.Profile, err = Preset(head.Preset)
		if err != nil {
			return Profile{}, err
		}
	}

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}

	p := doc.Profile
	p.ApplyDefaults()

	err = p.Validate()
	if err != nil {
		return Profile{}, err
	}

	return p, nil
}

// LoadFile reads and decodes a profile document.
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}

	p, err := Unmarshal(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Marshal encodes a profile as YAML.
func Marshal(p Profile) ([]byte, error) {
	return yaml.Marshal(p)
}
