package relay

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the optional static block injected into every assembled prompt.
type Profile struct {
	Name  string   `yaml:"name"`
	Bio   string   `yaml:"bio"`
	Notes []string `yaml:"notes"`
}

// LoadProfile reads the profile file at path. A missing file is not an error;
// it simply means no profile block.
func LoadProfile(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("relay: read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("relay: parse profile %s: %w", path, err)
	}
	if p.Name == "" && p.Bio == "" && len(p.Notes) == 0 {
		return nil, nil
	}
	return &p, nil
}

// Block renders the profile as a prompt section, empty if the profile is nil.
func (p *Profile) Block() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("About the user:")
	if p.Name != "" {
		b.WriteString("\n- Name: " + p.Name)
	}
	if p.Bio != "" {
		b.WriteString("\n- " + p.Bio)
	}
	for _, note := range p.Notes {
		note = strings.TrimSpace(note)
		if note != "" {
			b.WriteString("\n- " + note)
		}
	}
	return b.String()
}
