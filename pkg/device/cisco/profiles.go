package cisco

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/commander/pkg/device"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// Profile describes the CLI dialect of one device kind.
type Profile struct {
	Prompt       string   `yaml:"prompt"`
	Paging       []string `yaml:"paging"`
	ConfigEnter  string   `yaml:"config_enter"`
	ConfigCommit string   `yaml:"config_commit,omitempty"`
	ConfigExit   string   `yaml:"config_exit"`
	ErrorMarkers []string `yaml:"error_markers"`

	prompt *regexp.Regexp
}

// Profiles maps each device kind to its dialect.
type Profiles map[device.Kind]*Profile

// DefaultProfiles returns the built-in profiles for every supported kind.
func DefaultProfiles() (Profiles, error) {
	return parseProfiles(defaultProfilesYAML)
}

// LoadProfiles returns the built-in profiles with per-kind overrides from
// path applied on top. An empty path yields the defaults.
func LoadProfiles(path string) (Profiles, error) {
	profiles, err := DefaultProfiles()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	overrides, err := parseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for kind, o := range overrides {
		profiles[kind] = profiles[kind].merge(o)
		if err := profiles[kind].compile(); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, kind, err)
		}
	}
	return profiles, nil
}

// Lookup returns the profile for kind.
func (p Profiles) Lookup(kind device.Kind) (*Profile, error) {
	prof, ok := p[kind]
	if !ok {
		return nil, fmt.Errorf("no CLI profile for device kind %q", kind)
	}
	return prof, nil
}

func parseProfiles(data []byte) (Profiles, error) {
	raw := map[string]*Profile{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	profiles := make(Profiles, len(raw))
	for name, prof := range raw {
		kind, err := device.ParseKind(name)
		if err != nil {
			return nil, err
		}
		if prof == nil {
			prof = &Profile{}
		}
		if prof.Prompt != "" {
			if err := prof.compile(); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		profiles[kind] = prof
	}
	return profiles, nil
}

// merge overlays the non-empty fields of o onto a copy of p.
func (p *Profile) merge(o *Profile) *Profile {
	out := &Profile{}
	if p != nil {
		*out = *p
	}
	if o.Prompt != "" {
		out.Prompt = o.Prompt
	}
	if o.Paging != nil {
		out.Paging = o.Paging
	}
	if o.ConfigEnter != "" {
		out.ConfigEnter = o.ConfigEnter
	}
	if o.ConfigCommit != "" {
		out.ConfigCommit = o.ConfigCommit
	}
	if o.ConfigExit != "" {
		out.ConfigExit = o.ConfigExit
	}
	if o.ErrorMarkers != nil {
		out.ErrorMarkers = o.ErrorMarkers
	}
	return out
}

func (p *Profile) compile() error {
	if p.Prompt == "" {
		return fmt.Errorf("prompt pattern required")
	}
	re, err := regexp.Compile(p.Prompt)
	if err != nil {
		return fmt.Errorf("prompt pattern: %w", err)
	}
	p.prompt = re
	return nil
}

// matchesPrompt reports whether line looks like a CLI prompt.
func (p *Profile) matchesPrompt(line string) bool {
	return p.prompt != nil && p.prompt.MatchString(line)
}

// rejected returns the first error marker present in output, or "".
func (p *Profile) rejected(output string) string {
	for _, m := range p.ErrorMarkers {
		if strings.Contains(output, m) {
			return m
		}
	}
	return ""
}
