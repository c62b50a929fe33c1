// Package profile holds the domain tables that bias header detection and
// relevance boosting. The segmenter and ranker only see a Profile, so a new
// domain is a new YAML file rather than a code change.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed travel.yaml
var travelYAML []byte

// Headers configures the header detection predicate.
type Headers struct {
	Vocabulary      []string `yaml:"vocabulary"`
	NumberedPattern string   `yaml:"numbered_pattern"`
	MaxLength       int      `yaml:"max_length"`
	MaxWords        int      `yaml:"max_words"`

	numbered *regexp.Regexp
}

// Numbered returns the compiled numbered-heading pattern, or nil if unset.
func (h Headers) Numbered() *regexp.Regexp { return h.numbered }

// Boost configures the multiplicative relevance boosts.
type Boost struct {
	TitleKeywords []string `yaml:"title_keywords"`
	TitleFactor   float64  `yaml:"title_factor"`
	Pattern       string   `yaml:"pattern"`
	PatternFactor float64  `yaml:"pattern_factor"`
	Phrases       []string `yaml:"phrases"`
	PhraseFactor  float64  `yaml:"phrase_factor"`
	Max           float64  `yaml:"max"`

	pattern *regexp.Regexp
}

// TextPattern returns the compiled text pattern, or nil if unset.
func (b Boost) TextPattern() *regexp.Regexp { return b.pattern }

// Profile is a named set of domain tables.
type Profile struct {
	Name          string  `yaml:"name"`
	Headers       Headers `yaml:"headers"`
	Boost         Boost   `yaml:"boost"`
	QueryTemplate string  `yaml:"query_template"`
}

// Default returns the built-in travel profile.
func Default() *Profile {
	p, err := Parse(travelYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded travel profile: %v", err))
	}
	return p
}

// Load reads a profile from a YAML file. An empty path yields Default().
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile, applies defaults and compiles its patterns.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	p.applyDefaults()
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.Name == "" {
		p.Name = "custom"
	}
	if p.Headers.MaxLength <= 0 {
		p.Headers.MaxLength = 100
	}
	if p.Headers.MaxWords <= 0 {
		p.Headers.MaxWords = 6
	}
	if p.Boost.TitleFactor == 0 {
		p.Boost.TitleFactor = 1
	}
	if p.Boost.PatternFactor == 0 {
		p.Boost.PatternFactor = 1
	}
	if p.Boost.PhraseFactor == 0 {
		p.Boost.PhraseFactor = 1
	}
	if p.Boost.Max == 0 {
		p.Boost.Max = 2.5
	}
	if p.QueryTemplate == "" {
		p.QueryTemplate = "{persona}. {task}"
	}
	p.Headers.Vocabulary = normalizeTerms(p.Headers.Vocabulary)
	p.Boost.TitleKeywords = normalizeTerms(p.Boost.TitleKeywords)
	for i, ph := range p.Boost.Phrases {
		p.Boost.Phrases[i] = strings.ToLower(ph)
	}
}

func (p *Profile) compile() error {
	if p.Boost.TitleFactor < 1 || p.Boost.PatternFactor < 1 || p.Boost.PhraseFactor < 1 {
		return fmt.Errorf("boost factors must be >= 1")
	}
	if p.Boost.Max < 1 {
		return fmt.Errorf("boost max must be >= 1, got %g", p.Boost.Max)
	}
	if p.Headers.NumberedPattern != "" {
		re, err := regexp.Compile(p.Headers.NumberedPattern)
		if err != nil {
			return fmt.Errorf("numbered_pattern: %w", err)
		}
		p.Headers.numbered = re
	}
	if p.Boost.Pattern != "" {
		re, err := regexp.Compile(p.Boost.Pattern)
		if err != nil {
			return fmt.Errorf("boost pattern: %w", err)
		}
		p.Boost.pattern = re
	}
	return nil
}

// Query fills the profile's query template with persona and task.
func (p *Profile) Query(persona, task string) string {
	return FillQuery(p.QueryTemplate, persona, task)
}

// FillQuery substitutes {persona} and {task} in tmpl.
func FillQuery(tmpl, persona, task string) string {
	return strings.NewReplacer("{persona}", persona, "{task}", task).Replace(tmpl)
}

// normalizeTerms lowercases terms and drops empties and duplicates, keeping
// first-seen order. Phrases are left alone since their spacing is significant.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
