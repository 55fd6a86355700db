// Package voice loads per-author voice profiles: the linguistic traits that
// bias generated prose toward a particular writer's style. Profiles are
// validated once at load and treated as immutable afterwards.
package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zbeam/zbeam/internal/errors"
)

// Distribution is the share of short/medium/long sentences an author writes.
// Shares must sum to 1 within a small tolerance.
type Distribution struct {
	Short  float64 `yaml:"short"`
	Medium float64 `yaml:"medium"`
	Long   float64 `yaml:"long"`
}

// Profile describes one author's voice. Required fields are validated at
// load time rather than defended with fallbacks at every use site.
type Profile struct {
	AuthorID int    `yaml:"author_id"`
	Name     string `yaml:"name"`
	Country  string `yaml:"country"`

	// AvgWordsPerSentence drives sentence-count targets in prompts.
	AvgWordsPerSentence float64      `yaml:"avg_words_per_sentence"`
	Distribution        Distribution `yaml:"sentence_distribution"`

	// Optional trait lists woven into prompt guidance.
	SentencePatterns []string `yaml:"sentence_patterns,omitempty"`
	Vocabulary       []string `yaml:"vocabulary,omitempty"`
	GrammarNorms     []string `yaml:"grammar_norms,omitempty"`
}

func (p *Profile) validate(source string) error {
	if p.AuthorID < 1 {
		return errors.NewConfigInvalid(source, "author_id must be >= 1")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewConfigInvalid(source, "name is required")
	}
	if p.AvgWordsPerSentence <= 0 {
		return errors.NewConfigInvalid(source, "avg_words_per_sentence must be > 0")
	}
	sum := p.Distribution.Short + p.Distribution.Medium + p.Distribution.Long
	if sum < 0.99 || sum > 1.01 {
		return errors.NewConfigInvalid(source, fmt.Sprintf("sentence_distribution must sum to 1, got %.2f", sum))
	}
	return nil
}

// Registry holds all loaded profiles keyed by author ID.
type Registry struct {
	profiles map[int]*Profile
}

// LoadDir parses every *.yaml file in dir as a voice profile. Duplicate
// author IDs and invalid profiles fail the whole load. Author IDs must form
// a contiguous 1..N range: hash rotation maps materials onto exactly that
// range, so a gap would make valid materials unresolvable.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewConfigInvalid("voice_dir", err.Error())
	}

	profiles := make(map[int]*Profile)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewConfigInvalid(path, err.Error())
		}

		p := &Profile{}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, errors.NewConfigInvalid(path, "malformed YAML: "+err.Error())
		}
		if err := p.validate(path); err != nil {
			return nil, err
		}
		if _, exists := profiles[p.AuthorID]; exists {
			return nil, errors.NewConfigInvalid(path, fmt.Sprintf("duplicate author_id %d", p.AuthorID))
		}
		profiles[p.AuthorID] = p
	}

	if len(profiles) == 0 {
		return nil, errors.NewConfigInvalid("voice_dir", "no voice profiles found in "+dir)
	}
	for id := 1; id <= len(profiles); id++ {
		if _, ok := profiles[id]; !ok {
			return nil, errors.NewConfigInvalid("voice_dir",
				fmt.Sprintf("author IDs must form 1..%d, missing %d", len(profiles), id))
		}
	}

	return &Registry{profiles: profiles}, nil
}

// Get returns the profile for the given author ID.
func (r *Registry) Get(authorID int) (*Profile, error) {
	p, ok := r.profiles[authorID]
	if !ok {
		return nil, errors.NewNotFound(fmt.Sprintf("author %d", authorID))
	}
	return p, nil
}

// PoolSize is the number of loaded authors, used for hash-based rotation.
func (r *Registry) PoolSize() int {
	return len(r.profiles)
}

// AuthorIDs returns the loaded author IDs in ascending order.
func (r *Registry) AuthorIDs() []int {
	ids := make([]int, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
