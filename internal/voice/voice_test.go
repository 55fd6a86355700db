package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/zbeam/zbeam/internal/errors"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
}

func profileYAML(id int) string {
	return fmt.Sprintf(`author_id: %d
name: Author %d
country: USA
avg_words_per_sentence: 16
sentence_distribution:
  short: 0.3
  medium: 0.5
  long: 0.2
sentence_patterns:
  - starts with a concrete observation
vocabulary:
  - plain industrial terms
`, id, id)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 4; i++ {
		writeProfile(t, dir, fmt.Sprintf("author_%d.yaml", i), profileYAML(i))
	}

	reg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if reg.PoolSize() != 4 {
		t.Errorf("PoolSize = %d, want 4", reg.PoolSize())
	}

	p, err := reg.Get(2)
	if err != nil {
		t.Fatalf("Get(2) failed: %v", err)
	}
	if p.AvgWordsPerSentence != 16 {
		t.Errorf("AvgWordsPerSentence = %v, want 16", p.AvgWordsPerSentence)
	}
}

func TestLoadDir_UnknownAuthor(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "author_1.yaml", profileYAML(1))

	reg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if _, err := reg.Get(9); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get(9) error = %v, want NOT_FOUND", err)
	}
}

func TestLoadDir_InvalidProfiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "author_id: 1\navg_words_per_sentence: 16\nsentence_distribution: {short: 0.3, medium: 0.5, long: 0.2}\n"},
		{"zero words per sentence", "author_id: 1\nname: A\nsentence_distribution: {short: 0.3, medium: 0.5, long: 0.2}\n"},
		{"distribution does not sum", "author_id: 1\nname: A\navg_words_per_sentence: 16\nsentence_distribution: {short: 0.5, medium: 0.5, long: 0.5}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProfile(t, dir, "bad.yaml", tt.content)

			if _, err := LoadDir(dir); !errors.Is(err, errors.ErrConfigInvalid) {
				t.Errorf("LoadDir error = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestLoadDir_NonContiguousAuthorIDs(t *testing.T) {
	// Hash rotation maps materials onto 1..PoolSize, so a registry with a
	// gap would hand out author IDs that no profile covers.
	dir := t.TempDir()
	for i := 2; i <= 5; i++ {
		writeProfile(t, dir, fmt.Sprintf("author_%d.yaml", i), profileYAML(i))
	}

	if _, err := LoadDir(dir); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("LoadDir error = %v, want CONFIG_INVALID for ids 2..5", err)
	}
}

func TestLoadDir_DuplicateAuthorID(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.yaml", profileYAML(1))
	writeProfile(t, dir, "b.yaml", profileYAML(1))

	if _, err := LoadDir(dir); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("LoadDir error = %v, want CONFIG_INVALID for duplicate id", err)
	}
}

func TestLoadDir_EmptyDir(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("LoadDir error = %v, want CONFIG_INVALID for empty dir", err)
	}
}
