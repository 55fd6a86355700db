// Package export renders the materials document into per-material Markdown
// files with YAML frontmatter, optionally with an HTML preview of each file.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/zbeam/zbeam/internal/errors"
	"github.com/zbeam/zbeam/internal/prompt"
	"github.com/zbeam/zbeam/internal/store"
)

// Input contains parameters for the Export operation.
type Input struct {
	Dir       string   // destination directory, created if missing
	Materials []string // optional filter; empty exports every material
	Preview   bool     // also write an HTML rendering next to each .md file
}

// Output contains the result of the Export operation.
type Output struct {
	Dir        string   `json:"dir"`
	Files      []string `json:"files"`
	Count      int      `json:"count"`
	ExportedAt int64    `json:"exported_at"`
}

// Export writes one Markdown file per material. Generated components become
// body sections; everything else lands in the frontmatter block. Files are
// written through a temp file and rename so a failed run never leaves a
// half-written export behind.
func Export(st *store.Store, input Input) (*Output, error) {
	if input.Dir == "" {
		return nil, errors.NewInvalidRequest("export directory is required")
	}
	if err := os.MkdirAll(input.Dir, 0o755); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create export directory: %w", err))
	}

	materials := input.Materials
	if len(materials) == 0 {
		materials = st.Items()
	}

	out := &Output{Dir: input.Dir, ExportedAt: time.Now().Unix()}
	for _, name := range materials {
		item, err := st.ItemData(name)
		if err != nil {
			return nil, err
		}

		md, err := renderMaterial(name, item)
		if err != nil {
			return nil, err
		}

		base := sanitizeFilename(name)
		mdPath := filepath.Join(input.Dir, base+".md")
		if err := writeAtomic(mdPath, []byte(md)); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, mdPath)

		if input.Preview {
			htmlPath := filepath.Join(input.Dir, base+".html")
			html, err := renderPreview(md)
			if err != nil {
				return nil, err
			}
			if err := writeAtomic(htmlPath, html); err != nil {
				return nil, err
			}
			out.Files = append(out.Files, htmlPath)
		}
		out.Count++
	}
	return out, nil
}

// renderMaterial builds one material's Markdown document: a frontmatter
// block of source data, then a section per generated component.
func renderMaterial(name string, item map[string]any) (string, error) {
	components := map[string]any{}
	front := map[string]any{"material": name}
	for k, v := range item {
		if isComponentKey(k) {
			components[k] = v
		} else {
			front[k] = v
		}
	}

	frontYAML, err := yaml.Marshal(front)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("marshal frontmatter for %s: %w", name, err))
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(frontYAML)
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "# %s\n", name)

	for _, ct := range prompt.ComponentTypes() {
		value, ok := components[ct]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", headingFor(ct))
		writeComponentBody(&sb, ct, value)
	}
	return sb.String(), nil
}

// writeComponentBody renders one component value. Values come back from the
// YAML document as plain maps and slices, not the typed structs they were
// written as.
func writeComponentBody(sb *strings.Builder, componentType string, value any) {
	switch store.FormatFor(componentType) {
	case store.FormatBeforeAfter:
		m, ok := value.(map[string]any)
		if !ok {
			fmt.Fprintf(sb, "%v\n", value)
			return
		}
		fmt.Fprintf(sb, "**Before:** %v\n\n", m["before_text"])
		fmt.Fprintf(sb, "**After:** %v\n", m["after_text"])
	case store.FormatQA:
		entries, ok := value.([]any)
		if !ok {
			fmt.Fprintf(sb, "%v\n", value)
			return
		}
		for i, e := range entries {
			qa, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(sb, "### %v\n\n%v\n", qa["question"], qa["answer"])
		}
	default:
		fmt.Fprintf(sb, "%v\n", value)
	}
}

// renderPreview converts a Markdown document to a standalone HTML page.
func renderPreview(md string) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("render preview: %w", err))
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// writeAtomic writes data through a temp file in the destination directory
// and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.NewInternal(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.NewInternal(fmt.Errorf("write export file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("sync export file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("close export file: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("finalize export file: %w", err))
	}
	success = true
	return nil
}

func isComponentKey(key string) bool {
	for _, ct := range prompt.ComponentTypes() {
		if key == ct {
			return true
		}
	}
	return false
}

// headingFor maps a component type to its section heading.
func headingFor(componentType string) string {
	parts := strings.Split(componentType, "_")
	for i, p := range parts {
		if p == "faq" {
			parts[i] = "FAQ"
			continue
		}
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// sanitizeFilename lowercases the material name and replaces anything
// outside [a-z0-9._-] with a hyphen.
func sanitizeFilename(name string) string {
	lower := strings.ToLower(name)
	out := make([]rune, 0, len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	s := strings.Trim(string(out), "-")
	if s == "" {
		s = "material"
	}
	return s
}
