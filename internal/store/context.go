package store

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// priorityProperties is the fixed-order whitelist of properties worth
// surfacing in a prompt context. At most five are included.
var priorityProperties = []string{
	"density",
	"melting_point",
	"thermal_conductivity",
	"reflectivity",
	"hardness",
	"corrosion_resistance",
	"surface_roughness",
}

const (
	maxContextProperties  = 5
	descriptionTruncation = 200
)

// AuthorID returns the material's explicit author_id when present, otherwise
// a deterministic hash-based rotation over the author pool. The same material
// name always maps to the same author across runs.
func AuthorID(name string, item map[string]any, poolSize int) int {
	if raw, ok := item["author_id"]; ok {
		switch v := raw.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}

	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32())%poolSize + 1
}

// BuildContext assembles a deterministic, order-preserving context string
// from a whitelisted set of item fields.
func BuildContext(item map[string]any) string {
	var parts []string

	if category := stringField(item, "category"); category != "" {
		parts = append(parts, "Category: "+category)
	}
	if sub := stringField(item, "subcategory"); sub != "" {
		parts = append(parts, "Subcategory: "+sub)
	}
	if desc := stringField(item, "description"); desc != "" {
		// Truncate on a rune boundary so a multi-byte character is never
		// split into an invalid sequence.
		if r := []rune(desc); len(r) > descriptionTruncation {
			desc = string(r[:descriptionTruncation]) + "..."
		}
		parts = append(parts, "Description: "+desc)
	}

	if props, ok := item["properties"].(map[string]any); ok {
		count := 0
		for _, key := range priorityProperties {
			if count >= maxContextProperties {
				break
			}
			if val, ok := props[key]; ok {
				parts = append(parts, fmt.Sprintf("%s: %v", titleCase(key), val))
				count++
			}
		}
	}

	return strings.Join(parts, ". ")
}

// FormatFacts renders the material's properties and machine settings as
// bullet lines with deterministic key ordering.
func FormatFacts(item map[string]any) string {
	var b strings.Builder

	appendSection := func(label string, fields map[string]any) {
		if len(fields) == 0 {
			return
		}
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteString(label + ":\n")
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", key, fields[key])
		}
	}

	if props, ok := item["properties"].(map[string]any); ok {
		appendSection("Properties", props)
	}
	if settings, ok := item["machine_settings"].(map[string]any); ok {
		appendSection("Machine settings", settings)
	}

	return strings.TrimRight(b.String(), "\n")
}

func stringField(item map[string]any, key string) string {
	if v, ok := item[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
