package store

import (
	"encoding/json"
	"strings"

	"github.com/zbeam/zbeam/internal/errors"
)

// Format describes how a component's content is structured in model output.
type Format string

const (
	// FormatText is a plain prose passthrough.
	FormatText Format = "text"
	// FormatBeforeAfter is a marker-delimited before/after caption pair.
	FormatBeforeAfter Format = "before_after"
	// FormatQA is a JSON array of question/answer objects.
	FormatQA Format = "qa"
)

// componentFormats maps component types to their extraction format.
// Unknown component types default to plain text.
var componentFormats = map[string]Format{
	"subtitle":    FormatText,
	"description": FormatText,
	"safety":      FormatText,
	"caption":     FormatBeforeAfter,
	"faq":         FormatQA,
}

// FormatFor returns the extraction format for a component type.
func FormatFor(componentType string) Format {
	if f, ok := componentFormats[componentType]; ok {
		return f
	}
	return FormatText
}

// Caption is a before/after cleaning caption pair.
type Caption struct {
	Before string `yaml:"before_text" json:"before_text"`
	After  string `yaml:"after_text" json:"after_text"`
}

// QA is one FAQ entry.
type QA struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

const (
	beforeMarker = "**BEFORE_TEXT:**"
	afterMarker  = "**AFTER_TEXT:**"
)

// ExtractComponent parses raw model output into the typed value for a
// component. Missing structure is a hard EXTRACTION_FAILED, with one
// deliberate exception: captions without markers degrade to a
// paragraph-split heuristic when two paragraphs are present.
func ExtractComponent(raw, componentType string) (any, error) {
	switch FormatFor(componentType) {
	case FormatBeforeAfter:
		return extractBeforeAfter(raw, componentType)
	case FormatQA:
		return extractQA(raw, componentType)
	default:
		text := strings.TrimSpace(raw)
		if text == "" {
			return nil, errors.NewExtractionFailed(componentType, "empty output")
		}
		return text, nil
	}
}

func extractBeforeAfter(raw, componentType string) (any, error) {
	if bi := strings.Index(raw, beforeMarker); bi >= 0 {
		ai := strings.Index(raw, afterMarker)
		if ai < 0 || ai < bi {
			return nil, errors.NewExtractionFailed(componentType, "BEFORE_TEXT marker without AFTER_TEXT")
		}
		before := strings.TrimSpace(raw[bi+len(beforeMarker) : ai])
		after := strings.TrimSpace(raw[ai+len(afterMarker):])
		if before == "" || after == "" {
			return nil, errors.NewExtractionFailed(componentType, "empty marker section")
		}
		return Caption{Before: before, After: after}, nil
	}

	// Degraded mode: no markers, fall back to a paragraph split.
	paragraphs := splitParagraphs(raw)
	if len(paragraphs) >= 2 {
		return Caption{
			Before: paragraphs[0],
			After:  strings.Join(paragraphs[1:], "\n\n"),
		}, nil
	}
	return nil, errors.NewExtractionFailed(componentType, "no markers and fewer than two paragraphs")
}

func extractQA(raw, componentType string) (any, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, errors.NewExtractionFailed(componentType, "no JSON array found")
	}

	var entries []QA
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil, errors.NewExtractionFailed(componentType, "malformed JSON array: "+err.Error())
	}
	if len(entries) == 0 {
		return nil, errors.NewExtractionFailed(componentType, "empty Q&A list")
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, errors.NewExtractionFailed(componentType, "entry missing question or answer")
		}
	}
	return entries, nil
}

func splitParagraphs(raw string) []string {
	var paragraphs []string
	for _, block := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n\n") {
		if p := strings.TrimSpace(block); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
