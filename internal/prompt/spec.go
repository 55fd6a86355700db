// Package prompt assembles generation prompts: static component and domain
// tables, word/sentence-count targets, voice guidance, and retry escalation.
// Everything here is a pure function of its inputs.
package prompt

import (
	"github.com/zbeam/zbeam/internal/errors"
)

// ComponentSpec holds per-component length targets and formatting rules.
type ComponentSpec struct {
	// Word-count bounds; a target is drawn uniformly from [MinWords, MaxWords].
	DefaultWords int
	MinWords     int
	MaxWords     int

	// FormatRule is the structural instruction appended to the prompt.
	FormatRule string

	// TargetChars is the expected character footprint of one item, used to
	// size batches against the detector's minimum text length.
	TargetChars int
}

// componentSpecs is the static in-memory table of supported components.
var componentSpecs = map[string]ComponentSpec{
	"subtitle": {
		DefaultWords: 12,
		MinWords:     8,
		MaxWords:     18,
		FormatRule:   "Write a single sentence. No heading, no quotes, no trailing period commentary.",
		TargetChars:  110,
	},
	"description": {
		DefaultWords: 120,
		MinWords:     90,
		MaxWords:     160,
		FormatRule:   "Write flowing paragraphs of plain prose. No lists, no headings.",
		TargetChars:  850,
	},
	"caption": {
		DefaultWords: 60,
		MinWords:     40,
		MaxWords:     80,
		FormatRule: "Write two labelled sections: '**BEFORE_TEXT:**' describing the contaminated " +
			"surface and '**AFTER_TEXT:**' describing the cleaned surface.",
		TargetChars: 420,
	},
	"faq": {
		DefaultWords: 150,
		MinWords:     100,
		MaxWords:     200,
		FormatRule: "Answer as a JSON array of objects with \"question\" and \"answer\" string fields. " +
			"Output the array only.",
		TargetChars: 1000,
	},
	"safety": {
		DefaultWords: 80,
		MinWords:     60,
		MaxWords:     110,
		FormatRule:   "Write practical safety guidance in plain prose. No lists.",
		TargetChars:  550,
	},
}

// SpecFor looks up the ComponentSpec for a component type.
func SpecFor(componentType string) (ComponentSpec, error) {
	spec, ok := componentSpecs[componentType]
	if !ok {
		return ComponentSpec{}, errors.NewInvalidRequest("unknown component type: " + componentType)
	}
	return spec, nil
}

// ComponentTypes returns the supported component type names.
func ComponentTypes() []string {
	return []string{"subtitle", "description", "caption", "faq", "safety"}
}

// DomainContext anchors prompts in a subject domain.
type DomainContext struct {
	Name     string
	Audience string
	Guidance string
}

var domainContexts = map[string]DomainContext{
	"laser-cleaning": {
		Name:     "laser-cleaning",
		Audience: "industrial engineers and procurement leads evaluating laser surface cleaning",
		Guidance: "Ground every claim in the material's physical properties and realistic machine settings. " +
			"Avoid marketing superlatives.",
	},
}

// DefaultDomain is used when no domain is specified.
const DefaultDomain = "laser-cleaning"

// DomainFor looks up the DomainContext for a domain name.
func DomainFor(domain string) (DomainContext, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	ctx, ok := domainContexts[domain]
	if !ok {
		return DomainContext{}, errors.NewInvalidRequest("unknown domain: " + domain)
	}
	return ctx, nil
}
