package page

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

type Placeholder string

const (
	Highlights   Placeholder = "{{HIGHLIGHTS}}"
	ReleaseNotes Placeholder = "{{RELEASE_NOTES}}"
	Videos       Placeholder = "{{VIDEOS}}"
	Links        Placeholder = "{{LINKS}}"
	WhatItMeans  Placeholder = "{{WHAT_IT_MEANS}}"
	Date         Placeholder = "{{DATE}}"
	GeneratedAt  Placeholder = "{{GENERATED_AT}}"
)

// Fragments maps a placeholder to the rendered fragments that replace it.
type Fragments map[Placeholder][]string

func (f Fragments) Add(p Placeholder, fragment ...string) {
	f[p] = append(f[p], fragment...)
}

func (f Fragments) Count(p Placeholder) int {
	return len(f[p])
}

func ReadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read page template %s: %w", path, err)
	}
	return string(data), nil
}

// Assemble replaces every occurrence of each placeholder in fragments with
// its newline-joined fragments. Substitution is a single pass: inserted
// text is never scanned for further tokens. Tokens without an entry are
// left untouched.
func Assemble(template string, fragments Fragments) string {
	keys := make([]Placeholder, 0, len(fragments))
	for p := range fragments {
		if p != "" {
			keys = append(keys, p)
		}
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, p := range keys {
		pairs = append(pairs, string(p), strings.Join(fragments[p], "\n"))
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

var tokenPattern = regexp.MustCompile(`\{\{[A-Z][A-Z0-9_]*\}\}`)

// Unreplaced reports the distinct placeholder-looking tokens still present.
func Unreplaced(page string) []string {
	found := tokenPattern.FindAllString(page, -1)
	slices.Sort(found)
	return slices.Compact(found)
}
