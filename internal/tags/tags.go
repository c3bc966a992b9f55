// Package tags cleans user-entered dataset tags: it finds near-duplicate
// spellings (Levenshtein distance exactly 1), groups them transitively, and
// rewrites clip metadata so each group collapses to one canonical spelling.
package tags

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Metadata is clip metadata keyed by clip id. Each clip is kept as raw JSON
// fields so rewriting tags preserves everything else untouched.
type Metadata map[string]map[string]json.RawMessage

// LoadMetadata reads a clip metadata JSON file.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return md, nil
}

// Save writes the metadata to path.
func (md Metadata) Save(path string) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func clipTags(clip map[string]json.RawMessage) ([]string, error) {
	raw, ok := clip["tags"]
	if !ok {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	return tags, nil
}

// UniqueTags collects the sorted set of all tags across clips.
func (md Metadata) UniqueTags() ([]string, error) {
	set := make(map[string]bool)
	for id, clip := range md {
		tags, err := clipTags(clip)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", id, err)
		}
		for _, t := range tags {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// TagFrequency counts tag occurrences across all clips.
func (md Metadata) TagFrequency() (map[string]int, error) {
	freq := make(map[string]int)
	for id, clip := range md {
		tags, err := clipTags(clip)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", id, err)
		}
		for _, t := range tags {
			freq[t]++
		}
	}
	return freq, nil
}

// Cleanable filters tags worth typo-checking: at least 4 runes and not a
// pure number.
func Cleanable(tags []string) []string {
	var out []string
	for _, t := range tags {
		if len([]rune(t)) < 4 {
			continue
		}
		if isNumber(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FindGroups walks all tag pairs at Levenshtein distance exactly 1 and builds
// transitive groups of the pairs decide accepts. Pairs whose tags already
// share a group are skipped without asking. Group members keep sorted order.
func FindGroups(tags []string, decide func(a, b string) bool) [][]string {
	groupOf := make(map[string]int)
	var groups [][]string

	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			a, b := tags[i], tags[j]
			ga, aOK := groupOf[a]
			gb, bOK := groupOf[b]
			if aOK && bOK && ga == gb {
				continue
			}
			if levenshtein.Distance(a, b, nil) != 1 {
				continue
			}
			if !decide(a, b) {
				continue
			}
			switch {
			case !aOK && !bOK:
				groups = append(groups, []string{a, b})
				groupOf[a] = len(groups) - 1
				groupOf[b] = len(groups) - 1
			case aOK && !bOK:
				groups[ga] = append(groups[ga], b)
				groupOf[b] = ga
			case !aOK && bOK:
				groups[gb] = append(groups[gb], a)
				groupOf[a] = gb
			default:
				// merge b's group into a's
				for _, t := range groups[gb] {
					groupOf[t] = ga
				}
				groups[ga] = append(groups[ga], groups[gb]...)
				groups[gb] = nil
			}
		}
	}

	var out [][]string
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		sort.Strings(g)
		out = append(out, g)
	}
	return out
}

// Canonical picks a group's surviving spelling: the most frequent member,
// ties broken by the lexicographically smallest.
func Canonical(group []string, freq map[string]int) string {
	best := group[0]
	for _, t := range group[1:] {
		if freq[t] > freq[best] || (freq[t] == freq[best] && t < best) {
			best = t
		}
	}
	return best
}

// Mapping flattens groups into an old-spelling to canonical-spelling map.
// Canonical spellings themselves are not mapped.
func Mapping(groups [][]string, freq map[string]int) map[string]string {
	mapping := make(map[string]string)
	for _, g := range groups {
		canon := Canonical(g, freq)
		for _, t := range g {
			if t != canon {
				mapping[t] = canon
			}
		}
	}
	return mapping
}

// Rewrite applies the mapping to every clip's tags, dropping duplicates a
// merge may introduce. It returns the number of clips changed.
func (md Metadata) Rewrite(mapping map[string]string) (int, error) {
	changed := 0
	for id, clip := range md {
		tags, err := clipTags(clip)
		if err != nil {
			return changed, fmt.Errorf("clip %s: %w", id, err)
		}
		if len(tags) == 0 {
			continue
		}
		dirty := false
		seen := make(map[string]bool)
		var out []string
		for _, t := range tags {
			if canon, ok := mapping[t]; ok {
				t = canon
				dirty = true
			}
			if seen[t] {
				dirty = true
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
		if !dirty {
			continue
		}
		raw, err := json.Marshal(out)
		if err != nil {
			return changed, fmt.Errorf("clip %s: %w", id, err)
		}
		clip["tags"] = raw
		changed++
	}
	return changed, nil
}

// ExportGroups writes one pipe-joined line per group.
func ExportGroups(path string, groups [][]string) error {
	var sb strings.Builder
	for _, g := range groups {
		sb.WriteString(strings.Join(g, "|"))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write groups: %w", err)
	}
	return nil
}

// ExportMapping writes the old-to-canonical spelling map as JSON.
func ExportMapping(path string, mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}
