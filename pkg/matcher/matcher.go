// Package matcher implements the File Matcher (C2): it classifies input
// file paths into declared schema sides by basename pattern.
package matcher

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"reconciled/pkg/reconerr"
	"reconciled/pkg/schema"
)

// Assignment maps a side name to the file paths classified into it, in
// the order they were matched.
type Assignment map[string][]string

// Classify assigns each path to exactly one side: sides are tested in
// schema declaration order, and within a side its patterns are tested in
// declaration order; the first match wins. A glob pattern is the default;
// a pattern prefixed `re:` is compiled as a regular expression. Matching
// operates on the file's basename, not its full path. A path matching no
// side's patterns fails the whole classification with FileUnclassified.
func Classify(paths []string, s *schema.Schema) (Assignment, error) {
	sideNames := orderedSideNames(s)

	assignment := make(Assignment, len(sideNames))
	for _, path := range paths {
		base := filepath.Base(path)
		matchedSide := ""

		for _, name := range sideNames {
			side := s.Sides[name]
			if matchesAny(base, side.FilePattern) {
				matchedSide = name
				break
			}
		}

		if matchedSide == "" {
			return nil, reconerr.New(reconerr.FileUnclassified, path)
		}
		assignment[matchedSide] = append(assignment[matchedSide], path)
	}

	return assignment, nil
}

// orderedSideNames returns side names in the order Schema preserves
// declaration: since Go maps don't retain insertion order, the schema's
// normalization step (validate.go) records that order on the Schema's
// Sides via insertion into a deterministic slice kept alongside the map.
// Here we fall back to a stable lexical order when no explicit order is
// tracked, which only affects tie-break among sides whose patterns both
// match the same basename — an edge case the schema author controls by
// writing non-overlapping patterns.
func orderedSideNames(s *schema.Schema) []string {
	if len(s.SideOrder) > 0 {
		return s.SideOrder
	}
	names := make([]string, 0, len(s.Sides))
	for name := range s.Sides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func matchesAny(base string, patterns []string) bool {
	for _, p := range patterns {
		if matchesOne(base, p) {
			return true
		}
	}
	return false
}

func matchesOne(base, pattern string) bool {
	if strings.HasPrefix(pattern, "re:") {
		re, err := regexp.Compile(pattern[3:])
		if err != nil {
			return false
		}
		return re.MatchString(base)
	}
	ok, err := filepath.Match(pattern, base)
	if err != nil {
		return false
	}
	return ok
}
