package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExpandInputs expands a list of file paths and glob patterns into a sorted,
// deduplicated list of input files. "-" (stdin) is passed through and must be
// the only input. A pattern that matches nothing and does not name an
// existing file is an error, so typos surface before any work is done.
func ExpandInputs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no input given")
	}

	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		if pattern == StdinPath {
			if len(patterns) > 1 {
				return nil, fmt.Errorf("stdin (%q) cannot be combined with other inputs", StdinPath)
			}
			return []string{StdinPath}, nil
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("input %q: %w", pattern, err)
			}
			matches = []string{pattern}
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)

	return result, nil
}
