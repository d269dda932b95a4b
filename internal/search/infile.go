package search

import (
	"regexp"
	"strings"

	"codescope/internal/errors"
)

// SearchInFile scans src line by line for pattern and returns the
// first match on each matching line. In substring mode matching is
// case-insensitive unless caseSensitive is set; in regex mode the
// pattern governs its own case handling.
func SearchInFile(src []byte, pattern string, caseSensitive, regex bool) ([]FileMatch, error) {
	lines := strings.Split(string(src), "\n")
	matches := []FileMatch{}

	if regex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.SearchFailed("invalid regex pattern", err)
		}
		for i, line := range lines {
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			matches = append(matches, FileMatch{
				LineNumber:  i + 1,
				LineContent: strings.TrimRight(line, " \t\r\n"),
				MatchStart:  loc[0],
			})
		}
		return matches, nil
	}

	needle := pattern
	if !caseSensitive {
		needle = strings.ToLower(pattern)
	}
	for i, line := range lines {
		haystack := line
		if !caseSensitive {
			haystack = strings.ToLower(line)
		}
		start := strings.Index(haystack, needle)
		if start < 0 {
			continue
		}
		matches = append(matches, FileMatch{
			LineNumber:  i + 1,
			LineContent: strings.TrimRight(line, " \t\r\n"),
			MatchStart:  start,
		})
	}
	return matches, nil
}
