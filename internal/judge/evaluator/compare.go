package evaluator

import "strings"

// OutputsMatch compares actual program output against the expected output.
// Trailing whitespace on each line and a single trailing newline are
// ignored; every other difference, including internal whitespace, line
// ordering and case, is significant.
func OutputsMatch(actual, expected string) bool {
	return normalize(actual) == normalize(expected)
}

func normalize(s string) string {
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(lines, "\n")
}
