package sitegen

import (
	"regexp"
	"strings"
)

var underscoreRuns = regexp.MustCompile(`_+`)

// Slugify makes a facet key safe as a path segment: path-hostile characters
// and spaces become underscores, runs collapse, and the result is capped at
// 120 bytes. An empty key slugs to "unknown".
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	repl := strings.NewReplacer(
		`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
		`"`, "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	s = underscoreRuns.ReplaceAllString(repl.Replace(s), "_")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
