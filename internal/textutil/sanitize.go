package textutil

import (
	"regexp"
	"strings"
)

// fallbackFileName is used when nothing of the input survives sanitization.
const fallbackFileName = "file"

var disallowedFileRunes = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFilename converts name into a filename made only of [A-Za-z0-9._-].
// Each run of other characters becomes a single underscore, underscores are
// trimmed from both edges, and an empty result becomes "file".
func SafeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = disallowedFileRunes.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return fallbackFileName
	}
	return name
}
