package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sndx/internal/services"
)

// AuthorSeparator splits the authors entry of a notice.
const AuthorSeparator = "<br/>"

// RecordingMetadata describes one portal recording.
type RecordingMetadata struct {
	URL      string
	Category string
	Title    string
	Subtitle string
	Code     string
	Date     string
	Place    string
	Authors  []string
	Duration time.Duration
}

// FileTitle is the title used to name the recording file.
func (m RecordingMetadata) FileTitle() string {
	if strings.TrimSpace(m.Title) == "" {
		return "no-title"
	}
	return m.Title
}

// ParseDuration reads "H:MM:SS" or "MM:SS". Tokens must be non-negative
// integers; minutes and seconds are not range checked. Totals that do not
// fit in a time.Duration are rejected.
func ParseDuration(text string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, services.Wrap(services.ErrFormat, "metadata", "parse duration",
			fmt.Sprintf("%q: expected H:MM:SS or MM:SS", text), nil)
	}
	values := make([]int64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, services.Wrap(services.ErrFormat, "metadata", "parse duration",
				fmt.Sprintf("%q: token %q is not a non-negative integer", text, part), nil)
		}
		values[i] = int64(v)
	}
	var hours, minutes, seconds int64
	if len(values) == 3 {
		hours, minutes, seconds = values[0], values[1], values[2]
	} else {
		minutes, seconds = values[0], values[1]
	}
	total := hours*3600 + minutes*60 + seconds
	if total > math.MaxInt64/int64(time.Second) {
		return 0, services.Wrap(services.ErrFormat, "metadata", "parse duration",
			fmt.Sprintf("%q: duration out of range", text), nil)
	}
	return time.Duration(total) * time.Second, nil
}

// SplitAuthors splits raw on AuthorSeparator and trims every entry.
func SplitAuthors(raw string) []string {
	parts := strings.Split(raw, AuthorSeparator)
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		authors = append(authors, strings.TrimSpace(p))
	}
	return authors
}
