package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sndx/internal/browser"
	"sndx/internal/logging"
	"sndx/internal/services"
	"sndx/internal/textutil"
)

// detailFields are the ordered dd entries of the details list.
var detailFields = [...]string{"code", "date", "place", "authors", "duration"}

// Extractor reads RecordingMetadata from the current page.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor constructs an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logging.NewComponentLogger(logger, "metadata")}
}

// Extract returns a fully populated record or an error. Missing elements are
// services.ErrExtraction; an unreadable duration is services.ErrFormat.
func (e *Extractor) Extract(ctx context.Context, page browser.Page) (RecordingMetadata, error) {
	href, err := page.Location(ctx)
	if err != nil {
		return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", "location", "", err)
	}

	var md RecordingMetadata
	md.URL = href
	headings := []struct {
		name string
		loc  browser.Locator
		dst  *string
	}{
		{"category", browser.Category, &md.Category},
		{"title", browser.Title, &md.Title},
		{"subtitle", browser.Subtitle, &md.Subtitle},
	}
	for _, h := range headings {
		text, found, err := browser.FirstText(ctx, page, h.loc)
		if err != nil {
			return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", h.name, href, err)
		}
		if !found {
			return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", h.name, href+": element not found", nil)
		}
		*h.dst = textutil.Normalize(text)
	}

	details, err := page.QueryAll(ctx, browser.Details)
	if err != nil {
		return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", "details", href, err)
	}
	if len(details) < len(detailFields) {
		return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", "details",
			fmt.Sprintf("%s: expected %d entries, found %d", href, len(detailFields), len(details)), nil)
	}
	values := make([]string, len(detailFields))
	for i, name := range detailFields {
		text, err := page.TextContent(ctx, details[i])
		if err != nil {
			return RecordingMetadata{}, services.Wrap(services.ErrExtraction, "metadata", name, href, err)
		}
		values[i] = strings.TrimSpace(text)
	}
	md.Code = textutil.Normalize(values[0])
	md.Date = textutil.Normalize(values[1])
	md.Place = textutil.Normalize(values[2])
	md.Authors = SplitAuthors(textutil.Normalize(values[3]))

	md.Duration, err = ParseDuration(values[4])
	if err != nil {
		return RecordingMetadata{}, err
	}

	logging.WithContext(ctx, e.logger).Debug("metadata extracted",
		logging.String("title", md.Title),
		logging.String("code", md.Code),
		logging.Duration("duration", md.Duration),
	)
	return md, nil
}
