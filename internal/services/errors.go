package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResource marks audio sink allocation and release failures.
	ErrResource = errors.New("resource error")
	// ErrLaunch marks browser executable or profile failures.
	ErrLaunch = errors.New("launch error")
	// ErrAuthentication marks driver failures inside the login protocol.
	ErrAuthentication = errors.New("authentication error")
	// ErrExtraction marks a page missing an element the extractor expects.
	ErrExtraction = errors.New("extraction error")
	// ErrFormat marks scraped text that does not parse, such as durations.
	ErrFormat = errors.New("format error")
	// ErrCapture marks encoder spawn and control failures.
	ErrCapture = errors.New("capture error")

	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrResource, "resource"},
	{ErrLaunch, "launch"},
	{ErrAuthentication, "authentication"},
	{ErrFormat, "format"},
	{ErrExtraction, "extraction"},
	{ErrCapture, "capture"},
	{ErrConfiguration, "configuration"},
	{ErrExternalTool, "external_tool"},
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the error class carried by err, or "unknown" when no marker is
// present. A nil error yields an empty string.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "unknown"
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
