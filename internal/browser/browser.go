package browser

import (
	"context"
	"strings"
)

// LaunchOptions describe one browser instance.
type LaunchOptions struct {
	ProfileDir string
	SinkName   string
	Headless   bool
	// ExecPath overrides the browser binary; empty uses the driver's lookup.
	ExecPath string
}

// Launcher starts browsers. Implementations return errors marked
// services.ErrLaunch.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Page, error)
}

// Element is an opaque handle to a node on a Page. Handles are only valid on
// the page that produced them.
type Element interface {
	Tag() string
}

// Page is a single browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	QueryAll(ctx context.Context, loc Locator) ([]Element, error)
	TextContent(ctx context.Context, el Element) (string, error)
	Click(ctx context.Context, el Element) error
	// Type fills the first element matching a CSS selector.
	Type(ctx context.Context, selector, text string) error
	// Close terminates the browser. Repeated calls are no-ops.
	Close(ctx context.Context) error
}

// FirstText returns the trimmed text of the first element matching loc.
// found is false when nothing matches.
func FirstText(ctx context.Context, page Page, loc Locator) (text string, found bool, err error) {
	elements, err := page.QueryAll(ctx, loc)
	if err != nil {
		return "", false, err
	}
	if len(elements) == 0 {
		return "", false, nil
	}
	text, err = page.TextContent(ctx, elements[0])
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), true, nil
}
