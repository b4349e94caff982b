package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// browserCandidates mirrors the names chromedp probes when no executable is
// configured.
var browserCandidates = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
}

// CheckBrowser reports the browser a launch would use. A configured
// executable is checked as given; otherwise the chromedp lookup names are
// tried in order.
func CheckBrowser(configured string) Status {
	status := Status{
		Name:        "Browser",
		Description: "Chrome or Chromium driven over DevTools",
	}
	if configured = strings.TrimSpace(configured); configured != "" {
		status.Command = configured
		path, err := exec.LookPath(configured)
		if err != nil {
			status.Detail = fmt.Sprintf("configured browser %q not found", configured)
			return status
		}
		status.Available = true
		status.Path = path
		return status
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			status.Command = name
			status.Path = path
			status.Available = true
			return status
		}
	}
	status.Command = browserCandidates[0]
	status.Detail = "no Chrome or Chromium found on PATH; set browser.executable or CHROMIUM_PATH"
	return status
}
