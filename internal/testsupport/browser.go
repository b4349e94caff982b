package testsupport

import (
	"context"
	"errors"
	"sync"

	"sndx/internal/browser"
)

// NoticeHTML renders a minimal notice page the metadata extractor accepts.
func NoticeHTML(title, duration string) string {
	return `<html><body>
<h3>Conférences</h3><span>/</span><h1>` + title + `</h1><h2>Sous-titre</h2>
<ul id="details"><li><dl>
<dd>CRC-1</dd><dd>01/01/2000</dd><dd>Paris</dd><dd>Auteur</dd><dd>` + duration + `</dd>
</dl></li></ul>
<a href="/low.mp3">Audio bas débit</a>
</body></html>`
}

// StaticLauncher launches StaticPage instances. Build fills every new page
// with documents; returning an error fails that launch.
type StaticLauncher struct {
	Build func(opts browser.LaunchOptions) (*browser.StaticPage, error)

	mu       sync.Mutex
	launches []browser.LaunchOptions
	pages    []*browser.StaticPage
}

func (l *StaticLauncher) Launch(_ context.Context, opts browser.LaunchOptions) (browser.Page, error) {
	l.mu.Lock()
	l.launches = append(l.launches, opts)
	l.mu.Unlock()

	if l.Build == nil {
		return nil, errors.New("static launcher has no page builder")
	}
	page, err := l.Build(opts)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.pages = append(l.pages, page)
	l.mu.Unlock()
	return page, nil
}

// Launches returns every LaunchOptions seen, successful or not.
func (l *StaticLauncher) Launches() []browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.LaunchOptions(nil), l.launches...)
}

// Pages returns the pages of successful launches.
func (l *StaticLauncher) Pages() []*browser.StaticPage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*browser.StaticPage(nil), l.pages...)
}
