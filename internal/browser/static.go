package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrPageClosed is returned by StaticPage operations after Close.
var ErrPageClosed = errors.New("page closed")

// StaticPage serves parsed HTML documents keyed by URL. It records
// navigation, clicks, and typed text so callers can assert on them, and it
// backs offline inspection of saved portal pages.
type StaticPage struct {
	mu      sync.Mutex
	docs    map[string]*html.Node
	current string
	doc     *html.Node
	visits  []string
	clicks  []string
	typed   map[string]string
	closed  bool
	closes  int
	onClick func(text string)
	onClose func()
}

// NewStaticPage returns an empty page. Register documents before navigating.
func NewStaticPage() *StaticPage {
	return &StaticPage{
		docs:  make(map[string]*html.Node),
		typed: make(map[string]string),
	}
}

// AddDocument parses r and serves it at url, replacing any earlier document.
// If url is the current location the live document is replaced too.
func (p *StaticPage) AddDocument(url string, r io.Reader) error {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	p.store(url, doc)
	return nil
}

// AddHTML is AddDocument for an in-memory string.
func (p *StaticPage) AddHTML(url, body string) error {
	return p.AddDocument(url, strings.NewReader(body))
}

// LoadFile serves the HTML file at path under url.
func (p *StaticPage) LoadFile(url, path string) error {
	doc, err := htmlquery.LoadDoc(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	p.store(url, doc)
	return nil
}

func (p *StaticPage) store(url string, doc *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[url] = doc
	if p.current == url {
		p.doc = doc
	}
}

// OnClick registers a callback run after each click with the clicked
// element's text. The callback may register new documents.
func (p *StaticPage) OnClick(fn func(text string)) {
	p.mu.Lock()
	p.onClick = fn
	p.mu.Unlock()
}

func (p *StaticPage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	doc, ok := p.docs[url]
	if !ok {
		return fmt.Errorf("navigate %s: no document", url)
	}
	p.current = url
	p.doc = doc
	p.visits = append(p.visits, url)
	return nil
}

func (p *StaticPage) Location(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPageClosed
	}
	return p.current, nil
}

func (p *StaticPage) QueryAll(_ context.Context, loc Locator) ([]Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPageClosed
	}
	if p.doc == nil {
		return nil, nil
	}
	nodes, err := htmlquery.QueryAll(p.doc, loc.XPath())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, staticElement{node: n, page: p})
	}
	return elements, nil
}

func (p *StaticPage) TextContent(_ context.Context, el Element) (string, error) {
	node, err := p.own(el)
	if err != nil {
		return "", err
	}
	return htmlquery.InnerText(node), nil
}

func (p *StaticPage) Click(_ context.Context, el Element) error {
	node, err := p.own(el)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(htmlquery.InnerText(node))
	p.mu.Lock()
	p.clicks = append(p.clicks, text)
	fn := p.onClick
	p.mu.Unlock()
	if fn != nil {
		fn(text)
	}
	return nil
}

// simpleAttrSelector covers the tag[attr='value'] selectors the portal needs.
var simpleAttrSelector = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)\[([A-Za-z_-]+)='([^']*)'\]$`)

func (p *StaticPage) Type(_ context.Context, selector, text string) error {
	m := simpleAttrSelector.FindStringSubmatch(strings.TrimSpace(selector))
	if m == nil {
		return fmt.Errorf("unsupported selector %q", selector)
	}
	expr := fmt.Sprintf("//%s[@%s=%s]", m[1], m[2], xpathLiteral(m[3]))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	if p.doc == nil || htmlquery.FindOne(p.doc, expr) == nil {
		return fmt.Errorf("type %s: no matching element", selector)
	}
	p.typed[selector] = text
	return nil
}

// OnClose registers a callback run on every Close.
func (p *StaticPage) OnClose(fn func()) {
	p.mu.Lock()
	p.onClose = fn
	p.mu.Unlock()
}

func (p *StaticPage) Close(context.Context) error {
	p.mu.Lock()
	p.closes++
	p.closed = true
	fn := p.onClose
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// Visits lists every URL navigated to, in order.
func (p *StaticPage) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

// Clicks lists the trimmed text of every clicked element, in order.
func (p *StaticPage) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Typed returns the text last typed into selector.
func (p *StaticPage) Typed(selector string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	text, ok := p.typed[selector]
	return text, ok
}

// Closes counts Close calls.
func (p *StaticPage) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *StaticPage) own(el Element) (*html.Node, error) {
	se, ok := el.(staticElement)
	if !ok || se.page != p {
		return nil, fmt.Errorf("element %v does not belong to this page", el)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPageClosed
	}
	return se.node, nil
}

type staticElement struct {
	node *html.Node
	page *StaticPage
}

func (e staticElement) Tag() string { return e.node.Data }
