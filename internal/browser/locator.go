package browser

import (
	"strconv"
	"strings"
)

// Axis selects the sibling direction of a SiblingRule.
type Axis int

const (
	Following Axis = iota
	Preceding
)

func (a Axis) xpath() string {
	if a == Preceding {
		return "preceding-sibling"
	}
	return "following-sibling"
}

// SiblingRule requires the sibling Offset positions away (in document order
// along Axis) to be a Tag element.
type SiblingRule struct {
	Axis   Axis
	Offset int
	Tag    string
}

// TextMatch filters on an element's direct text. Exact compares the whole
// text node; otherwise Value must be contained in it.
type TextMatch struct {
	Value string
	Exact bool
}

// Locator is a structural element query. Scope, when set, is an XPath step
// (for example "ul[@id='details']") the element must be nested under.
type Locator struct {
	Tag     string
	Scope   string
	Sibling *SiblingRule
	Text    *TextMatch
}

// XPath renders the locator.
func (l Locator) XPath() string {
	var b strings.Builder
	b.WriteString("//")
	if l.Scope != "" {
		b.WriteString(l.Scope)
		b.WriteString("//")
	}
	tag := l.Tag
	if tag == "" {
		tag = "*"
	}
	b.WriteString(tag)
	if s := l.Sibling; s != nil {
		b.WriteString("[")
		b.WriteString(s.Axis.xpath())
		b.WriteString("::*[")
		b.WriteString(strconv.Itoa(s.Offset))
		b.WriteString("][self::")
		b.WriteString(s.Tag)
		b.WriteString("]]")
	}
	if t := l.Text; t != nil {
		if t.Exact {
			b.WriteString("[text()=")
			b.WriteString(xpathLiteral(t.Value))
			b.WriteString("]")
		} else {
			b.WriteString("[contains(text(), ")
			b.WriteString(xpathLiteral(t.Value))
			b.WriteString(")]")
		}
	}
	return b.String()
}

func (l Locator) String() string { return l.XPath() }

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Portal page structure.
var (
	Category = Locator{Tag: "h3", Sibling: &SiblingRule{Axis: Following, Offset: 2, Tag: "h1"}}
	Title    = Locator{Tag: "h1", Sibling: &SiblingRule{Axis: Preceding, Offset: 2, Tag: "h3"}}
	Subtitle = Locator{Tag: "h2", Sibling: &SiblingRule{Axis: Preceding, Offset: 3, Tag: "h3"}}
	Details  = Locator{Tag: "dd", Scope: "ul[@id='details']"}

	LoginPrompt     = Locator{Tag: "button", Text: &TextMatch{Value: "Se connecter"}}
	LoginSubmit     = Locator{Tag: "button", Text: &TextMatch{Value: "Connexion", Exact: true}}
	LowBitrateAudio = Locator{Tag: "a", Text: &TextMatch{Value: "Audio bas débit"}}
)

// Login form fields.
const (
	EmailField    = "input[name='email']"
	PasswordField = "input[name='password']"
)
