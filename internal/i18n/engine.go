package i18n

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tag attributes recognised by Localize.
const (
	AttrText        = "data-i18n"
	AttrPlaceholder = "data-i18n-placeholder"
	AttrTitle       = "data-i18n-title"
	attrLegacy      = "data-translate"
)

// Preferences persists the chosen language.
type Preferences interface {
	Language(ctx context.Context) (string, bool)
	SetLanguage(ctx context.Context, code string) error
}

// Engine localizes one request's output.
type Engine struct {
	table  Table
	prefs  Preferences
	active string
	log    zerolog.Logger
}

// NewEngine starts with initial when supported, otherwise English.
func NewEngine(table Table, prefs Preferences, initial string, log zerolog.Logger) *Engine {
	active, ok := table.Canonical(initial)
	if !ok {
		active = English
	}
	return &Engine{
		table:  table,
		prefs:  prefs,
		active: active,
		log:    log,
	}
}

func (e *Engine) Language() string {
	return e.active
}

// SetLanguage switches to code and persists it. An unsupported code is
// ignored and reported with ok=false. A persistence failure is returned but
// the switch still applies to this engine.
func (e *Engine) SetLanguage(ctx context.Context, code string) (bool, error) {
	canonical, ok := e.table.Canonical(code)
	if !ok {
		e.log.Debug().Str("code", code).Msg("unsupported language ignored")
		return false, nil
	}
	e.active = canonical
	if e.prefs == nil {
		return true, nil
	}
	if err := e.prefs.SetLanguage(ctx, canonical); err != nil {
		return true, fmt.Errorf("persist language: %w", err)
	}
	return true, nil
}

// Resolve never fails: a key missing from the active table comes back as is.
func (e *Engine) Resolve(key string) string {
	return e.table.Lookup(e.active, key)
}

// Localize rewrites every tagged element of an HTML document. Untagged
// content is left alone.
func (e *Engine) Localize(doc []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	e.rewrite(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) rewrite(n *html.Node) {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Html {
			setAttr(n, "lang", e.active)
		}
		if key, ok := getAttr(n, AttrText); ok {
			if isSubmitInput(n) {
				setAttr(n, "value", e.Resolve(key))
			} else {
				setText(n, e.Resolve(key))
			}
		} else if key, ok := getAttr(n, attrLegacy); ok {
			setText(n, e.Resolve(key))
		}
		if key, ok := getAttr(n, AttrPlaceholder); ok {
			setAttr(n, "placeholder", e.Resolve(key))
		}
		if key, ok := getAttr(n, AttrTitle); ok {
			setAttr(n, "title", e.Resolve(key))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.rewrite(c)
	}
}

func isSubmitInput(n *html.Node) bool {
	if n.DataAtom != atom.Input {
		return false
	}
	typ, _ := getAttr(n, "type")
	return strings.EqualFold(typ, "submit")
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

// setText replaces all children with one text node, like textContent.
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
