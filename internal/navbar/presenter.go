// Package navbar renders the shared navigation fragment for the current
// session.
package navbar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	cacheKey = "navbar:fragment"

	classGuest    = "guest-buttons"
	classUser     = "user-buttons"
	classAdmin    = "admin-buttons"
	classUsername = "username"
	logoutID      = "logout-button"
)

// Fetcher loads the raw fragment.
type Fetcher interface {
	Navbar(ctx context.Context) (string, error)
}

// View is the session state the navbar depends on.
type View struct {
	Authenticated bool
	Username      string
	IsSuperuser   bool
	LogoutAction  string
	CSRFToken     string
}

type Presenter struct {
	fetcher Fetcher
	cache   *redis.Client
	ttl     time.Duration
	log     zerolog.Logger
}

// NewPresenter caches fragments in cache when it is non-nil and ttl positive.
func NewPresenter(fetcher Fetcher, cache *redis.Client, ttl time.Duration, log zerolog.Logger) *Presenter {
	return &Presenter{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("component", "navbar").Logger(),
	}
}

// Render returns the navbar for view. Fetch and parse failures are logged
// and yield an empty fragment.
func (p *Presenter) Render(ctx context.Context, view View) template.HTML {
	raw, err := p.fragment(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("load navbar failed")
		return ""
	}

	out, err := apply(raw, view)
	if err != nil {
		p.log.Error().Err(err).Msg("render navbar failed")
		return ""
	}
	return template.HTML(out)
}

func (p *Presenter) fragment(ctx context.Context) (string, error) {
	if p.cache != nil && p.ttl > 0 {
		cached, err := p.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, redis.Nil):
			p.log.Warn().Err(err).Msg("navbar cache read failed")
		}
	}

	raw, err := p.fetcher.Navbar(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch fragment: %w", err)
	}

	if p.cache != nil && p.ttl > 0 {
		if err := p.cache.Set(ctx, cacheKey, raw, p.ttl).Err(); err != nil {
			p.log.Warn().Err(err).Msg("navbar cache write failed")
		}
	}
	return raw, nil
}

func apply(raw string, view View) (string, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(raw), container)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	signedIn := view.Authenticated && view.Username != ""
	username := ""
	if signedIn {
		username = view.Username
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			switch {
			case hasClass(el, classGuest):
				setDisplay(el, !signedIn)
			case hasClass(el, classUser):
				setDisplay(el, signedIn)
			case hasClass(el, classAdmin):
				setDisplay(el, signedIn && view.IsSuperuser)
			}
			if hasClass(el, classUsername) {
				setText(el, username)
			}
			if view.LogoutAction != "" && attr(el, "id") == logoutID {
				wrapInForm(el, view.LogoutAction, view.CSRFToken)
			}
		})
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return buf.String(), nil
}

// walk visits every element below n. Children are captured before fn runs
// so fn may restructure the node it is given.
func walk(n *html.Node, fn func(*html.Node)) {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	if n.Type == html.ElementNode {
		fn(n)
	}
	for _, c := range children {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// setDisplay rewrites only the display declaration of the inline style.
func setDisplay(n *html.Node, visible bool) {
	display := "display:none"
	if visible {
		display = "display:block"
	}

	var kept []string
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), "display") {
			continue
		}
		kept = append(kept, decl)
	}
	kept = append(kept, display)
	setAttr(n, "style", strings.Join(kept, ";"))
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// wrapInForm turns the logout link into a submit button inside a POST form.
// A non-empty csrfToken is carried as a hidden field.
func wrapInForm(n *html.Node, action, csrfToken string) {
	parent := n.Parent
	if parent == nil {
		return
	}
	form := &html.Node{
		Type:     html.ElementNode,
		Data:     "form",
		DataAtom: atom.Form,
		Attr: []html.Attribute{
			{Key: "method", Val: "post"},
			{Key: "action", Val: action},
			{Key: "class", Val: "logout-form"},
			{Key: "style", Val: "display:inline"},
		},
	}
	parent.InsertBefore(form, n)
	parent.RemoveChild(n)

	if csrfToken != "" {
		form.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "input",
			DataAtom: atom.Input,
			Attr: []html.Attribute{
				{Key: "type", Val: "hidden"},
				{Key: "name", Val: "csrf_token"},
				{Key: "value", Val: csrfToken},
			},
		})
	}

	n.Data = "button"
	n.DataAtom = atom.Button
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != "href" {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
	setAttr(n, "type", "submit")
	form.AppendChild(n)
}
