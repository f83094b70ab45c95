package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Filter narrows a tag search by attribute. Empty fields match anything.
type Filter struct {
	ID    string
	Class string // matched against any one of the element's classes
	Title string
}

// Node is the read-only view of the document tree the extractor walks.
type Node interface {
	// FindAll returns descendants with the given tag ("" for any) matching f, in document order.
	FindAll(tag string, f Filter) []Node
	// FindFirst returns the first descendant FindAll would return.
	FindFirst(tag string, f Filter) (Node, bool)
	// Children returns the immediate child nodes, text and comments included.
	Children() []Node
	IsElement() bool
	// IsBlank reports whitespace-only text and comments.
	IsBlank() bool
	Text() string
	// SingleString returns the text of a node whose content is one text node,
	// possibly wrapped in a chain of single-child elements.
	SingleString() (string, bool)
	Attr(name string) (string, bool)
}

// NewNode wraps a goquery selection. Only the first node of the selection is used.
func NewNode(sel *goquery.Selection) Node {
	return &selectionNode{sel: sel.First()}
}

type selectionNode struct {
	sel *goquery.Selection
}

func (n *selectionNode) FindAll(tag string, f Filter) []Node {
	if tag == "" {
		tag = "*"
	}

	var nodes []Node
	n.sel.Find(tag).Each(func(i int, s *goquery.Selection) {
		if f.matches(s) {
			nodes = append(nodes, &selectionNode{sel: s})
		}
	})
	return nodes
}

func (n *selectionNode) FindFirst(tag string, f Filter) (Node, bool) {
	if tag == "" {
		tag = "*"
	}

	var found Node
	n.sel.Find(tag).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if f.matches(s) {
			found = &selectionNode{sel: s}
			return false
		}
		return true
	})
	return found, found != nil
}

func (n *selectionNode) Children() []Node {
	var nodes []Node
	n.sel.Contents().Each(func(i int, s *goquery.Selection) {
		nodes = append(nodes, &selectionNode{sel: s})
	})
	return nodes
}

func (n *selectionNode) IsElement() bool {
	raw := n.raw()
	return raw != nil && (raw.Type == html.ElementNode || raw.Type == html.DocumentNode)
}

func (n *selectionNode) IsBlank() bool {
	raw := n.raw()
	if raw == nil {
		return true
	}
	switch raw.Type {
	case html.TextNode:
		return strings.TrimSpace(raw.Data) == ""
	case html.CommentNode:
		return true
	}
	return false
}

func (n *selectionNode) Text() string {
	return n.sel.Text()
}

func (n *selectionNode) SingleString() (string, bool) {
	current := n.raw()
	for current != nil {
		child := current.FirstChild
		if child == nil || child.NextSibling != nil {
			return "", false
		}
		switch child.Type {
		case html.TextNode:
			return child.Data, true
		case html.ElementNode:
			current = child
		default:
			return "", false
		}
	}
	return "", false
}

func (n *selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *selectionNode) raw() *html.Node {
	if len(n.sel.Nodes) == 0 {
		return nil
	}
	return n.sel.Nodes[0]
}

func (f Filter) matches(s *goquery.Selection) bool {
	if f.ID != "" {
		if id, ok := s.Attr("id"); !ok || id != f.ID {
			return false
		}
	}
	if f.Class != "" && !s.HasClass(f.Class) {
		return false
	}
	if f.Title != "" {
		if title, ok := s.Attr("title"); !ok || title != f.Title {
			return false
		}
	}
	return true
}
