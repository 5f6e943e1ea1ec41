// Package xnode is a small CSS-selector view over parsed HTML.
package xnode

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

type Node struct {
	*html.Node
}

type NodeList []*Node

// Parse parses a full HTML document.
func Parse(b []byte) (*Node, error) {
	doc, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return &Node{doc}, nil
}

// Find returns every descendant matching selector. An invalid selector
// matches nothing.
func (n *Node) Find(selector string) NodeList {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	matches := sel.MatchAll(n.Node)
	nodes := make(NodeList, len(matches))
	for i, m := range matches {
		nodes[i] = &Node{m}
	}
	return nodes
}

// First returns the first match or nil.
func (n *Node) First(selector string) *Node {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	m := sel.MatchFirst(n.Node)
	if m == nil {
		return nil
	}
	return &Node{m}
}

func (list NodeList) Each(callback func(i int, n *Node)) {
	for i, node := range list {
		callback(i, node)
	}
}

func (n *Node) Attr(key string) string {
	for _, attr := range n.Node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// Text is the whitespace-collapsed text content of n.
func (n *Node) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.TextNode {
			sb.WriteString(h.Data)
			sb.WriteByte(' ')
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.Node)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (n *Node) String() string {
	var buffer bytes.Buffer
	if err := html.Render(&buffer, n.Node); err != nil {
		return ""
	}
	return buffer.String()
}

// Pretty is String re-indented, for test failure output.
func (n *Node) Pretty() string {
	return gohtml.Format(n.String())
}
