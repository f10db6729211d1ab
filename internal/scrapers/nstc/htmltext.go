package nstc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nodePredicate matches a single element, predicates are built once and
// reused for every traversal.
type nodePredicate func(n *html.Node) bool

func isTag(tags ...atom.Atom) nodePredicate {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, t := range tags {
			if n.DataAtom == t {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// idContains matches elements whose id attribute contains substr.
func idContains(substr string) nodePredicate {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		id, ok := attr(n, "id")
		return ok && strings.Contains(id, substr)
	}
}

func both(a, b nodePredicate) nodePredicate {
	return func(n *html.Node) bool {
		return a(n) && b(n)
	}
}

// walk visits every descendant of root in document order, it stops early
// when visit returns false.
func walk(root *html.Node, visit func(n *html.Node) bool) bool {
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if !visit(child) {
			return false
		}
		if !walk(child, visit) {
			return false
		}
	}
	return true
}

func findFirst(root *html.Node, match nodePredicate) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func findAll(root *html.Node, match nodePredicate) []*html.Node {
	var found []*html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// textPieces returns every non-empty text node under n, trimmed, in document
// order. Script and style bodies are not visible text.
func textPieces(n *html.Node) []string {
	var pieces []string
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				pieces = append(pieces, s)
			}
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return pieces
}

// plainText is the trimmed text of n with its pieces glued together.
func plainText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(textPieces(n), "")
}

// visibleText is the trimmed text of n with its pieces joined by a space.
func visibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(textPieces(n), " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
