package sidebar

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Inspect parses rendered HTML and recovers the sidebar it shows: each
// <details> inside the nav is a group and each anchor within it a link.
// Only Label, Href and Current are recovered.
func Inspect(r io.Reader) (*Sidebar, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	nav := find(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "nav" })
	out := &Sidebar{}
	if nav == nil {
		return out, nil
	}

	walk(nav, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "details" {
			return true
		}
		g := Group{}
		if s := find(n, func(c *html.Node) bool { return c.Type == html.ElementNode && c.Data == "summary" }); s != nil {
			g.Label = strings.TrimSpace(textOf(s))
		}
		walk(n, func(a *html.Node) bool {
			if a.Type == html.ElementNode && a.Data == "a" {
				g.Links = append(g.Links, Link{
					Label:   strings.TrimSpace(textOf(a)),
					Href:    attr(a, "href"),
					Current: attr(a, "aria-current") == "page",
				})
				return false
			}
			return true
		})
		out.Groups = append(out.Groups, g)
		return false
	})
	return out, nil
}

// walk visits n's descendants depth first; fn returning false skips a subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			walk(c, fn)
		}
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			collect(k)
		}
	}
	collect(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
