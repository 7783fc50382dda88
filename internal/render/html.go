package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLToText flattens an HTML fragment to plain text. Block elements start new lines,
// list items are bulleted and images are replaced by their alt text. Input that is not
// HTML comes back trimmed but otherwise unchanged.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	w := &textWriter{}
	for _, n := range nodes {
		w.walk(n)
	}
	return w.String()
}

type textWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *textWriter) flush() {
	if line := strings.TrimSpace(w.cur.String()); line != "" {
		w.lines = append(w.lines, line)
	}
	w.cur.Reset()
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		words := strings.Fields(n.Data)
		if len(words) == 0 {
			w.space()
			return
		}
		if startsWithSpace(n.Data) {
			w.space()
		}
		w.cur.WriteString(strings.Join(words, " "))
		if endsWithSpace(n.Data) {
			w.space()
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Br:
			w.flush()
			return
		case atom.Img:
			for _, a := range n.Attr {
				if a.Key == "alt" && strings.TrimSpace(a.Val) != "" {
					w.cur.WriteString("[" + strings.TrimSpace(a.Val) + "]")
				}
			}
			return
		case atom.Li:
			w.flush()
			w.cur.WriteString("• ")
			w.children(n)
			w.flush()
			return
		}
		if isBlock(n.DataAtom) {
			w.flush()
			w.children(n)
			w.flush()
			return
		}
	}
	w.children(n)
}

func (w *textWriter) space() {
	if w.cur.Len() > 0 && !strings.HasSuffix(w.cur.String(), " ") {
		w.cur.WriteByte(' ')
	}
}

func startsWithSpace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return strings.TrimRight(s, " \t\r\n") != s
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) String() string {
	w.flush()
	return strings.Join(w.lines, "\n")
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Ul, atom.Ol, atom.Table, atom.Tr, atom.Blockquote,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Pre, atom.Section:
		return true
	}
	return false
}
