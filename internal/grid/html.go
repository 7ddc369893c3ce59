package grid

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// maxColspan caps colspan expansion on hostile input.
const maxColspan = 64

// HTMLDecoder reads the first <table> of an HTML export.
type HTMLDecoder struct{}

func (d *HTMLDecoder) Decode(r io.Reader) (Grid, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := findElement(doc, "table")
	if table == nil {
		return FromRows(nil), nil
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "table":
				if n != table {
					return // Nested tables are not part of the grid.
				}
			case "tr":
				rows = append(rows, rowCells(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	return FromRows(rows), nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cells = append(cells, textContent(c))
		for i := 1; i < colspan(c); i++ {
			cells = append(cells, "")
		}
	}
	return cells
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key != "colspan" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(a.Val))
		if err != nil || v < 1 {
			return 1
		}
		return min(v, maxColspan)
	}
	return 1
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
