// Package docx renders a read-only HTML preview of a DOCX document.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
)

const (
	documentPath = "word/document.xml"
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var headings = map[string]atom.Atom{
	"title":    atom.H1,
	"heading1": atom.H1,
	"heading2": atom.H2,
	"heading3": atom.H3,
	"heading4": atom.H4,
	"heading5": atom.H5,
	"heading6": atom.H6,
}

// Check verifies that the data is a DOCX container.
func Check(r io.ReaderAt, size int64) error {
	_, err := openDocument(r, size)
	return err
}

// Preview converts the main document part to an HTML fragment.
func Preview(r io.ReaderAt, size int64) (string, error) {
	var buf bytes.Buffer
	err := Render(&buf, r, size)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes the HTML preview to w.
func Render(w io.Writer, r io.ReaderAt, size int64) error {
	f, err := openDocument(r, size)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrap(err, "open %v", documentPath)
	}
	defer rc.Close()

	root, err := convert(rc)
	if err != nil {
		return err
	}

	return html.Render(w, root)
}

func openDocument(r io.ReaderAt, size int64) (*zip.File, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.NewValidationError("not a DOCX container: %v", err)
	}

	for _, f := range zr.File {
		if f.Name == documentPath {
			return f, nil
		}
	}
	return nil, errors.NewValidationError("not a DOCX container: missing %v", documentPath)
}

// run formatting
type format struct {
	bold      bool
	italic    bool
	underline bool
}

type converter struct {
	root  *html.Node
	stack []*html.Node
	para  *html.Node
	run   *format
	inRPr bool
}

func convert(r io.Reader) (*html.Node, error) {
	c := &converter{root: element(atom.Div)}
	c.root.Attr = []html.Attribute{{Key: "class", Val: "docx-preview"}}
	c.stack = []*html.Node{c.root}

	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.NewValidationError("invalid %v: %v", documentPath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			err = c.start(d, t)
			if err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			c.end(t)
		}
	}

	logging.Debug("Converted DOCX with %d top level blocks", countChildren(c.root))
	return c.root, nil
}

func (c *converter) start(d *xml.Decoder, t xml.StartElement) error {
	switch t.Name.Local {
	case "tbl":
		tbl := element(atom.Table)
		c.push(tbl)
	case "tr":
		c.push(element(atom.Tr))
	case "tc":
		c.push(element(atom.Td))
	case "p":
		c.para = element(atom.P)
		c.push(c.para)
	case "pStyle":
		if c.para != nil {
			if a, ok := headings[strings.ToLower(attr(t, "val"))]; ok {
				c.para.DataAtom = a
				c.para.Data = a.String()
			}
		}
	case "r":
		c.run = &format{}
	case "rPr":
		c.inRPr = true
	case "b":
		if c.run != nil && c.inRPr {
			c.run.bold = enabled(t)
		}
	case "i":
		if c.run != nil && c.inRPr {
			c.run.italic = enabled(t)
		}
	case "u":
		if c.run != nil && c.inRPr {
			c.run.underline = attr(t, "val") != "none"
		}
	case "t":
		var s string
		err := d.DecodeElement(&s, &t)
		if err != nil {
			return errors.NewValidationError("invalid text element: %v", err)
		}
		c.text(s)
	case "tab":
		c.text("\t")
	case "br":
		if c.para != nil {
			c.para.AppendChild(element(atom.Br))
		}
	}
	return nil
}

func (c *converter) end(t xml.EndElement) {
	switch t.Name.Local {
	case "tbl", "tr", "tc":
		c.pop()
	case "p":
		c.pop()
		c.para = nil
	case "r":
		c.run = nil
	case "rPr":
		c.inRPr = false
	}
}

// text appends s to the current paragraph, wrapped according to the
// current run format.
func (c *converter) text(s string) {
	if c.para == nil || s == "" {
		return
	}

	node := &html.Node{Type: html.TextNode, Data: s}
	if c.run != nil {
		if c.run.underline {
			node = wrap(atom.U, node)
		}
		if c.run.italic {
			node = wrap(atom.Em, node)
		}
		if c.run.bold {
			node = wrap(atom.Strong, node)
		}
	}
	c.para.AppendChild(node)
}

func (c *converter) push(n *html.Node) {
	c.stack[len(c.stack)-1].AppendChild(n)
	c.stack = append(c.stack, n)
}

func (c *converter) pop() {
	// the root element stays
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func wrap(a atom.Atom, child *html.Node) *html.Node {
	n := element(a)
	n.AppendChild(child)
	return n
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// enabled reads an OOXML toggle property like <w:b/> or <w:b w:val="0"/>.
func enabled(t xml.StartElement) bool {
	switch strings.ToLower(attr(t, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}

func countChildren(n *html.Node) int {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		i++
	}
	return i
}
