package writers

import (
	"bytes"
	"strings"

	"avsave/tables"
	"avsave/types"
)

type Options struct {
	// Root replaces the root element's tag on the way out, without touching the document.
	Root string

	// Declaration puts an XML declaration in front. Payloads embedded in a container never have one.
	Declaration bool
}

var attr_escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#09;",
)

var text_escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#13;",
)

// Encode serializes the document.
// Text and tails go out as they came in, so an untouched document keeps its original layout.
func Encode(doc *types.Document, opts Options) []byte {
	b := &bytes.Buffer{}
	if opts.Declaration {
		b.Write(tables.Xml_declaration)
	}
	if !doc.Valid(doc.Root) {
		return b.Bytes()
	}
	write_element(b, doc, doc.Root, opts.Root)
	return b.Bytes()
}

func write_start(b *bytes.Buffer, tag string, attrs []types.Attr) {
	b.WriteString("<")
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString("=\"")
		attr_escaper.WriteString(b, a.Value)
		b.WriteString("\"")
	}
}

func write_element(b *bytes.Buffer, doc *types.Document, id types.NodeID, tag string) {
	e := &doc.Elements[id]
	if tag == "" {
		tag = e.Tag
	}
	write_start(b, tag, e.Attrs)
	if e.Text == "" && len(e.Children) == 0 {
		b.WriteString(" />")
		return
	}
	b.WriteString(">")
	text_escaper.WriteString(b, e.Text)
	for _, c := range e.Children {
		write_element(b, doc, c, "")
		text_escaper.WriteString(b, doc.Elements[c].Tail)
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">")
}

// Pretty is for looking at, never for saving: whitespace is thrown away and re-invented.
func Pretty(doc *types.Document) string {
	b := &bytes.Buffer{}
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	if doc.Valid(doc.Root) {
		write_pretty(b, doc, doc.Root, 0)
	}
	return b.String()
}

func write_pretty(b *bytes.Buffer, doc *types.Document, id types.NodeID, depth int) {
	e := &doc.Elements[id]
	indent := strings.Repeat("  ", depth)
	text := strings.TrimSpace(e.Text)

	b.WriteString(indent)
	write_start(b, e.Tag, e.Attrs)
	switch {
	case len(e.Children) == 0 && text == "":
		b.WriteString("/>\n")
		return
	case len(e.Children) == 0:
		b.WriteString(">")
		text_escaper.WriteString(b, text)
		b.WriteString("</" + e.Tag + ">\n")
		return
	}

	b.WriteString(">\n")
	if text != "" {
		b.WriteString(indent + "  ")
		text_escaper.WriteString(b, text)
		b.WriteString("\n")
	}
	for _, c := range e.Children {
		write_pretty(b, doc, c, depth+1)
		if tail := strings.TrimSpace(doc.Elements[c].Tail); tail != "" {
			b.WriteString(indent + "  ")
			text_escaper.WriteString(b, tail)
			b.WriteString("\n")
		}
	}
	b.WriteString(indent + "</" + e.Tag + ">\n")
}
