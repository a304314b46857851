package readers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"avsave/types"
)

// Policy says what to do with bytes that are not valid UTF-8 (or not valid XML characters)
// before the payload is handed to the parser.
type Policy int

const (
	Replace Policy = iota // invalid UTF-8 becomes U+FFFD
	Ignore                // invalid UTF-8 is dropped
	Strip                 // as Ignore, then anything outside the XML character range goes too
)

func (p Policy) String() string {
	switch p {
	case Replace:
		return "replace"
	case Ignore:
		return "ignore"
	case Strip:
		return "strip"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Decode turns payload bytes into a document.
// Anything that is not well-formed XML is an error wrapping types.ErrParse; there are no partial documents.
func Decode(data []byte, policy Policy) (*types.Document, error) {
	text, err := decode_text(data, policy)
	if err != nil {
		return nil, &types.ParseError{Err: err}
	}
	return parse(text)
}

// ParseString parses XML text typed in by a human (e.g. after editing the pretty-printed view).
func ParseString(text string) (*types.Document, error) {
	return parse(text)
}

// Char ::= #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF]
func is_xml_char(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func decode_text(data []byte, policy Policy) (string, error) {
	switch policy {
	case Replace:
		s, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), data)
		return string(s), err

	case Ignore:
		return strings.ToValidUTF8(string(data), ""), nil

	case Strip:
		s := strings.ToValidUTF8(string(data), "")
		clean, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool { return !is_xml_char(r) })), s)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(clean), nil
	}
	return "", fmt.Errorf("unknown decode policy %d", int(policy))
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func is_blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// parse builds the document from raw tokens, checking tag matching itself
// so that namespace prefixes come back out exactly as they went in.
func parse(text string) (*types.Document, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if !utf8.ValidString(text) {
		return nil, &types.ParseError{Err: errors.New("invalid UTF-8")}
	}

	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	// text is already UTF-8, whatever the declaration claims
	dec.CharsetReader = func(label string, r io.Reader) (io.Reader, error) { return r, nil }

	fail := func(err error) (*types.Document, error) {
		line, _ := dec.InputPos()
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			line = se.Line
		}
		return nil, &types.ParseError{Line: line, Err: err}
	}

	doc := &types.Document{Root: types.NoNode}
	stack := []types.NodeID{}
	last_closed := types.NoNode
	done := false

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if done {
				return fail(fmt.Errorf("second root element <%s>", qualified(t.Name)))
			}
			e := types.Element{Tag: qualified(t.Name), Parent: types.NoNode}
			seen := map[string]bool{}
			for _, a := range t.Attr {
				name := qualified(a.Name)
				if seen[name] {
					return fail(fmt.Errorf("attribute %s repeated on <%s>", name, e.Tag))
				}
				seen[name] = true
				e.Attrs = append(e.Attrs, types.Attr{Name: name, Value: a.Value})
			}
			id := types.NodeID(len(doc.Elements))
			if len(stack) == 0 {
				doc.Root = id
			} else {
				parent := stack[len(stack)-1]
				e.Parent = parent
				doc.Elements[parent].Children = append(doc.Elements[parent].Children, id)
			}
			doc.Elements = append(doc.Elements, e)
			stack = append(stack, id)
			last_closed = types.NoNode

		case xml.EndElement:
			if len(stack) == 0 {
				return fail(fmt.Errorf("unexpected </%s>", qualified(t.Name)))
			}
			top := stack[len(stack)-1]
			if doc.Elements[top].Tag != qualified(t.Name) {
				return fail(fmt.Errorf("element <%s> closed by </%s>", doc.Elements[top].Tag, qualified(t.Name)))
			}
			stack = stack[:len(stack)-1]
			last_closed = top
			if len(stack) == 0 {
				done = true
			}

		case xml.CharData:
			s := string(t)
			switch {
			case len(stack) == 0:
				if !is_blank(s) {
					if done {
						return fail(errors.New("content after root element"))
					}
					return fail(errors.New("content before root element"))
				}
			case last_closed != types.NoNode:
				doc.Elements[last_closed].Tail += s
			default:
				top := stack[len(stack)-1]
				doc.Elements[top].Text += s
			}

		case xml.Comment, xml.ProcInst, xml.Directive:
			// dropped
		}
	}

	if len(stack) > 0 {
		return fail(fmt.Errorf("unexpected end of input: <%s> not closed", doc.Elements[stack[len(stack)-1]].Tag))
	}
	if doc.Root == types.NoNode {
		return fail(errors.New("no root element"))
	}
	return doc, nil
}
